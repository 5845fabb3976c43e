package extractapi

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/logger"
	"github.com/use-agent/placerank/models"
)

// placeSchema is the JSON schema sent with every ranking request.
var placeSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "places": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "rank": {"type": "integer"},
          "name": {"type": "string"},
          "listingId": {"type": "string"}
        },
        "required": ["name"]
      }
    },
    "total_results": {"type": "integer"}
  },
  "required": ["places"]
}`)

const rankingPrompt = "Extract every place in the search result list in display order. " +
	"For each place return its 1-based rank, its name and its numeric place ID " +
	"(the digits after /place/ in its link). Also return the total result count if shown."

// Strategy finds rankings through the extraction API. It never returns an
// error from ScrapeRanking: any failure becomes a miss so the next strategy
// can run.
type Strategy struct {
	client     *Client
	scraperCfg config.ScraperConfig
	waitFor    int
	log        zerolog.Logger
}

// NewStrategy creates the strategy. It fails when the API key is missing.
func NewStrategy(cfg config.ExtractAPIConfig, scraperCfg config.ScraperConfig) (*Strategy, error) {
	client, err := NewClient(cfg, nil)
	if err != nil {
		return nil, err
	}
	return newStrategy(client, cfg, scraperCfg), nil
}

func newStrategy(client *Client, cfg config.ExtractAPIConfig, scraperCfg config.ScraperConfig) *Strategy {
	return &Strategy{
		client:     client,
		scraperCfg: scraperCfg,
		waitFor:    cfg.WaitFor,
		log:        logger.For("extract-api"),
	}
}

func (s *Strategy) Name() string { return "extract-api" }

// ScrapeRanking asks the service to extract the result list of the public
// search page and matches the target by ID, then by name.
func (s *Strategy) ScrapeRanking(ctx context.Context, q models.RankQuery) (models.RankResult, error) {
	start := time.Now()
	resp, err := s.client.Scrape(ctx, ScrapeRequest{
		URL:     s.scraperCfg.SearchPageURL(q.SearchQuery()),
		Formats: []string{"extract"},
		Extract: ExtractSpec{Schema: placeSchema, Prompt: rankingPrompt},
		WaitFor: s.waitFor,
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("keyword", q.SearchQuery()).
			Dur("elapsed", time.Since(start)).
			Msg("extraction failed, reporting not found")
		return models.NotFound(nil), nil
	}

	list := resp.Data.Extract
	res := matchPlace(list, q)
	s.log.Debug().
		Str("keyword", q.SearchQuery()).
		Int("places", len(list.Places)).
		Bool("found", res.Found).
		Dur("elapsed", time.Since(start)).
		Msg("extraction finished")
	return res, nil
}

// matchPlace returns the rank of the target in list.
func matchPlace(list PlaceList, q models.RankQuery) models.RankResult {
	idx := -1
	if target := strings.TrimSpace(q.TargetListingID); target != "" {
		for i, p := range list.Places {
			if strings.TrimSpace(string(p.ListingID)) == target {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		idx = matchName(list.Places, q.TargetName)
	}
	if idx < 0 {
		return models.NotFound(list.TotalResults)
	}

	rank := list.Places[idx].Rank
	if rank <= 0 {
		rank = idx + 1
	}
	return models.FoundAt(rank, list.TotalResults)
}

// matchName prefers an exact normalized name, then the first place whose
// name contains the target.
func matchName(places []Place, target string) int {
	name := normalizeName(target)
	if name == "" {
		return -1
	}
	for i, p := range places {
		if normalizeName(p.Name) == name {
			return i
		}
	}
	for i, p := range places {
		if strings.Contains(normalizeName(p.Name), name) {
			return i
		}
	}
	return -1
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// ScrapeReviews is not offered by the extraction API.
func (s *Strategy) ScrapeReviews(_ context.Context, q models.ReviewQuery) ([]models.ReviewResult, error) {
	s.log.Debug().Str("listing", q.ListingID).Msg("reviews are not available through the extraction API")
	return []models.ReviewResult{}, nil
}

func (s *Strategy) Close() error { return nil }
