package scraper

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/logger"
	"github.com/use-agent/placerank/models"
	"golang.org/x/net/html"
)

// BrowserStrategy scrapes rankings and reviews by rendering the public
// mobile pages in a headless browser.
//
// Each call renders in its own tab; the browser process is shared through
// the Browser handle, on which the strategy holds one reference.
type BrowserStrategy struct {
	browser     *Browser
	render      renderer
	cfg         config.ScraperConfig
	delay       time.Duration
	now         func() time.Time
	parseReview reviewParser
	dumper      *pageDumper
	log         zerolog.Logger
	closeOnce   sync.Once
}

// NewBrowserStrategy creates a strategy on top of b and retains it.
func NewBrowserStrategy(b *Browser, browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) *BrowserStrategy {
	b.Retain()
	log := logger.For("browser-strategy")
	return &BrowserStrategy{
		browser: b,
		render: &rodRenderer{
			browser:    b,
			browserCfg: browserCfg,
			scraperCfg: scraperCfg,
			backoff:    navigationBackoff,
			alive:      browserAlive,
			log:        log,
		},
		cfg:         scraperCfg,
		delay:       scraperCfg.RequestDelay,
		now:         time.Now,
		parseReview: parseReviewItem,
		dumper:      newPageDumper(scraperCfg.Debug, log),
		log:         log,
	}
}

func (s *BrowserStrategy) Name() string { return "browser" }

// ScrapeRanking renders the search page and finds the target listing.
func (s *BrowserStrategy) ScrapeRanking(ctx context.Context, q models.RankQuery) (models.RankResult, error) {
	defer s.pause(ctx)

	url := s.cfg.SearchPageURL(q.SearchQuery())
	doc, raw, err := s.load(ctx, url)
	if err != nil {
		return models.NotFound(nil), err
	}

	res, n := findRank(doc, q.TargetListingID)
	if n == 0 {
		s.dumper.dump(resultItem.Name, url, doc, raw)
	}
	s.log.Debug().
		Str("keyword", q.SearchQuery()).
		Int("items", n).
		Bool("found", res.Found).
		Msg("ranking parsed")
	return res, nil
}

// ScrapeReviews renders the review page and parses up to q.Limit reviews.
func (s *BrowserStrategy) ScrapeReviews(ctx context.Context, q models.ReviewQuery) ([]models.ReviewResult, error) {
	defer s.pause(ctx)

	q = q.Normalize()
	url := s.cfg.ReviewPageURL(q.ListingID)
	doc, raw, err := s.load(ctx, url)
	if err != nil {
		return nil, err
	}

	reviews := extractReviews(doc, q.Limit, s.now(), s.parseReview, s.log)
	if len(reviews) == 0 {
		s.dumper.dump(reviewItem.Name, url, doc, raw)
	}
	s.log.Debug().
		Str("listing", q.ListingID).
		Int("reviews", len(reviews)).
		Msg("reviews parsed")
	return reviews, nil
}

// Close drops this strategy's reference on the browser. Safe to call twice.
func (s *BrowserStrategy) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.browser.Release() })
	return err
}

func (s *BrowserStrategy) load(ctx context.Context, url string) (*goquery.Document, string, error) {
	raw, err := s.render.Render(ctx, url)
	if err != nil {
		return nil, "", err
	}
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, "", models.NewScrapeError(models.ErrCodeInternal, "failed to parse page HTML", err)
	}
	return goquery.NewDocumentFromNode(root), raw, nil
}

// pause applies the politeness delay between scrapes.
func (s *BrowserStrategy) pause(ctx context.Context) {
	_ = sleepCtx(ctx, s.delay)
}
