package engine

import (
	"context"

	"github.com/use-agent/placerank/models"
)

// Strategy is the interface that all extraction strategies must implement.
//
// Not finding a listing is a value (models.NotFound), never an error. An
// error means the strategy could not attempt extraction at all.
type Strategy interface {
	// Name returns the strategy identifier (e.g. "extract-api", "browser").
	Name() string

	// ScrapeRanking locates the target listing in the search results.
	ScrapeRanking(ctx context.Context, q models.RankQuery) (models.RankResult, error)

	// ScrapeReviews returns up to q.Limit recent reviews of a listing.
	ScrapeReviews(ctx context.Context, q models.ReviewQuery) ([]models.ReviewResult, error)

	// Close releases any resource the strategy owns.
	Close() error
}
