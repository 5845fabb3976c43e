package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/use-agent/placerank/logger"
	"github.com/use-agent/placerank/models"
)

// ContinuePolicy decides, after a strategy returned, whether the next
// strategy in line should be tried.
type ContinuePolicy func(res models.RankResult, err error) bool

// ContinueUnlessFound falls through on any error and on a miss. A miss from
// the extraction API is common and the browser may still find the listing.
func ContinueUnlessFound(res models.RankResult, err error) bool {
	return err != nil || !res.Found
}

// Option configures a Hybrid.
type Option func(*Hybrid)

// WithContinuePolicy replaces ContinueUnlessFound.
func WithContinuePolicy(p ContinuePolicy) Option {
	return func(h *Hybrid) { h.policy = p }
}

// WithLogger sets the logger used for strategy transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Hybrid) { h.log = l }
}

// Hybrid runs strategies in order and falls back to the next one according
// to its ContinuePolicy. It implements Strategy itself so callers do not
// care how many strategies sit behind it.
//
// Reviews are always served by the last strategy, which is the one able to
// read listing pages (the browser).
type Hybrid struct {
	strategies []Strategy
	policy     ContinuePolicy
	log        zerolog.Logger
}

// NewHybrid creates a Hybrid over strategies, tried in the given order.
// Strategies whose credentials are missing should simply be left out.
func NewHybrid(strategies []Strategy, opts ...Option) (*Hybrid, error) {
	if len(strategies) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeConfiguration, "hybrid: no strategies configured", nil)
	}
	h := &Hybrid{
		strategies: strategies,
		policy:     ContinueUnlessFound,
		log:        logger.For("hybrid"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Hybrid) Name() string { return "hybrid" }

// Strategies returns the names of the configured strategies in order.
func (h *Hybrid) Strategies() []string {
	names := make([]string, len(h.strategies))
	for i, s := range h.strategies {
		names[i] = s.Name()
	}
	return names
}

// ScrapeRanking tries each strategy until the policy says stop.
//
// When every strategy ran, the last successful result is returned even if
// it is a miss. An error surfaces only when no strategy produced a result.
func (h *Hybrid) ScrapeRanking(ctx context.Context, q models.RankQuery) (models.RankResult, error) {
	var (
		last    models.RankResult
		haveRes bool
		errs    []error
	)

	for i, s := range h.strategies {
		start := time.Now()
		res, err := s.ScrapeRanking(ctx, q)
		elapsed := time.Since(start)

		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			h.log.Warn().Err(err).
				Str("strategy", s.Name()).
				Str("keyword", q.SearchQuery()).
				Dur("elapsed", elapsed).
				Msg("strategy failed")
		} else {
			last, haveRes = res, true
			h.log.Info().
				Str("strategy", s.Name()).
				Str("keyword", q.SearchQuery()).
				Str("target", q.TargetListingID).
				Bool("found", res.Found).
				Dur("elapsed", elapsed).
				Msg("strategy finished")
		}

		if !h.policy(res, err) {
			return res, err
		}
		if i < len(h.strategies)-1 {
			h.log.Debug().
				Str("from", s.Name()).
				Str("to", h.strategies[i+1].Name()).
				Msg("falling back to next strategy")
		}
	}

	if haveRes {
		return last, nil
	}
	return models.NotFound(nil), errors.Join(errs...)
}

// ScrapeReviews delegates to the last strategy.
func (h *Hybrid) ScrapeReviews(ctx context.Context, q models.ReviewQuery) ([]models.ReviewResult, error) {
	s := h.strategies[len(h.strategies)-1]
	reviews, err := s.ScrapeReviews(ctx, q.Normalize())
	if err != nil {
		h.log.Warn().Err(err).
			Str("strategy", s.Name()).
			Str("listing", q.ListingID).
			Msg("review scrape failed")
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return reviews, nil
}

// Close closes every strategy and joins their errors.
func (h *Hybrid) Close() error {
	var errs []error
	for _, s := range h.strategies {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
