package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/use-agent/placerank/models"
)

const (
	navigationRetries = 2
	navigationBackoff = time.Second
)

// withRetry runs fn once plus up to retries more times. Before attempt n+1
// it waits n*backoff. Errors that are not retryable end the loop at once.
// The last error is returned.
func withRetry(ctx context.Context, retries int, backoff time.Duration, fn func(attempt int) error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if serr := sleepCtx(ctx, time.Duration(attempt)*backoff); serr != nil {
				return err
			}
		}
		if err = fn(attempt); err == nil {
			return nil
		}
		var se *models.ScrapeError
		if errors.As(err, &se) && !se.Retryable() {
			return err
		}
	}
	return err
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
