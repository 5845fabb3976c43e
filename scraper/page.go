package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/models"
	"github.com/ysmood/gson"
)

const (
	idleWindow      = 500 * time.Millisecond
	domStableWindow = 300 * time.Millisecond
	defaultReferer  = "https://m.place.naver.com/"
	probeTimeout    = 2 * time.Second
)

// renderer loads a URL and returns the rendered HTML.
type renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// rodRenderer renders pages in a fresh tab of the shared browser.
type rodRenderer struct {
	browser    *Browser
	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig
	backoff    time.Duration
	alive      func(*rod.Browser) bool
	log        zerolog.Logger
}

// Render opens a tab, navigates to url with retries and returns the page
// HTML. The tab is always closed before returning.
//
// Order matters: stealth, headers and resource blocking only apply to
// navigations that start after they are installed, and the idle waiter must
// be registered before Navigate or it misses in-flight requests.
func (r *rodRenderer) Render(ctx context.Context, url string) (string, error) {
	br, err := r.browser.Get(ctx)
	if err != nil {
		return "", err
	}

	page, err := br.Page(proto.TargetCreateTarget{})
	if err != nil {
		r.browser.Discard(br)
		return "", models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open tab", err)
	}
	r.browser.activePages.Add(1)
	defer func() {
		r.browser.activePages.Add(-1)
		if cerr := page.Close(); cerr != nil {
			r.log.Debug().Err(cerr).Msg("closing tab failed")
		}
	}()

	if r.browserCfg.Stealth {
		if _, serr := page.EvalOnNewDocument(stealth.JS); serr != nil {
			r.log.Warn().Err(serr).Msg("stealth injection failed, proceeding without stealth")
		}
	}

	if herr := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "ko-KR,ko;q=0.9,en-US;q=0.8",
			"Referer":         defaultReferer,
		}),
	}).Call(page); herr != nil {
		r.log.Debug().Err(herr).Msg("setting extra headers failed, proceeding with defaults")
	}

	router := setupHijack(page, r.scraperCfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	err = withRetry(ctx, navigationRetries, r.backoff, func(attempt int) error {
		nerr := r.navigate(ctx, page, url, router != nil)
		if nerr != nil {
			r.log.Warn().Err(nerr).
				Str("url", url).
				Int("attempt", attempt+1).
				Msg("navigation failed")
			nerr = connectionLost(nerr, func() bool { return r.alive(br) })
		}
		return nerr
	})
	if err != nil {
		if isBrowserCrash(err) {
			r.browser.Discard(br)
		}
		return "", err
	}

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to read page HTML")
	}
	return html, nil
}

// navigate runs one navigation attempt bounded by the navigation timeout.
// A wait that does not converge in time is not an error.
func (r *rodRenderer) navigate(ctx context.Context, page *rod.Page, url string, hijacked bool) error {
	p := page.Context(ctx).Timeout(r.scraperCfg.NavigationTimeout)
	defer p.CancelTimeout()

	// WaitRequestIdle uses the Fetch domain, which conflicts with the hijack
	// router, so the DOM-stable wait is used whenever blocking is active.
	var waitIdle func()
	if !hijacked {
		waitIdle = p.WaitRequestIdle(idleWindow, nil, nil, nil)
	}

	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}

	if waitIdle != nil {
		waitIdle()
	} else if err := p.WaitDOMStable(domStableWindow, 0.1); err != nil {
		r.log.Debug().Err(err).Msg("DOM did not settle, proceeding with current DOM")
	}
	return nil
}

// connectionLost turns a navigation error into a browser crash when the
// browser no longer answers. Crashes are not retried. Timeouts are returned
// unchanged without probing.
func connectionLost(err error, alive func() bool) error {
	var se *models.ScrapeError
	if errors.As(err, &se) && se.Code == models.ErrCodeTimeout {
		return err
	}
	if alive() {
		return err
	}
	return models.NewScrapeError(models.ErrCodeBrowserCrash, "browser connection lost", err)
}

func isBrowserCrash(err error) bool {
	var se *models.ScrapeError
	return errors.As(err, &se) && se.Code == models.ErrCodeBrowserCrash
}

// browserAlive asks the browser for its version over CDP.
func browserAlive(br *rod.Browser) bool {
	b := br.Timeout(probeTimeout)
	defer b.CancelTimeout()
	_, err := proto.BrowserGetVersion{}.Call(b)
	return err == nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// tell timeouts from navigation failures.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
