package scraper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/rs/zerolog"
	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/logger"
	"github.com/use-agent/placerank/models"
)

var errBrowserClosed = errors.New("browser handle released")

// launchAttempt is shared by every caller that arrives while a launch is in
// flight. done is closed once browser/err are set.
type launchAttempt struct {
	done    chan struct{}
	browser *rod.Browser
	err     error
}

// Browser is a reference-counted handle around one Chromium process.
//
// The process is launched lazily by the first Get and killed when the last
// reference is released. It is safe for concurrent use.
type Browser struct {
	cfg     config.BrowserConfig
	launch  func(config.BrowserConfig) (*rod.Browser, error)
	closeFn func(*rod.Browser) error
	log     zerolog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	inflight *launchAttempt
	refs     int
	closed   bool

	activePages atomic.Int32
}

// NewBrowser creates a handle holding one reference. Nothing is launched
// until the first Get.
func NewBrowser(cfg config.BrowserConfig) *Browser {
	return &Browser{
		cfg:     cfg,
		launch:  launchChromium,
		closeFn: func(b *rod.Browser) error { return b.Close() },
		log:     logger.For("browser"),
		refs:    1,
	}
}

// Get returns the running browser, launching it if needed. Callers arriving
// during a launch wait for that launch instead of starting another one.
func (b *Browser) Get(ctx context.Context) (*rod.Browser, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "browser is shut down", errBrowserClosed)
	}
	if b.browser != nil {
		br := b.browser
		b.mu.Unlock()
		return br, nil
	}
	attempt := b.inflight
	owner := attempt == nil
	if owner {
		attempt = &launchAttempt{done: make(chan struct{})}
		b.inflight = attempt
	}
	b.mu.Unlock()

	if owner {
		b.runLaunch(attempt)
	}

	select {
	case <-attempt.done:
	case <-ctx.Done():
		return nil, categorizeError(ctx.Err(), "waiting for browser launch")
	}
	if attempt.err != nil {
		return nil, attempt.err
	}
	return attempt.browser, nil
}

// runLaunch performs the launch without holding the lock and publishes the
// outcome to every waiter.
func (b *Browser) runLaunch(attempt *launchAttempt) {
	br, err := b.launch(b.cfg)

	b.mu.Lock()
	b.inflight = nil
	switch {
	case err != nil:
		attempt.err = models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
		b.log.Error().Err(err).Msg("browser launch failed")
	case b.closed:
		// Released while launching; nobody owns this process.
		attempt.err = models.NewScrapeError(models.ErrCodeBrowserCrash, "browser is shut down", errBrowserClosed)
		if cerr := b.closeFn(br); cerr != nil {
			b.log.Warn().Err(cerr).Msg("closing late browser failed")
		}
	default:
		b.browser = br
		attempt.browser = br
		b.log.Info().Bool("headless", b.cfg.Headless).Msg("browser launched")
	}
	b.mu.Unlock()
	close(attempt.done)
}

// Retain adds a reference.
func (b *Browser) Retain() {
	b.mu.Lock()
	b.refs++
	b.mu.Unlock()
}

// Release drops a reference and closes the process when none remain.
func (b *Browser) Release() error {
	b.mu.Lock()
	if b.refs == 0 {
		b.mu.Unlock()
		return nil
	}
	b.refs--
	if b.refs > 0 {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	br := b.browser
	b.browser = nil
	b.mu.Unlock()

	if br == nil {
		return nil
	}
	b.log.Info().Msg("closing browser")
	return b.closeFn(br)
}

// Discard forgets br so the next Get launches a fresh process. It is called
// after the connection to br was lost.
func (b *Browser) Discard(br *rod.Browser) {
	b.mu.Lock()
	if b.browser != br || br == nil {
		b.mu.Unlock()
		return
	}
	b.browser = nil
	b.mu.Unlock()

	b.log.Warn().Msg("discarding crashed browser")
	_ = b.closeFn(br)
}

// Stats returns a snapshot for the health endpoint.
func (b *Browser) Stats() models.BrowserStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.BrowserStats{
		Launched:    b.browser != nil,
		Refs:        b.refs,
		ActivePages: int(b.activePages.Load()),
	}
}

// launchChromium starts a local Chromium with anti-automation flags and
// connects to it.
func launchChromium(cfg config.BrowserConfig) (*rod.Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("lang"), "ko-KR")
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, err
	}
	return browser, nil
}
