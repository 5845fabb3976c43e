// Package app wires configuration into a ready-to-use strategy chain. It is
// shared by the HTTP server and the MCP server.
package app

import (
	"errors"

	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/engine"
	"github.com/use-agent/placerank/extractapi"
	"github.com/use-agent/placerank/logger"
	"github.com/use-agent/placerank/scraper"
)

// App owns the strategy chain and the shared browser.
type App struct {
	Hybrid  *engine.Hybrid
	Browser *scraper.Browser
}

// New builds the chain: the extraction API first when its key is set, the
// browser strategy always last. The browser is not launched until the first
// scrape.
func New(cfg *config.Config) (*App, error) {
	log := logger.For("app")
	browser := scraper.NewBrowser(cfg.Browser)

	var strategies []engine.Strategy
	if cfg.ExtractAPI.Enabled() {
		api, err := extractapi.NewStrategy(cfg.ExtractAPI, cfg.Scraper)
		if err != nil {
			_ = browser.Release()
			return nil, err
		}
		strategies = append(strategies, api)
	} else {
		log.Info().Msg("extraction API key not set, using browser strategy only")
	}
	strategies = append(strategies, scraper.NewBrowserStrategy(browser, cfg.Browser, cfg.Scraper))

	hybrid, err := engine.NewHybrid(strategies)
	if err != nil {
		_ = browser.Release()
		return nil, err
	}
	log.Info().Strs("strategies", hybrid.Strategies()).Msg("strategy chain ready")
	return &App{Hybrid: hybrid, Browser: browser}, nil
}

// Close closes every strategy, then drops the creator's browser reference,
// which kills Chromium.
func (a *App) Close() error {
	return errors.Join(a.Hybrid.Close(), a.Browser.Release())
}
