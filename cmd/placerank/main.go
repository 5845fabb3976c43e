package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/placerank/api"
	"github.com/use-agent/placerank/app"
	"github.com/use-agent/placerank/cache"
	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/logger"
	"github.com/use-agent/placerank/models"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logger.Init(cfg.Log, cfg.Scraper.Debug)
	log := logger.For("main")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Bool("extract_api", cfg.ExtractAPI.Enabled()).
		Msg("placerank starting")

	// ── 3. Build strategy chain (browser launches lazily) ───────────
	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise strategies")
	}

	// ── 4. Result caches, only when a TTL is configured ─────────────
	var (
		rankingCache *cache.Cache[models.RankingResponse]
		reviewsCache *cache.Cache[models.ReviewsResponse]
	)
	if cfg.Cache.TTL > 0 {
		rankingCache = cache.New[models.RankingResponse](cfg.Cache.MaxEntries, cfg.Cache.TTL)
		reviewsCache = cache.New[models.ReviewsResponse](cfg.Cache.MaxEntries, cfg.Cache.TTL)
		defer rankingCache.Close()
		defer reviewsCache.Close()
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(cfg, api.Deps{
		Hybrid:       a.Hybrid,
		Browser:      a.Browser,
		RankingCache: rankingCache,
		ReviewsCache: reviewsCache,
		StartTime:    time.Now(),
	})

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	// Scrapes take up to a minute with retries and the politeness delay.
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server forced shutdown")
	} else {
		log.Info().Msg("HTTP server drained gracefully")
	}

	if err := a.Close(); err != nil {
		log.Error().Err(err).Msg("strategy shutdown failed")
	}
	log.Info().Msg("placerank stopped")
}
