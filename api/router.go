package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placerank/api/handler"
	"github.com/use-agent/placerank/api/middleware"
	"github.com/use-agent/placerank/cache"
	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/engine"
	"github.com/use-agent/placerank/models"
)

// Deps are the collaborators the HTTP surface calls into.
type Deps struct {
	Hybrid       *engine.Hybrid
	Browser      handler.BrowserStatser
	RankingCache *cache.Cache[models.RankingResponse]
	ReviewsCache *cache.Cache[models.ReviewsResponse]
	StartTime    time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Scrape:  RateLimit
//
// Health sits outside the rate limit so monitoring probes always work.
func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(d.Hybrid.Strategies(), d.Browser, d.StartTime))

	limited := v1.Group("")
	limited.Use(middleware.RateLimit(cfg.RateLimit))
	limited.POST("/ranking", handler.Ranking(d.Hybrid, d.RankingCache))
	limited.POST("/reviews", handler.Reviews(d.Hybrid, d.ReviewsCache))

	return r
}
