package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placerank/cache"
	"github.com/use-agent/placerank/engine"
	"github.com/use-agent/placerank/models"
)

// Ranking returns a handler for POST /api/v1/ranking.
//
//  1. Bind and validate the request.
//  2. Serve from cache when max_age allows it.
//  3. Run the strategy chain and respond.
//
// A listing that is not found is a 200 with found=false.
func Ranking(s engine.Strategy, cc *cache.Cache[models.RankingResponse]) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.RankingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
		q := req.ToQuery()
		cacheKey := cache.Key("ranking", q.SearchQuery(), q.TargetListingID, q.TargetName)

		if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
			cached.CacheStatus = "hit"
			cached.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
			c.JSON(http.StatusOK, cached)
			return
		}

		scrapeStart := time.Now()
		res, err := s.ScrapeRanking(c.Request.Context(), q)
		scrapeMs := time.Since(scrapeStart).Milliseconds()
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			})
			return
		}

		resp := models.RankingResponse{
			Success:         true,
			Keyword:         q.SearchQuery(),
			TargetListingID: q.TargetListingID,
			Result:          &res,
			Timing: models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			},
		}
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, resp)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}
