package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/placerank/cache"
	"github.com/use-agent/placerank/engine"
	"github.com/use-agent/placerank/models"
)

// Reviews returns a handler for POST /api/v1/reviews.
func Reviews(s engine.Strategy, cc *cache.Cache[models.ReviewsResponse]) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ReviewsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, err)
			return
		}
		q := req.ToQuery()
		cacheKey := cache.Key("reviews", q.ListingID, strconv.Itoa(q.Limit))

		if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
			cached.CacheStatus = "hit"
			cached.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
			c.JSON(http.StatusOK, cached)
			return
		}

		scrapeStart := time.Now()
		reviews, err := s.ScrapeReviews(c.Request.Context(), q)
		scrapeMs := time.Since(scrapeStart).Milliseconds()
		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: scrapeMs,
			})
			return
		}
		if reviews == nil {
			reviews = []models.ReviewResult{}
		}

		resp := models.ReviewsResponse{
			Success:   true,
			ListingID: q.ListingID,
			Reviews:   reviews,
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
