package models

// RankingResponse is the response for POST /api/v1/ranking.
type RankingResponse struct {
	// Success indicates whether the scrape completed without errors.
	// A listing that was not found is still a success.
	Success bool `json:"success"`

	Keyword         string      `json:"keyword"`
	TargetListingID string      `json:"target_listing_id"`
	Result          *RankResult `json:"result,omitempty"`

	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// ReviewsResponse is the response for POST /api/v1/reviews.
type ReviewsResponse struct {
	Success     bool           `json:"success"`
	ListingID   string         `json:"listing_id"`
	Reviews     []ReviewResult `json:"reviews"`
	Timing      TimingInfo     `json:"timing"`
	CacheStatus string         `json:"cache_status,omitempty"`
	Error       *ErrorDetail   `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent serving a request.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// ScrapeMs is the time spent inside the extraction strategies.
	ScrapeMs int64 `json:"scrape_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string       `json:"status"` // "healthy" or "degraded"
	Uptime     string       `json:"uptime"`
	Strategies []string     `json:"strategies"`
	Browser    BrowserStats `json:"browser"`
	Version    string       `json:"version"`
}

// BrowserStats reports the state of the shared browser process.
type BrowserStats struct {
	Launched    bool `json:"launched"`
	Refs        int  `json:"refs"`
	ActivePages int  `json:"active_pages"`
}
