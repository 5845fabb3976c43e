package models

// RankingRequest is the payload for POST /api/v1/ranking.
type RankingRequest struct {
	// Keyword is the search keyword. Required.
	Keyword string `json:"keyword" binding:"required"`

	// Region is appended to the keyword when set (e.g. "강남").
	Region string `json:"region,omitempty"`

	// TargetListingID is the place identifier to locate. Required.
	TargetListingID string `json:"target_listing_id" binding:"required,numeric"`

	// TargetName enables name matching for the extraction API strategy.
	TargetName string `json:"target_name,omitempty"`

	// MaxAge allows a cached result younger than this many milliseconds.
	// Default: 0 (always scrape).
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// ToQuery converts the request into a RankQuery.
func (r *RankingRequest) ToQuery() RankQuery {
	return RankQuery{
		Keyword:         r.Keyword,
		Region:          r.Region,
		TargetListingID: r.TargetListingID,
		TargetName:      r.TargetName,
	}
}

// ReviewsRequest is the payload for POST /api/v1/reviews.
type ReviewsRequest struct {
	// ListingID is the place identifier. Required.
	ListingID string `json:"listing_id" binding:"required,numeric"`

	// Limit caps the number of reviews. Default: 10. Max: 100.
	Limit int `json:"limit,omitempty" binding:"omitempty,min=1,max=100"`

	// MaxAge allows a cached result younger than this many milliseconds.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// ToQuery converts the request into a normalized ReviewQuery.
func (r *ReviewsRequest) ToQuery() ReviewQuery {
	return ReviewQuery{ListingID: r.ListingID, Limit: r.Limit}.Normalize()
}
