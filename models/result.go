package models

import "time"

// RankResult is the outcome of a ranking scrape. A listing that does not
// appear in the observed results is a valid outcome, not an error.
//
// Use FoundAt and NotFound to build values so Found always mirrors Rank.
type RankResult struct {
	// Rank is the 1-based position of the listing, nil when not found.
	Rank *int `json:"rank"`

	// SearchResultCount is the total result count shown by the engine.
	SearchResultCount *int `json:"search_result_count"`

	Found bool `json:"found"`
}

// FoundAt returns a result for a listing located at rank.
func FoundAt(rank int, count *int) RankResult {
	return RankResult{Rank: &rank, SearchResultCount: count, Found: true}
}

// NotFound returns a result for a listing absent from the results.
func NotFound(count *int) RankResult {
	return RankResult{SearchResultCount: count}
}

// ReviewType classifies where a review came from.
type ReviewType string

const (
	ReviewTypeBlog    ReviewType = "BLOG"
	ReviewTypeVisitor ReviewType = "VISITOR"
	ReviewTypeOther   ReviewType = "OTHER"
)

// ReviewResult is one review extracted from a listing page.
type ReviewResult struct {
	// ExternalReviewID is always non-empty; items without one are dropped
	// because they cannot be deduplicated downstream.
	ExternalReviewID string     `json:"external_review_id"`
	ReviewType       ReviewType `json:"review_type"`
	Content          *string    `json:"content,omitempty"`

	// Rating is between 1 and 5 when present.
	Rating *int    `json:"rating,omitempty"`
	Author *string `json:"author,omitempty"`

	// PublishedAt holds the publish date at midnight, local to the scraper.
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
