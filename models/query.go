package models

import "strings"

// DefaultReviewLimit is the number of reviews fetched when a query does not
// set one.
const DefaultReviewLimit = 10

// RankQuery asks for the position of one listing in the search results for
// a keyword.
type RankQuery struct {
	Keyword string

	// Region is appended to the keyword when non-empty.
	Region string

	TargetListingID string

	// TargetName enables a substring name match for strategies that return
	// names but no reliable identifiers.
	TargetName string
}

// SearchQuery returns the effective query string sent to the search engine.
func (q RankQuery) SearchQuery() string {
	kw := strings.TrimSpace(q.Keyword)
	if region := strings.TrimSpace(q.Region); region != "" {
		return kw + " " + region
	}
	return kw
}

// ReviewQuery asks for the most recent reviews of a listing.
type ReviewQuery struct {
	ListingID string
	Limit     int
}

// Normalize returns a copy with the default limit applied.
func (q ReviewQuery) Normalize() ReviewQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultReviewLimit
	}
	return q
}
