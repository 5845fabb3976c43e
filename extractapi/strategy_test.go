package extractapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/models"
)

func intPtr(v int) *int { return &v }

// newTestServer serves status and body for POST /scrape and records the last
// request body.
func newTestServer(t *testing.T, status int, body string, got *ScrapeRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if got != nil {
			raw, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.NoError(t, json.Unmarshal(raw, got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestStrategy(t *testing.T, srv *httptest.Server) *Strategy {
	t.Helper()
	s, err := NewStrategy(config.ExtractAPIConfig{
		APIKey:   "fc-test",
		Endpoint: srv.URL + "/v1/",
		WaitFor:  3000,
	}, config.Load().Scraper)
	require.NoError(t, err)
	return s
}

const placesBody = `{
  "success": true,
  "data": {
    "extract": {
      "places": [
        {"rank": 1, "name": "스타벅스 강남점", "listingId": "1001"},
        {"rank": 2, "name": "블루보틀 역삼", "listingId": 1002},
        {"rank": 0, "name": "카페 노티드 강남", "listingId": ""}
      ],
      "total_results": 57
    }
  }
}`

func TestNewStrategy_MissingKey(t *testing.T) {
	_, err := NewStrategy(config.ExtractAPIConfig{Endpoint: "https://api.firecrawl.dev/v1"}, config.Load().Scraper)

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeConfiguration, se.Code)
}

func TestStrategy_ScrapeRankingByID(t *testing.T) {
	var got ScrapeRequest
	srv := newTestServer(t, http.StatusOK, placesBody, &got)
	s := newTestStrategy(t, srv)

	res, err := s.ScrapeRanking(context.Background(), models.RankQuery{
		Keyword:         "카페",
		Region:          "강남",
		TargetListingID: "1002",
	})

	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 2, *res.Rank)
	assert.Equal(t, 57, *res.SearchResultCount)

	assert.Equal(t, config.Load().Scraper.SearchPageURL("카페 강남"), got.URL)
	assert.Equal(t, []string{"extract"}, got.Formats)
	assert.Equal(t, 3000, got.WaitFor)
	assert.NotEmpty(t, got.Extract.Prompt)
	assert.True(t, json.Valid(got.Extract.Schema))
}

func TestStrategy_ScrapeRankingByNameUsesPosition(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, placesBody, nil)
	s := newTestStrategy(t, srv)

	res, err := s.ScrapeRanking(context.Background(), models.RankQuery{
		Keyword:         "카페",
		TargetListingID: "9999",
		TargetName:      "노티드",
	})

	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 3, *res.Rank, "rank 0 falls back to the array position")
}

func TestStrategy_ScrapeRankingMiss(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, placesBody, nil)
	s := newTestStrategy(t, srv)

	res, err := s.ScrapeRanking(context.Background(), models.RankQuery{Keyword: "카페", TargetListingID: "9999"})

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Nil(t, res.Rank)
	assert.Equal(t, intPtr(57), res.SearchResultCount)
}

func TestStrategy_FailuresBecomeNotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, `{"error":"upstream"}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid key"}`},
		{"malformed json", http.StatusOK, `{"success": tru`},
		{"unsuccessful", http.StatusOK, `{"success": false, "error": "blocked"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body, nil)
			s := newTestStrategy(t, srv)

			res, err := s.ScrapeRanking(context.Background(), models.RankQuery{Keyword: "카페", TargetListingID: "1001"})

			require.NoError(t, err)
			assert.Equal(t, models.NotFound(nil), res)
		})
	}
}

func TestStrategy_ScrapeReviewsEmpty(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, placesBody, nil)
	s := newTestStrategy(t, srv)

	reviews, err := s.ScrapeReviews(context.Background(), models.ReviewQuery{ListingID: "1001"})

	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
	assert.NoError(t, s.Close())
	assert.Equal(t, "extract-api", s.Name())
}

func TestClient_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, models.ErrCodeExtractAuthFailure},
		{http.StatusForbidden, models.ErrCodeExtractAuthFailure},
		{http.StatusTooManyRequests, models.ErrCodeExtractRateLimited},
		{http.StatusInternalServerError, models.ErrCodeExtractFailure},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newTestServer(t, tt.status, `{"error":"nope"}`, nil)
			c, err := NewClient(config.ExtractAPIConfig{APIKey: "fc-test", Endpoint: srv.URL + "/v1"}, nil)
			require.NoError(t, err)

			_, err = c.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com"})

			var se *models.ScrapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.Code)
		})
	}
}

func TestMatchPlace(t *testing.T) {
	list := PlaceList{Places: []Place{
		{Rank: 4, Name: "Alpha Coffee", ListingID: "1"},
		{Rank: 5, Name: "Beta Roasters", ListingID: "2"},
	}}

	byID := matchPlace(list, models.RankQuery{TargetListingID: "2", TargetName: "Alpha"})
	require.True(t, byID.Found)
	assert.Equal(t, 5, *byID.Rank, "ID match wins over name match")

	byName := matchPlace(list, models.RankQuery{TargetListingID: "3", TargetName: "alpha  coffee"})
	require.True(t, byName.Found)
	assert.Equal(t, 4, *byName.Rank)

	miss := matchPlace(list, models.RankQuery{TargetListingID: "3"})
	assert.False(t, miss.Found)
}

func TestMatchPlace_ShorterNameDoesNotShadowTarget(t *testing.T) {
	list := PlaceList{Places: []Place{
		{Rank: 1, Name: "스타벅스"},
		{Rank: 2, Name: "스타벅스 강남점"},
		{Rank: 3, Name: "스타벅스 강남점 2호"},
	}}

	exact := matchPlace(list, models.RankQuery{TargetName: "스타벅스 강남점"})
	require.True(t, exact.Found)
	assert.Equal(t, 2, *exact.Rank, "exact name wins over earlier partial names")

	partial := matchPlace(list, models.RankQuery{TargetName: "강남점 2"})
	require.True(t, partial.Found)
	assert.Equal(t, 3, *partial.Rank)

	longer := matchPlace(list, models.RankQuery{TargetName: "스타벅스 강남점 3호"})
	assert.False(t, longer.Found, "a place name inside the target is not a match")
}

func TestStrategy_ScrapeRankingWithoutSuccessField(t *testing.T) {
	body := `{"data":{"extract":{"places":[{"rank":1,"name":"A","listingId":"123"}],"total_results":5}}}`
	srv := newTestServer(t, http.StatusOK, body, nil)
	s := newTestStrategy(t, srv)

	res, err := s.ScrapeRanking(context.Background(), models.RankQuery{Keyword: "카페", TargetListingID: "123"})

	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 1, *res.Rank)
	assert.Equal(t, intPtr(5), res.SearchResultCount)
}
