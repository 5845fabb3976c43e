package scraper

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/placerank/models"
)

var reviewNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type reviewFixture struct {
	id     string
	badge  string
	body   string
	rating string
	author string
	date   string
}

func reviewPage(items []reviewFixture) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul id="_review_list">`)
	for _, it := range items {
		if it.id != "" {
			fmt.Fprintf(&b, `<li class="pui__X35jYm" data-review-id="%s">`, it.id)
		} else {
			b.WriteString(`<li class="pui__X35jYm">`)
		}
		fmt.Fprintf(&b, `<span class="review_badge">%s</span>`, it.badge)
		fmt.Fprintf(&b, `<div class="review_content">%s</div>`, it.body)
		fmt.Fprintf(&b, `<span class="review_rating">%s</span>`, it.rating)
		fmt.Fprintf(&b, `<span class="nickname">%s</span>`, it.author)
		fmt.Fprintf(&b, `<span class="review_date">%s</span>`, it.date)
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func tenReviews() []reviewFixture {
	items := make([]reviewFixture, 10)
	for i := range items {
		items[i] = reviewFixture{
			id:     fmt.Sprintf("rv-%02d", i+1),
			badge:  "방문자 리뷰",
			body:   fmt.Sprintf("좋아요 %d", i+1),
			rating: "5",
			author: fmt.Sprintf("user%d", i+1),
			date:   "2024.03.01",
		}
	}
	return items
}

func TestExtractReviews_SkipsFailingItem(t *testing.T) {
	doc := mustDoc(t, reviewPage(tenReviews()))
	parse := func(item *goquery.Selection, now time.Time) (models.ReviewResult, error) {
		if id, _ := item.Attr("data-review-id"); id == "rv-04" {
			return models.ReviewResult{}, errors.New("content markup changed")
		}
		return parseReviewItem(item, now)
	}

	reviews := extractReviews(doc, 10, reviewNow, parse, zerolog.Nop())

	require.Len(t, reviews, 9)
	for _, r := range reviews {
		assert.NotEqual(t, "rv-04", r.ExternalReviewID)
		assert.NotEmpty(t, r.ExternalReviewID)
	}
	assert.Equal(t, "rv-05", reviews[3].ExternalReviewID, "document order is kept")
}

func TestExtractReviews_RecoversPanic(t *testing.T) {
	doc := mustDoc(t, reviewPage(tenReviews()[:3]))
	calls := 0
	parse := func(item *goquery.Selection, now time.Time) (models.ReviewResult, error) {
		calls++
		if calls == 2 {
			panic("boom")
		}
		return parseReviewItem(item, now)
	}

	reviews := extractReviews(doc, 10, reviewNow, parse, zerolog.Nop())

	require.Len(t, reviews, 2)
	assert.Equal(t, "rv-01", reviews[0].ExternalReviewID)
	assert.Equal(t, "rv-03", reviews[1].ExternalReviewID)
}

func TestExtractReviews_ParserErrorSkipsOnlyThatItem(t *testing.T) {
	doc := mustDoc(t, reviewPage(tenReviews()[:2]))
	parse := func(item *goquery.Selection, now time.Time) (models.ReviewResult, error) {
		if id, _ := item.Attr("data-review-id"); id == "rv-01" {
			return models.ReviewResult{}, errors.New("bad markup")
		}
		return parseReviewItem(item, now)
	}

	reviews := extractReviews(doc, 10, reviewNow, parse, zerolog.Nop())

	require.Len(t, reviews, 1)
	assert.Equal(t, "rv-02", reviews[0].ExternalReviewID)
}

func TestExtractReviews_DropsItemsWithoutID(t *testing.T) {
	items := tenReviews()[:3]
	items[1].id = ""
	doc := mustDoc(t, reviewPage(items))

	reviews := extractReviews(doc, 10, reviewNow, parseReviewItem, zerolog.Nop())

	require.Len(t, reviews, 2)
	assert.Equal(t, "rv-01", reviews[0].ExternalReviewID)
	assert.Equal(t, "rv-03", reviews[1].ExternalReviewID)
}

func TestExtractReviews_LimitCapsExaminedItems(t *testing.T) {
	items := tenReviews()
	items[0].id = ""
	doc := mustDoc(t, reviewPage(items))

	reviews := extractReviews(doc, 3, reviewNow, parseReviewItem, zerolog.Nop())

	// Only the first three items are examined; the dropped one is not replaced.
	require.Len(t, reviews, 2)
	assert.Equal(t, "rv-02", reviews[0].ExternalReviewID)
	assert.Equal(t, "rv-03", reviews[1].ExternalReviewID)
}

func TestExtractReviews_EmptyPage(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>리뷰가 없습니다</p></body></html>`)
	reviews := extractReviews(doc, 10, reviewNow, parseReviewItem, zerolog.Nop())
	assert.Empty(t, reviews)
	assert.NotNil(t, reviews)
}

func TestParseReviewItem_Fields(t *testing.T) {
	doc := mustDoc(t, reviewPage([]reviewFixture{{
		id:     "abc123",
		badge:  "블로그 리뷰",
		body:   "  분위기 최고  ",
		rating: "4.6",
		author: "맛집탐방",
		date:   "3일 전",
	}}))

	r, err := parseReviewItem(doc.Find("li").First(), reviewNow)

	require.NoError(t, err)
	assert.Equal(t, "abc123", r.ExternalReviewID)
	assert.Equal(t, models.ReviewTypeBlog, r.ReviewType)
	require.NotNil(t, r.Content)
	assert.Equal(t, "분위기 최고", *r.Content)
	require.NotNil(t, r.Rating)
	assert.Equal(t, 5, *r.Rating)
	require.NotNil(t, r.Author)
	assert.Equal(t, "맛집탐방", *r.Author)
	require.NotNil(t, r.PublishedAt)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), *r.PublishedAt)
}

func TestExtractReviews_UnparseableDateKeepsReview(t *testing.T) {
	items := tenReviews()[:1]
	items[0].date = "99999999999999999999일 전"
	doc := mustDoc(t, reviewPage(items))

	reviews := extractReviews(doc, 10, reviewNow, parseReviewItem, zerolog.Nop())

	require.Len(t, reviews, 1)
	assert.Equal(t, "rv-01", reviews[0].ExternalReviewID)
	assert.Nil(t, reviews[0].PublishedAt)
	require.NotNil(t, reviews[0].Content)
}

func TestParseReviewItem_OptionalFieldsAbsent(t *testing.T) {
	doc := mustDoc(t, `<ul><li data-review-id="only-id"></li></ul>`)

	r, err := parseReviewItem(doc.Find("li").First(), reviewNow)

	require.NoError(t, err)
	assert.Equal(t, "only-id", r.ExternalReviewID)
	assert.Equal(t, models.ReviewTypeOther, r.ReviewType)
	assert.Nil(t, r.Content)
	assert.Nil(t, r.Rating)
	assert.Nil(t, r.Author)
	assert.Nil(t, r.PublishedAt)
}

func TestReviewID(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"data-review-id", `<li data-review-id="r1" data-id="r2"></li>`, "r1"},
		{"data-id", `<li data-id="r2"></li>`, "r2"},
		{"query parameter", `<li><a href="/my/review?reviewId=65f0a1b2c3">more</a></li>`, "65f0a1b2c3"},
		{"path segment", `<li><a href="https://m.place.naver.com/my/review/65f0a1b2c3d4e5">x</a></li>`, "65f0a1b2c3d4e5"},
		{"short path ignored", `<li><a href="/review/abc">x</a></li>`, ""},
		{"none", `<li><p>text</p></li>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, `<ul>`+tt.html+`</ul>`)
			assert.Equal(t, tt.want, reviewID(doc.Find("li").First()))
		})
	}
}

func TestClassifyReview(t *testing.T) {
	tests := []struct {
		badge string
		want  models.ReviewType
	}{
		{"블로그 리뷰", models.ReviewTypeBlog},
		{"방문자 리뷰", models.ReviewTypeVisitor},
		{"영수증 인증", models.ReviewTypeVisitor},
		{"예약 후 방문", models.ReviewTypeVisitor},
		{"", models.ReviewTypeOther},
		{"사진", models.ReviewTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.badge, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyReview(tt.badge))
		})
	}
}

func TestReviewRatingOf(t *testing.T) {
	tests := []struct {
		name string
		html string
		want *int
	}{
		{"integer", `<li><span class="review_rating">3</span></li>`, intPtr(3)},
		{"rounded", `<li><span class="review_rating">별점 4.5점</span></li>`, intPtr(5)},
		{"attribute", `<li data-rating="2"></li>`, intPtr(2)},
		{"zero is out of range", `<li><span class="review_rating">0</span></li>`, nil},
		{"six is out of range", `<li><span class="review_rating">6</span></li>`, nil},
		{"no number", `<li><span class="review_rating">-</span></li>`, nil},
		{"absent", `<li></li>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, `<ul>`+tt.html+`</ul>`)
			assert.Equal(t, tt.want, reviewRatingOf(doc.Find("li").First()))
		})
	}
}
