package scraper

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/use-agent/placerank/models"
)

var (
	reviewIDParamRe = regexp.MustCompile(`[?&]reviewId=([0-9A-Za-z_-]+)`)
	reviewIDPathRe  = regexp.MustCompile(`/review/([0-9A-Za-z_-]{8,})`)
	ratingRe        = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// reviewParser converts one review item into a result. An item without an
// ID yields a result with an empty ExternalReviewID and no error.
type reviewParser func(item *goquery.Selection, now time.Time) (models.ReviewResult, error)

// extractReviews parses at most limit items in document order. Items without
// an ID are dropped silently; items that fail to parse are skipped and
// logged, and the rest of the batch is kept.
func extractReviews(doc *goquery.Document, limit int, now time.Time, parse reviewParser, log zerolog.Logger) []models.ReviewResult {
	root, _ := reviewContainer.Find(doc.Selection)
	if root.Length() == 0 {
		root = doc.Selection
	}
	items, _ := reviewItem.Find(root)
	if items.Length() > limit {
		items = items.Slice(0, limit)
	}

	reviews := make([]models.ReviewResult, 0, items.Length())
	items.Each(func(i int, item *goquery.Selection) {
		r, err := safeParse(parse, item, now)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping unparseable review")
			return
		}
		if r.ExternalReviewID == "" {
			return
		}
		reviews = append(reviews, r)
	})
	return reviews
}

// safeParse turns a panic inside parse into an error for that item only.
func safeParse(parse reviewParser, item *goquery.Selection, now time.Time) (r models.ReviewResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("review parser panicked: %v", p)
		}
	}()
	return parse(item, now)
}

func parseReviewItem(item *goquery.Selection, now time.Time) (models.ReviewResult, error) {
	r := models.ReviewResult{ExternalReviewID: reviewID(item)}
	if r.ExternalReviewID == "" {
		return r, nil
	}

	badge, _ := reviewBadge.Text(item)
	if badge == "" {
		badge, _ = item.Attr("data-review-type")
	}
	r.ReviewType = classifyReview(badge)

	if text, ok := reviewContent.Text(item); ok {
		r.Content = &text
	}
	if text, ok := reviewAuthor.Text(item); ok {
		r.Author = &text
	}
	r.Rating = reviewRatingOf(item)

	dateText := ""
	if sel, _ := reviewDate.Find(item); sel.Length() > 0 {
		dateText = strings.TrimSpace(sel.First().Text())
		if dateText == "" {
			dateText, _ = sel.First().Attr("datetime")
		}
	}
	r.PublishedAt = ParsePublishedDate(dateText, now)
	return r, nil
}

// reviewID reads the review ID from item attributes, then from anchors.
func reviewID(item *goquery.Selection) string {
	if id := attrExtractor("data-review-id", "data-id")(item); id != "" {
		return id
	}
	var id string
	item.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if m := reviewIDParamRe.FindStringSubmatch(href); m != nil {
			id = m[1]
		} else if m := reviewIDPathRe.FindStringSubmatch(href); m != nil {
			id = m[1]
		}
		return id == ""
	})
	return id
}

func classifyReview(badge string) models.ReviewType {
	switch {
	case strings.Contains(badge, "블로그"):
		return models.ReviewTypeBlog
	case strings.Contains(badge, "방문자"),
		strings.Contains(badge, "영수증"),
		strings.Contains(badge, "예약"):
		return models.ReviewTypeVisitor
	default:
		return models.ReviewTypeOther
	}
}

// reviewRatingOf returns the 1-5 rating, or nil when absent or out of range.
func reviewRatingOf(item *goquery.Selection) *int {
	text, _ := item.Attr("data-rating")
	if text == "" {
		text, _ = reviewRating.Text(item)
	}
	m := ratingRe.FindString(text)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	v := int(math.Round(f))
	if v < 1 || v > 5 {
		return nil
	}
	return &v
}
