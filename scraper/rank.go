package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/placerank/models"
)

var (
	placePathRe = regexp.MustCompile(`/place/(\d+)`)
	idParamRe   = regexp.MustCompile(`[?&]id=(\d+)`)
	digitsRe    = regexp.MustCompile(`\d+`)
)

// listingIDExtractor returns the listing ID carried by a result item, or "".
type listingIDExtractor func(item *goquery.Selection) string

// listingIDExtractors are tried in priority order.
var listingIDExtractors = []listingIDExtractor{
	attrExtractor("data-id"),
	attrExtractor("data-place-id", "data-cid"),
	hrefExtractor(placePathRe),
	hrefExtractor(idParamRe),
	nestedIDExtractor,
}

func attrExtractor(names ...string) listingIDExtractor {
	return func(item *goquery.Selection) string {
		for _, name := range names {
			if v, ok := item.Attr(name); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
		return ""
	}
}

func hrefExtractor(re *regexp.Regexp) listingIDExtractor {
	return func(item *goquery.Selection) string {
		var id string
		item.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if m := re.FindStringSubmatch(href); m != nil {
				id = m[1]
				return false
			}
			return true
		})
		return id
	}
}

func nestedIDExtractor(item *goquery.Selection) string {
	holders, _ := nestedIDHolder.Find(item)
	var id string
	holders.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id = attrExtractor("data-id", "data-place-id", "data-cid")(s)
		return id == ""
	})
	return id
}

// itemListingID returns the first listing ID found on item.
func itemListingID(item *goquery.Selection) string {
	for _, extract := range listingIDExtractors {
		if id := extract(item); id != "" {
			return id
		}
	}
	return ""
}

// resultItems returns the search result items in document order. When no
// known container matches, the whole document is searched.
func resultItems(doc *goquery.Document) *goquery.Selection {
	root, _ := resultContainer.Find(doc.Selection)
	if root.Length() == 0 {
		root = doc.Selection
	}
	items, _ := resultItem.Find(root)
	return items
}

// findRank locates targetID among the search results. It also returns the
// number of items examined.
func findRank(doc *goquery.Document, targetID string) (models.RankResult, int) {
	items := resultItems(doc)
	n := items.Length()
	if n == 0 {
		return models.NotFound(nil), 0
	}

	count := parseResultCount(doc)
	rank := 0
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		if itemListingID(item) == targetID {
			rank = i + 1
			return false
		}
		return true
	})
	if rank == 0 {
		return models.NotFound(count), n
	}
	return models.FoundAt(rank, count), n
}

// parseResultCount reads the total result label, e.g. "1,234", or returns
// nil when no label is present.
func parseResultCount(doc *goquery.Document) *int {
	text, ok := resultCount.Text(doc.Selection)
	if !ok {
		return nil
	}
	digits := digitsRe.FindString(strings.ReplaceAll(text, ",", ""))
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}
