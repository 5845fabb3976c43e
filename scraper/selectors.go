package scraper

import "github.com/PuerkitoBio/goquery"

// Selector cascades for the mobile place pages. Class names on these pages
// are generated and rotate between deployments, so every cascade ends with
// a structural or attribute based fallback.
var (
	resultContainer = CSS("result container",
		"#_list_scroll_container ul",
		"div.place_section_content ul",
		"ul.list_place",
	)

	resultItem = CSS("result item",
		"li.UEzoS",
		"li.VLTHu",
		"li[data-id]",
		"li.place_item",
	).With("child li", childItems)

	resultCount = CSS("result count",
		"span.place_section_count",
		".search_count em",
		"em.total",
		"span.cnt",
	)

	reviewContainer = CSS("review container",
		"#_review_list",
		"ul.review_list",
		"div.place_section_content ul",
	)

	reviewItem = CSS("review item",
		"li.pui__X35jYm",
		"li.EjjAW",
		"li[data-review-id]",
		"li.review_item",
	).With("child li", childItems)

	reviewBadge = CSS("review badge",
		"span.pui__jhpEyP",
		".review_badge",
		".badge",
		"[data-review-type]",
	)

	reviewContent = CSS("review content",
		"div.pui__vn15t2 a",
		"div.pui__vn15t2",
		".review_content",
		".review_text",
		"p.txt",
	)

	reviewRating = CSS("review rating",
		"span.pui__6aC2Sq",
		".rating em",
		".review_rating",
		"[data-rating]",
	)

	reviewAuthor = CSS("review author",
		"span.pui__NMi-Dp",
		".reviewer_name",
		".review_author",
		".nickname",
	)

	reviewDate = CSS("review date",
		"time",
		"span.pui__gfuUIT",
		".review_date",
		".date",
	)

	// nestedIDHolder finds descendants that carry a listing ID attribute.
	nestedIDHolder = CSS("nested listing id",
		"[data-id]",
		"[data-place-id]",
		"[data-cid]",
	)
)

// childItems is the last-resort item lookup: direct li children of root,
// or of the first ul below it.
func childItems(root *goquery.Selection) *goquery.Selection {
	if items := root.ChildrenFiltered("li"); items.Length() > 0 {
		return items
	}
	return root.Find("ul").First().ChildrenFiltered("li")
}
