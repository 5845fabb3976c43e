package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Lookup finds candidate elements below root. It must not mutate the
// document.
type Lookup func(root *goquery.Selection) *goquery.Selection

// Cascade is an ordered list of lookups for one extraction point. The first
// lookup that matches anything wins; exhausting the list means the section
// is not on the page, which is a normal outcome.
//
// New markup variants are supported by appending lookups, never by adding
// branches at the call site.
type Cascade struct {
	Name    string
	lookups []Lookup
	labels  []string
}

// CSS builds a cascade of CSS selector lookups. It panics on a selector that
// does not compile, so broken cascades fail at package init.
func CSS(name string, selectors ...string) Cascade {
	c := Cascade{Name: name}
	for _, sel := range selectors {
		c = c.With(sel, cssLookup(sel))
	}
	return c
}

func cssLookup(sel string) Lookup {
	if _, err := cascadia.ParseGroup(sel); err != nil {
		panic(fmt.Sprintf("scraper: invalid selector %q: %v", sel, err))
	}
	return func(root *goquery.Selection) *goquery.Selection {
		return root.Find(sel)
	}
}

// With returns a copy of c with one more lookup appended.
func (c Cascade) With(label string, l Lookup) Cascade {
	out := Cascade{
		Name:    c.Name,
		lookups: make([]Lookup, 0, len(c.lookups)+1),
		labels:  make([]string, 0, len(c.labels)+1),
	}
	out.lookups = append(append(out.lookups, c.lookups...), l)
	out.labels = append(append(out.labels, c.labels...), label)
	return out
}

// Len returns the number of lookups.
func (c Cascade) Len() int { return len(c.lookups) }

// Find returns the first non-empty match and the index of the lookup that
// produced it. On a miss it returns an empty selection and -1.
func (c Cascade) Find(root *goquery.Selection) (*goquery.Selection, int) {
	for i, l := range c.lookups {
		if sel := l(root); sel != nil && sel.Length() > 0 {
			return sel, i
		}
	}
	return root.Slice(0, 0), -1
}

// Text returns the trimmed text of the first matched element whose text is
// not blank, walking lookups in order.
func (c Cascade) Text(root *goquery.Selection) (string, bool) {
	for _, l := range c.lookups {
		sel := l(root)
		if sel == nil {
			continue
		}
		var text string
		sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text = strings.TrimSpace(s.Text())
			return text == ""
		})
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// Label returns a description of lookup i for logging.
func (c Cascade) Label(i int) string {
	if i < 0 || i >= len(c.labels) {
		return "none"
	}
	return c.labels[i]
}
