package scraper

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const (
	maxDumpAnchors  = 30
	maxDumpMarkdown = 4000
)

// newMarkdownConverter returns a goroutine-safe converter for page dumps.
// The base plugin drops script, style and head noise.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// pageDumper logs what a page looked like when a cascade found nothing, so
// selector drift can be diagnosed from logs alone.
type pageDumper struct {
	enabled bool
	conv    *converter.Converter
	log     zerolog.Logger
}

func newPageDumper(enabled bool, log zerolog.Logger) *pageDumper {
	d := &pageDumper{enabled: enabled, log: log}
	if enabled {
		d.conv = newMarkdownConverter()
	}
	return d
}

// dump logs up to maxDumpAnchors anchors and a Markdown excerpt of the page.
func (d *pageDumper) dump(cascade, url string, doc *goquery.Document, raw string) {
	if !d.enabled {
		return
	}

	anchors := collectAnchors(doc, maxDumpAnchors)

	md, err := d.conv.ConvertString(raw)
	if err != nil {
		d.log.Debug().Err(err).Msg("markdown conversion failed")
		md = ""
	}

	d.log.Debug().
		Str("cascade", cascade).
		Str("url", url).
		Strs("anchors", anchors).
		Str("markdown", truncate(md, maxDumpMarkdown)).
		Msg("selector cascade missed")
}

// collectAnchors returns "text -> href" for the first max anchors.
func collectAnchors(doc *goquery.Document, max int) []string {
	out := make([]string, 0, max)
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		text := strings.Join(strings.Fields(a.Text()), " ")
		out = append(out, text+" -> "+href)
		return len(out) < max
	})
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
