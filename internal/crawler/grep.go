package crawler

import (
	"regexp"
	"sort"

	"github.com/blinkenlichten/webgrep/internal/graph"
	"github.com/blinkenlichten/webgrep/internal/urlutil"
)

var (
	// hrefAttrRe locates the opening quote of an href attribute value;
	// the value itself ends at the next quote, space, newline, angle
	// bracket or NUL byte.
	hrefAttrRe = regexp.MustCompile(`(?i)href\s*=\s*["']`)

	// bareURLRe locates http(s) URLs standing outside of href
	// attributes, such as plain-text links.
	bareURLRe = regexp.MustCompile(`https?://`)
)

// ExtractURLSpans scans raw HTML for link targets and returns their
// byte offset ranges in document order. Two shapes are recognized:
// href attribute values and bare http(s) URLs in the page text. Spans
// end at the first quote, space, newline, angle bracket or NUL byte.
func ExtractURLSpans(page string) []graph.MatchRange {
	var spans []graph.MatchRange

	for _, m := range hrefAttrRe.FindAllStringIndex(page, -1) {
		begin := m[1]
		end := begin + urlutil.FindClosingQuote(page[begin:])
		if end > begin {
			spans = append(spans, graph.MatchRange{Begin: begin, End: end})
		}
	}

	for _, m := range bareURLRe.FindAllStringIndex(page, -1) {
		begin := m[0]
		if covered(spans, begin) {
			continue
		}
		end := begin + urlutil.FindClosingQuote(page[begin:])
		if end > begin {
			spans = append(spans, graph.MatchRange{Begin: begin, End: end})
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Begin < spans[j].Begin })
	return spans
}

// covered reports whether offset lies inside one of the spans.
func covered(spans []graph.MatchRange, offset int) bool {
	for _, s := range spans {
		if offset >= s.Begin && offset < s.End {
			return true
		}
	}
	return false
}
