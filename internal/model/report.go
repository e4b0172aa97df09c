package model

import (
	"strings"
	"time"

	"github.com/blinkenlichten/webgrep/internal/graph"
)

const (
	// MaxExcerptsPerPage caps how many match excerpts one page
	// contributes to the report.
	MaxExcerptsPerPage = 8

	// ExcerptContext is how many bytes of page text are kept on each
	// side of a match in its excerpt.
	ExcerptContext = 40
)

// CrawlReport is a point-in-time snapshot of one finished crawl tree,
// flattened for serialization. It references no live tree state, so the
// tree may be released once the report is built.
type CrawlReport struct {
	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// Expression is the text search expression the crawl matched
	// against.
	Expression string `json:"expression"`

	// GeneratedAt is when the snapshot was taken.
	GeneratedAt time.Time `json:"generated_at"`

	// LinksSpawned is the total number of child URLs the crawl spawned.
	LinksSpawned uint32 `json:"links_spawned"`

	// Pages lists every node of the tree in depth-first order, the seed
	// first.
	Pages []PageResult `json:"pages"`
}

// NewCrawlReport snapshots the tree rooted at root. The crawl must be
// quiescent; the walk reads node payloads without synchronization
// beyond the publish fences.
func NewCrawlReport(root *graph.LinkedTask, expression string, linksSpawned uint32) *CrawlReport {
	r := &CrawlReport{
		Expression:   expression,
		GeneratedAt:  time.Now(),
		LinksSpawned: linksSpawned,
	}
	if root == nil {
		return r
	}
	r.Seed = root.GrepVars.TargetURL
	r.collect(root)
	return r
}

// collect appends node, its whole sibling chain, and their subtrees in
// depth-first order. Siblings iterate; only children recurse, so stack
// depth is bounded by tree depth.
func (r *CrawlReport) collect(node *graph.LinkedTask) {
	for item := node; item != nil; item = item.Next() {
		r.Pages = append(r.Pages, snapshotPage(item))
		if child := item.Child(); child != nil {
			r.collect(child)
		}
	}
}

// snapshotPage converts one node's payload into a PageResult.
func snapshotPage(node *graph.LinkedTask) PageResult {
	g := &node.GrepVars
	p := PageResult{
		URL:     g.TargetURL,
		Level:   node.Level,
		Order:   node.Order,
		Fetched: g.PageIsReady(),
		Parsed:  g.PageIsParsed(),
	}
	if !p.Fetched {
		return p
	}

	p.StatusCode = g.ResponseCode
	p.Title = ExtractTitle(g.PageContent)
	if !p.Parsed {
		return p
	}

	p.LinkCount = len(g.MatchURLVector)
	p.MatchCount = len(g.MatchTextVector)
	for i, m := range g.MatchTextVector {
		if i == MaxExcerptsPerPage {
			break
		}
		p.Matches = append(p.Matches, excerpt(g.PageContent, m))
	}
	return p
}

// excerpt cuts the matched text with up to ExcerptContext bytes of
// context on each side, collapsed to single-space whitespace.
func excerpt(page string, m graph.MatchRange) string {
	begin := max(m.Begin-ExcerptContext, 0)
	end := min(m.End+ExcerptContext, len(page))
	return strings.Join(strings.Fields(page[begin:end]), " ")
}

// PagesFetched returns how many pages produced a body.
func (r *CrawlReport) PagesFetched() int {
	n := 0
	for i := range r.Pages {
		if r.Pages[i].Fetched {
			n++
		}
	}
	return n
}

// PagesFailed returns how many pages never produced a body.
func (r *CrawlReport) PagesFailed() int {
	return len(r.Pages) - r.PagesFetched()
}

// TotalMatches sums the text match counts across all pages.
func (r *CrawlReport) TotalMatches() int {
	n := 0
	for i := range r.Pages {
		n += r.Pages[i].MatchCount
	}
	return n
}

// MatchedPages returns the pages with at least one text match, in
// report order.
func (r *CrawlReport) MatchedPages() []PageResult {
	var out []PageResult
	for _, p := range r.Pages {
		if p.MatchCount > 0 {
			out = append(out, p)
		}
	}
	return out
}
