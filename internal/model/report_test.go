package model

import (
	"strings"
	"testing"

	"github.com/blinkenlichten/webgrep/internal/graph"
)

// buildTree assembles a quiescent three-node tree by hand: a parsed
// seed, one parsed child with a match, and one failed sibling.
func buildTree(t *testing.T) *graph.LinkedTask {
	t.Helper()

	root := graph.NewRootNode()
	root.GrepVars.TargetURL = "http://example.com/"
	root.GrepVars.ResponseCode = 200
	root.GrepVars.PageContent = `<html><head><title>Seed</title></head><body>nothing</body></html>`
	root.GrepVars.PublishPageReady()
	root.GrepVars.PublishPageParsed()

	child, _ := root.SpawnChildNode()
	if child == nil {
		t.Fatal("SpawnChildNode returned nil")
	}
	content := `<html><head><title>Child</title></head><body>the needle is here</body></html>`
	child.GrepVars.TargetURL = "http://example.com/a"
	child.GrepVars.ResponseCode = 200
	child.GrepVars.PageContent = content
	begin := strings.Index(content, "needle")
	child.GrepVars.MatchTextVector = []graph.MatchRange{{Begin: begin, End: begin + len("needle")}}
	child.GrepVars.PublishPageReady()
	child.GrepVars.PublishPageParsed()

	if n := child.SpawnNextNodes(1); n != 1 {
		t.Fatalf("SpawnNextNodes(1) = %d", n)
	}
	failed := child.Next()
	failed.GrepVars.TargetURL = "http://example.com/dead"

	return root
}

func TestNewCrawlReport(t *testing.T) {
	t.Parallel()

	root := buildTree(t)
	r := NewCrawlReport(root, "needle", 2)

	if r.Seed != "http://example.com/" {
		t.Errorf("Seed = %q", r.Seed)
	}
	if r.Expression != "needle" {
		t.Errorf("Expression = %q", r.Expression)
	}
	if r.LinksSpawned != 2 {
		t.Errorf("LinksSpawned = %d, want 2", r.LinksSpawned)
	}
	if len(r.Pages) != 3 {
		t.Fatalf("Pages = %d, want 3", len(r.Pages))
	}

	seed := r.Pages[0]
	if seed.URL != "http://example.com/" || seed.Level != 0 {
		t.Errorf("seed page out of order: %+v", seed)
	}
	if seed.Title != "Seed" {
		t.Errorf("seed title = %q", seed.Title)
	}

	child := r.Pages[1]
	if child.Level != 1 || child.URL != "http://example.com/a" {
		t.Errorf("child page out of order: %+v", child)
	}
	if child.MatchCount != 1 || len(child.Matches) != 1 {
		t.Fatalf("child matches = %d/%d, want 1/1", child.MatchCount, len(child.Matches))
	}
	if !strings.Contains(child.Matches[0], "needle") {
		t.Errorf("excerpt lost the match: %q", child.Matches[0])
	}
	if !strings.Contains(child.Matches[0], "the") {
		t.Errorf("excerpt lost the surrounding context: %q", child.Matches[0])
	}

	failed := r.Pages[2]
	if failed.Fetched || failed.Parsed {
		t.Errorf("failed page reported as fetched: %+v", failed)
	}
	if failed.StatusCode != 0 {
		t.Errorf("failed page status = %d, want 0", failed.StatusCode)
	}
	if failed.Title != "" || failed.MatchCount != 0 {
		t.Errorf("failed page carries content: %+v", failed)
	}
}

func TestCrawlReportSummaries(t *testing.T) {
	t.Parallel()

	r := NewCrawlReport(buildTree(t), "needle", 2)

	if got := r.PagesFetched(); got != 2 {
		t.Errorf("PagesFetched() = %d, want 2", got)
	}
	if got := r.PagesFailed(); got != 1 {
		t.Errorf("PagesFailed() = %d, want 1", got)
	}
	if got := r.TotalMatches(); got != 1 {
		t.Errorf("TotalMatches() = %d, want 1", got)
	}
	matched := r.MatchedPages()
	if len(matched) != 1 || matched[0].URL != "http://example.com/a" {
		t.Errorf("MatchedPages() = %+v", matched)
	}
}

func TestNewCrawlReportNilRoot(t *testing.T) {
	t.Parallel()

	r := NewCrawlReport(nil, "x", 0)
	if r.Seed != "" || len(r.Pages) != 0 {
		t.Errorf("nil root produced pages: %+v", r)
	}
}

func TestExcerptBounds(t *testing.T) {
	t.Parallel()

	// A match flush against both ends of the page must not slice out of
	// bounds.
	page := "needle"
	got := excerpt(page, graph.MatchRange{Begin: 0, End: len(page)})
	if got != "needle" {
		t.Errorf("excerpt() = %q, want %q", got, "needle")
	}
}
