package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/blinkenlichten/webgrep/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables per-page detail for every crawled page, not just
	// the matched ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with a line for every page.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeMatches(&sb, report)
	if w.verbose {
		w.writePages(&sb, report)
	}
	w.writeFailures(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         WEBGREP CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:       %s\n", report.Seed))
	sb.WriteString(fmt.Sprintf("Expression:     %s\n", report.Expression))
	sb.WriteString(fmt.Sprintf("Crawl Date:     %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n")
}

// writeSummary writes the crawl totals section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages fetched:  %d\n", report.PagesFetched()))
	sb.WriteString(fmt.Sprintf("  Pages failed:   %d\n", report.PagesFailed()))
	sb.WriteString(fmt.Sprintf("  Links spawned:  %d\n", report.LinksSpawned))
	sb.WriteString(fmt.Sprintf("  Text matches:   %d\n", report.TotalMatches()))
	sb.WriteString("\n")
}

// writeMatches writes every page that matched the expression, with its
// excerpts.
func (w *SimpleWriter) writeMatches(sb *strings.Builder, report *model.CrawlReport) {
	matched := report.MatchedPages()
	if len(matched) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("MATCHES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(matched) == 0 {
		sb.WriteString("  No matches found\n\n")
		return
	}

	for _, p := range matched {
		sb.WriteString(fmt.Sprintf("  [+] %s (%d matches)\n", p.URL, p.MatchCount))
		if p.Title != "" {
			sb.WriteString(fmt.Sprintf("      Title: %s\n", p.Title))
		}
		for _, m := range p.Matches {
			sb.WriteString(fmt.Sprintf("      ... %s ...\n", m))
		}
	}
	sb.WriteString("\n")
}

// writePages writes one line per crawled page, seed first.
func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Pages) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, p := range report.Pages {
		indent := strings.Repeat("  ", int(p.Level))
		sb.WriteString(fmt.Sprintf("  %s%s %s\n", indent, w.pageStatus(p), p.URL))
	}
	sb.WriteString("\n")
}

// pageStatus returns a short status marker for one page line.
func (w *SimpleWriter) pageStatus(p model.PageResult) string {
	switch {
	case !p.Fetched:
		return "[x]"
	case p.MatchCount > 0:
		return "[+]"
	default:
		return fmt.Sprintf("[%d]", p.StatusCode)
	}
}

// writeFailures lists pages that never produced a body.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.CrawlReport) {
	var failed []model.PageResult
	for _, p := range report.Pages {
		if !p.Fetched {
			failed = append(failed, p)
		}
	}
	if len(failed) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED FETCHES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(failed) == 0 {
		sb.WriteString("  No failures\n")
	} else {
		for _, p := range failed {
			sb.WriteString(fmt.Sprintf("  [x] %s\n", p.URL))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by webgrep\n")
	sb.WriteString("https://github.com/blinkenlichten/webgrep\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
