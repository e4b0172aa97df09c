package report

import (
	"io"
	"strconv"

	"github.com/blinkenlichten/webgrep/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeMatches(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Webgrep Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + report.Seed + "`"},
			{"Expression", "`" + report.Expression + "`"},
			{"Crawl Date", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(len(report.Pages))},
		},
	})
	md.PlainText("")
}

// writeSummary writes the crawl totals section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages fetched", strconv.Itoa(report.PagesFetched())},
			{"Pages failed", strconv.Itoa(report.PagesFailed())},
			{"Links spawned", strconv.Itoa(int(report.LinksSpawned))},
			{"Text matches", "**" + strconv.Itoa(report.TotalMatches()) + "**"},
		},
	})
	md.PlainText("")

	if len(report.Pages) > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of fetch outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetch Outcomes"),
		piechart.WithShowData(true),
	)

	if n := report.PagesFetched(); n > 0 {
		chart.LabelAndIntValue("Fetched", uint64(n))
	}
	if n := report.PagesFailed(); n > 0 {
		chart.LabelAndIntValue("Failed", uint64(n))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on crawl outcomes.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.TotalMatches() > 0:
		md.Tipf(
			"The expression matched %d time(s) across %d page(s).",
			report.TotalMatches(), len(report.MatchedPages()),
		)
	case report.PagesFetched() == 0:
		md.Cautionf(
			"No pages could be fetched. All %d fetch attempt(s) failed.",
			report.PagesFailed(),
		)
	case report.PagesFailed() > 0:
		md.Warningf(
			"No matches found. %d page(s) failed to fetch and were not searched.",
			report.PagesFailed(),
		)
	default:
		md.Note("No matches found on any crawled page.")
	}
	md.PlainText("")
}

// writeMatches writes a table of pages that matched, with their excerpts.
func (w *MarkdownWriter) writeMatches(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Matches")
	md.PlainText("")

	matched := report.MatchedPages()
	if len(matched) == 0 {
		md.PlainText("No pages matched the expression.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(matched))
	for i, p := range matched {
		title := p.Title
		if title == "" {
			title = "-"
		}
		rows[i] = []string{
			truncateString(p.URL, 60),
			strconv.Itoa(int(p.Level)),
			strconv.Itoa(p.StatusCode),
			truncateString(title, 40),
			strconv.Itoa(p.MatchCount),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Level", "Status", "Title", "Matches"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, p := range matched {
		if len(p.Matches) == 0 {
			continue
		}
		var excerpts string
		for _, m := range p.Matches {
			excerpts += "* ... " + m + " ...\n"
		}
		md.Details(p.URL, excerpts)
	}
	md.PlainText("")
}

// writeFailures lists pages that never produced a body.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.CrawlReport) {
	var failed []string
	for _, p := range report.Pages {
		if !p.Fetched {
			failed = append(failed, "`"+truncateString(p.URL, 80)+"`")
		}
	}
	if len(failed) == 0 {
		return
	}

	md.H2("Failed Fetches")
	md.PlainText("")
	md.BulletList(failed...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [webgrep](https://github.com/blinkenlichten/webgrep)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
