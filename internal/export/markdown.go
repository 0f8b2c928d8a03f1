package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/inspector/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// sampleRows is the number of rows the summary shows per table.
const sampleRows = 3

// MarkdownWriter writes the consolidated text rendering of a document:
// an overview, the key topics, every page in order and the table details.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders the document summary.
func (w *MarkdownWriter) Write(doc *Document) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, doc)
	w.writeOverview(md, doc)
	w.writeTopics(md, doc)
	w.writePages(md, doc)
	w.writeTableDetails(md, doc)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, doc *Document) {
	md.H1(doc.DocumentInfo.DocumentName + " - Review Summary")
	md.PlainText("")
	md.PlainTextf("**Exported:** %s", doc.DocumentInfo.ExportDate)
	md.PlainText("")
}

func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, doc *Document) {
	info := doc.DocumentInfo
	rs := info.ReviewStatus

	md.H2("Document Overview")
	md.PlainText("")

	portfolio := "-"
	if info.Portfolio != nil {
		portfolio = escapeCell(*info.Portfolio)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Total Pages", strconv.Itoa(info.TotalPages)},
			{"Total Tables", strconv.Itoa(info.TotalTables)},
			{"Approved Pages", strconv.Itoa(rs.ApprovedPages)},
			{"Flagged Pages", strconv.Itoa(rs.FlaggedPages)},
			{"Pending Pages", strconv.Itoa(rs.PendingPages)},
			{"Missing Pages", strconv.Itoa(rs.MissingPages)},
			{"Incomplete Pages", strconv.Itoa(rs.IncompletePages)},
			{"Discarded Pages", strconv.Itoa(rs.UselessPages)},
			{"Review Progress", fmt.Sprintf("%.1f%%", rs.ProgressPercent)},
			{"Portfolio", portfolio},
		},
	})
	md.PlainText("")

	if info.TotalPages > 0 {
		w.writePieChart(md, rs)
	}
	w.writeAlert(md, rs)
}

// writePieChart writes a mermaid pie chart of the review decisions.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, rs ReviewStatus) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Review Status"),
		piechart.WithShowData(true),
	)
	if rs.ApprovedPages > 0 {
		chart.LabelAndIntValue("Approved", uint64(rs.ApprovedPages)) //nolint:gosec // counts are non-negative
	}
	if rs.FlaggedPages > 0 {
		chart.LabelAndIntValue("Flagged", uint64(rs.FlaggedPages)) //nolint:gosec // counts are non-negative
	}
	if rs.PendingPages > 0 {
		chart.LabelAndIntValue("Pending", uint64(rs.PendingPages)) //nolint:gosec // counts are non-negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, rs ReviewStatus) {
	switch {
	case rs.MissingPages > 0:
		md.Warningf("%d page(s) were never extracted and hold placeholder content.", rs.MissingPages)
	case rs.IncompletePages > 0:
		md.Importantf("%d page(s) only have first-pass content.", rs.IncompletePages)
	case rs.FlaggedPages > 0:
		md.Note(fmt.Sprintf("%d page(s) are flagged for later review.", rs.FlaggedPages))
	case rs.PendingPages == 0:
		md.Tip("Every page has been reviewed.")
	default:
		md.Note(fmt.Sprintf("%d page(s) are still pending review.", rs.PendingPages))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeTopics(md *markdown.Markdown, doc *Document) {
	md.H2("Key Topics")
	md.PlainText("")
	topics := keyTopics(doc)
	if len(topics) == 0 {
		md.PlainText("None")
	} else {
		md.PlainText(strings.Join(topics, ", "))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, doc *Document) {
	md.H2("Pages")
	md.PlainText("")

	for _, p := range doc.Pages {
		md.H3(pageHeading(p))
		md.PlainText("")
		md.PlainTextf("**Summary:** %s", p.Summary)
		md.PlainText("")

		if len(p.Tables) == 0 {
			md.PlainText("**Tables:** None")
		} else {
			md.PlainTextf("**Tables (%d):**", len(p.Tables))
			md.PlainText("")
			titles := make([]string, 0, len(p.Tables))
			for _, t := range p.Tables {
				titles = append(titles, tableTitle(t))
			}
			md.BulletList(titles...)
		}
		md.PlainText("")
		md.PlainTextf("**Keywords:** %s", strings.Join(p.Keywords, ", "))
		md.PlainText("")

		if p.RawContent != "" {
			md.PlainText(p.RawContent)
			md.PlainText("")
		}
		md.HorizontalRule()
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeTableDetails(md *markdown.Markdown, doc *Document) {
	if extractedTables(doc) == 0 {
		return
	}
	md.H2("Table Details")
	md.PlainText("")

	n := 0
	for _, p := range doc.Pages {
		if p.placeholder() {
			continue
		}
		for _, t := range p.Tables {
			n++
			md.H3(fmt.Sprintf("Table %d: %s", n, tableTitle(t)))
			md.PlainText("")
			md.PlainTextf("**Page:** %d", p.PageNumber)
			md.PlainText("")
			if t.Description != "" {
				md.PlainTextf("**Description:** %s", t.Description)
				md.PlainText("")
			}
			if len(t.Columns) == 0 || len(t.Rows) == 0 {
				md.PlainText("**Structure:** empty")
				md.PlainText("")
				continue
			}
			md.PlainTextf("**Structure:** %d columns x %d rows", t.ColumnCount, t.RowCount)
			md.PlainText("")
			writeTable(md, t, sampleRows)
			if t.RowCount > sampleRows {
				md.PlainTextf("*and %d more rows*", t.RowCount-sampleRows)
				md.PlainText("")
			}
		}
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by inspector*")
}

// writeTable renders up to limit rows of t. A limit of zero renders every row.
func writeTable(md *markdown.Markdown, t Table, limit int) {
	rows := t.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = escapeCell(c)
	}
	body := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = escapeCell(cellText(r[c]))
		}
		body = append(body, cells)
	}
	md.Table(markdown.TableSet{Header: header, Rows: body})
	md.PlainText("")
}

func extractedTables(doc *Document) int {
	n := 0
	for _, p := range doc.Pages {
		if !p.placeholder() {
			n += len(p.Tables)
		}
	}
	return n
}

// keyTopics returns the sorted union of keywords of extracted pages.
// Sentinel keywords of placeholder and discarded pages are left out.
func keyTopics(doc *Document) []string {
	seen := make(map[string]bool)
	topics := make([]string, 0)
	for _, p := range doc.Pages {
		if p.placeholder() {
			continue
		}
		for _, k := range p.Keywords {
			k = strings.TrimSpace(k)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			topics = append(topics, k)
		}
	}
	sort.Strings(topics)
	return topics
}

func pageHeading(p Page) string {
	heading := fmt.Sprintf("Page %d: %s (%s)", p.PageNumber, p.Title, statusLabel(p.ReviewStatus))
	if p.Classification != "" && p.Classification != model.ClassificationNormal.String() {
		heading += " [" + statusLabel(p.Classification) + "]"
	}
	return heading
}

func tableTitle(t Table) string {
	if strings.TrimSpace(t.Title) == "" {
		return "Untitled table"
	}
	return t.Title
}

// statusLabel turns a status or classification name into a display label.
// A Caser keeps state, so each call gets its own.
func statusLabel(s string) string {
	return cases.Title(language.English).String(s)
}

// cellText renders a table cell value as text.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}

// escapeCell keeps a value inside a single markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
