package model

import (
	"fmt"
	"sort"
)

// UselessMarker is written into every field of a discarded page.
const UselessMarker = "useless"

// Sentinel keyword sets attached to synthesized pages.
var (
	// IncompleteKeywords tag a page whose structured extraction failed but
	// whose first-pass rendering exists.
	IncompleteKeywords = []string{"incomplete_processing", "pipeline_failure"}

	// PlaceholderKeywords tag a page with neither structured data nor rendering.
	PlaceholderKeywords = []string{"missing", "unprocessed", "needs_attention", "placeholder"}
)

// Row is one table row keyed by column name. Rows of the same table may have
// differing keys; nothing enforces a shared shape.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// TableRecord is a table extracted from a page.
type TableRecord struct {
	// ID is the identifier the table carries in the consolidated file.
	// Empty for tables that were never persisted.
	ID string `json:"table_id,omitempty"`

	// Title is the table caption.
	Title string `json:"title"`

	// Description is the optional table description from the pipeline.
	Description string `json:"description,omitempty"`

	// Columns is the column order. When the source did not carry an explicit
	// column list it is derived from the row keys.
	Columns []string `json:"columns"`

	// Rows holds the table body, normalized to column-keyed maps.
	Rows []Row `json:"rows"`
}

// ColumnNames returns Columns when set, otherwise the sorted union of row keys.
func (t TableRecord) ColumnNames() []string {
	if len(t.Columns) > 0 {
		return t.Columns
	}
	return DeriveColumns(t.Rows)
}

// Clone returns a deep copy of the table.
func (t TableRecord) Clone() TableRecord {
	out := t
	out.Columns = append([]string(nil), t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// DeriveColumns returns the sorted union of keys across rows.
func DeriveColumns(rows []Row) []string {
	seen := make(map[string]bool)
	cols := make([]string, 0)
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// UselessTable returns the table a discarded page is left with.
func UselessTable() TableRecord {
	return TableRecord{
		Title:   UselessMarker,
		Columns: []string{"content"},
		Rows:    []Row{{"content": UselessMarker}},
	}
}

// PageRecord is one physical page of the reviewed document.
type PageRecord struct {
	// PDFPageNumber is the 1-based physical page this record stands for.
	PDFPageNumber int `json:"page_number"`

	// PageID is the identifier the page carried on disk (e.g. "page_3").
	PageID string `json:"page_id"`

	// Title is the page title.
	Title string `json:"title"`

	// Summary is the short page summary produced by the enhancement step.
	Summary string `json:"summary"`

	// Content is the page body text.
	Content string `json:"raw_content"`

	// Keywords is the ordered keyword list.
	Keywords []string `json:"keywords"`

	// Tables holds the page tables in display order.
	Tables []TableRecord `json:"tables"`

	// Classification is the data-quality tag set by the reconciler.
	Classification Classification `json:"classification"`

	// ReviewStatus is the reviewer decision.
	ReviewStatus ReviewStatus `json:"review_status"`

	// Dirty is set when a reviewer edit changed the record since load.
	Dirty bool `json:"-"`

	// HasRendering is set when a first-pass rendering exists for the page.
	// Until the document counts as edited, the rendering replaces the stored
	// content on every load.
	HasRendering bool `json:"-"`
}

// PageIDFor returns the canonical page identifier for a page number.
func PageIDFor(n int) string {
	return fmt.Sprintf("page_%d", n)
}

// TableCount returns the number of tables on the page.
func (p *PageRecord) TableCount() int {
	return len(p.Tables)
}

// IsUseless reports whether the page was discarded.
func (p *PageRecord) IsUseless() bool {
	return p.Classification == ClassificationUseless
}

// MarkUseless overwrites the record with the discard marker.
// The overwrite is total: title, content, summary, keywords and tables are
// replaced and the review status returns to pending.
func (p *PageRecord) MarkUseless() {
	p.Title = UselessMarker
	p.Summary = UselessMarker
	p.Content = UselessMarker
	p.Keywords = []string{UselessMarker}
	p.Tables = []TableRecord{UselessTable()}
	p.Classification = ClassificationUseless
	p.ReviewStatus = StatusPending
	p.Dirty = true
}

// Clone returns a deep copy of the record.
func (p *PageRecord) Clone() *PageRecord {
	out := *p
	out.Keywords = append([]string(nil), p.Keywords...)
	out.Tables = make([]TableRecord, len(p.Tables))
	for i, t := range p.Tables {
		out.Tables[i] = t.Clone()
	}
	return &out
}
