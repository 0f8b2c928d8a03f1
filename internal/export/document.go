package export

import (
	"time"

	"github.com/nao1215/inspector/internal/model"
)

// Document is the canonical consolidated JSON written to the bundle.
type Document struct {
	DocumentInfo DocumentInfo `json:"document_info"`
	Pages        []Page       `json:"pages"`
}

// DocumentInfo is the header of the canonical document.
type DocumentInfo struct {
	DocumentName string       `json:"document_name"`
	OriginalPDF  string       `json:"original_pdf,omitempty"`
	SourceSchema string       `json:"source_schema"`
	PageCount    string       `json:"page_count_mode,omitempty"`
	ExportDate   string       `json:"final_export_date"`
	TotalPages   int          `json:"total_pages"`
	TotalTables  int          `json:"total_tables"`
	Portfolio    *string      `json:"portfolio"`
	ReviewStatus ReviewStatus `json:"review_status"`
}

// ReviewStatus summarizes the review decisions and page classifications.
type ReviewStatus struct {
	ApprovedPages   int     `json:"approved_pages"`
	FlaggedPages    int     `json:"flagged_pages"`
	PendingPages    int     `json:"pending_pages"`
	TotalReviewed   int     `json:"total_reviewed"`
	MissingPages    int     `json:"missing_pages"`
	IncompletePages int     `json:"incomplete_pages"`
	UselessPages    int     `json:"useless_pages"`
	ProgressPercent float64 `json:"progress_percent"`
}

// Page is one page of the canonical document.
type Page struct {
	PageID         string   `json:"page_id"`
	PageNumber     int      `json:"page_number"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Keywords       []string `json:"keywords"`
	Tables         []Table  `json:"tables"`
	RawContent     string   `json:"raw_content"`
	Classification string   `json:"classification"`
	ReviewStatus   string   `json:"review_status"`
}

// Table is one table of the canonical document. Rows are column-keyed.
type Table struct {
	TableID     string      `json:"table_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Columns     []string    `json:"columns"`
	Rows        []model.Row `json:"rows"`
	RowCount    int         `json:"row_count"`
	ColumnCount int         `json:"column_count"`
}

// NewDocument converts a session into the canonical document.
func NewDocument(s *model.ReviewSession, exportedAt time.Time, originalPDF string) *Document {
	counts := s.Counts()
	doc := &Document{
		DocumentInfo: DocumentInfo{
			DocumentName: s.DocumentName,
			OriginalPDF:  originalPDF,
			SourceSchema: s.Kind.String(),
			PageCount:    string(s.CountMode),
			ExportDate:   exportedAt.Format(time.RFC3339),
			TotalPages:   counts.TotalPages,
			TotalTables:  counts.TotalTables,
			ReviewStatus: newReviewStatus(counts),
		},
		Pages: make([]Page, 0, len(s.Pages)),
	}
	if s.HasPortfolio() {
		tag := s.PortfolioTag
		doc.DocumentInfo.Portfolio = &tag
	}
	for _, p := range s.Pages {
		doc.Pages = append(doc.Pages, newPage(p))
	}
	return doc
}

func newReviewStatus(c model.ReviewCounts) ReviewStatus {
	return ReviewStatus{
		ApprovedPages:   c.Approved,
		FlaggedPages:    c.Flagged,
		PendingPages:    c.Pending,
		TotalReviewed:   c.Reviewed(),
		MissingPages:    c.Missing,
		IncompletePages: c.Incomplete,
		UselessPages:    c.Useless,
		ProgressPercent: c.Progress(),
	}
}

func newPage(p *model.PageRecord) Page {
	page := Page{
		PageID:         p.PageID,
		PageNumber:     p.PDFPageNumber,
		Title:          p.Title,
		Summary:        p.Summary,
		Keywords:       append([]string{}, p.Keywords...),
		Tables:         make([]Table, 0, len(p.Tables)),
		RawContent:     p.Content,
		Classification: p.Classification.String(),
		ReviewStatus:   p.ReviewStatus.String(),
	}
	if page.PageID == "" {
		page.PageID = model.PageIDFor(p.PDFPageNumber)
	}
	for _, t := range p.Tables {
		columns := t.ColumnNames()
		page.Tables = append(page.Tables, Table{
			TableID:     t.ID,
			Title:       t.Title,
			Description: t.Description,
			Columns:     columns,
			Rows:        t.Clone().Rows,
			RowCount:    len(t.Rows),
			ColumnCount: len(columns),
		})
	}
	return page
}

// placeholder reports whether the page keywords are sentinels rather than
// extracted topics.
func (p Page) placeholder() bool {
	switch model.Classification(p.Classification) {
	case model.ClassificationMissing, model.ClassificationUseless:
		return true
	default:
		return false
	}
}
