package export

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/inspector/internal/model"
)

var exportTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return exportTime }

// newSession builds a reviewed session: page 1 normal and approved with one
// table, page 2 incomplete and flagged, page 3 a missing placeholder.
func newSession(folder string) *model.ReviewSession {
	s := model.NewReviewSession(folder, model.SchemaConsolidated)
	s.DocumentName = "report"
	s.CountMode = model.CountAuthoritative
	s.Pages = []*model.PageRecord{
		{
			PDFPageNumber: 1,
			PageID:        "page_1",
			Title:         "Revenue Überblick / Q1",
			Summary:       "Quarterly revenue",
			Content:       "Revenue grew.",
			Keywords:      []string{"revenue", "growth"},
			Tables: []model.TableRecord{{
				ID:      "t-1",
				Title:   "By region",
				Columns: []string{"Region", "Amount"},
				Rows: []model.Row{
					{"Region": "North", "Amount": json.Number("120")},
					{"Region": "South|East", "Amount": json.Number("80.5")},
				},
			}},
			Classification: model.ClassificationNormal,
			ReviewStatus:   model.StatusApproved,
		},
		{
			PDFPageNumber:  2,
			Title:          "Incomplete Processing - Page 2",
			Content:        "first pass text",
			Keywords:       append([]string{}, model.IncompleteKeywords...),
			Classification: model.ClassificationIncomplete,
			ReviewStatus:   model.StatusFlagged,
		},
		{
			PDFPageNumber:  3,
			Title:          "Missing Data - Page 3",
			Content:        "placeholder body",
			Keywords:       append([]string{}, model.PlaceholderKeywords...),
			Classification: model.ClassificationMissing,
			ReviewStatus:   model.StatusPending,
		},
	}
	s.IncompletePages.Add(2)
	s.MissingPages.Add(3)
	s.PortfolioTag = "alpha"
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)
	return files
}

// TestConsolidator_Export tests a complete bundle.
func TestConsolidator_Export(t *testing.T) {
	t.Parallel()

	folder := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(folder, "original.pdf"), "%PDF-1.4 test")
	writeFile(t, filepath.Join(folder, model.DefaultMetadataFile), `{"page_statuses":{}}`)
	writeFile(t, filepath.Join(folder, "processing_metadata.json"), `{"model":"x"}`)
	before := listFiles(t, folder)

	c := NewConsolidator(model.DefaultLayout(),
		WithClock(fixedClock),
		WithSideFiles("processing_metadata.json", model.DefaultMetadataFile),
	)
	m, err := c.Export(newSession(folder), dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantDir := filepath.Join(dest, "report_final_20260102_030405")
	if m.Directory != wantDir {
		t.Errorf("expected dir %s, got %s", wantDir, m.Directory)
	}

	want := []string{
		"export_report.json",
		"inspector_metadata.json",
		"pages/page_01_Revenue_Uberblick_Q1.md",
		"pages/page_02_Incomplete_Processing_Page_2.md",
		"pages/page_03_Missing_Data_Page_3.md",
		"processing_metadata.json",
		"report.pdf",
		"report_final.json",
		"report_summary.md",
		"report_tables.xlsx",
	}
	got := listFiles(t, wantDir)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected files %v, got %v", want, got)
	}
	if len(m.Files) != len(want) {
		t.Errorf("expected %d manifest entries, got %d", len(want), len(m.Files))
	}
	if len(m.Failed()) != 0 {
		t.Errorf("expected no failures, got %v", m.Failed())
	}

	t.Run("checksums match the written files", func(t *testing.T) {
		t.Parallel()

		for _, f := range m.Files {
			data, err := os.ReadFile(filepath.Join(wantDir, filepath.FromSlash(f.Path)))
			if err != nil {
				t.Fatalf("%s: %v", f.Path, err)
			}
			sum := blake2b.Sum256(data)
			if f.Checksum != hex.EncodeToString(sum[:]) {
				t.Errorf("%s: checksum mismatch", f.Path)
			}
			if f.Size != int64(len(data)) {
				t.Errorf("%s: expected size %d, got %d", f.Path, len(data), f.Size)
			}
		}
	})

	t.Run("canonical document", func(t *testing.T) {
		t.Parallel()

		data, err := os.ReadFile(filepath.Join(wantDir, "report_final.json"))
		if err != nil {
			t.Fatal(err)
		}
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		info := doc.DocumentInfo
		if info.TotalPages != 3 || info.TotalTables != 1 {
			t.Errorf("expected 3 pages and 1 table, got %d and %d", info.TotalPages, info.TotalTables)
		}
		if info.Portfolio == nil || *info.Portfolio != "alpha" {
			t.Errorf("expected portfolio alpha, got %v", info.Portfolio)
		}
		if info.OriginalPDF != "original.pdf" {
			t.Errorf("expected original.pdf, got %q", info.OriginalPDF)
		}
		rs := info.ReviewStatus
		if rs.ApprovedPages != 1 || rs.FlaggedPages != 1 || rs.PendingPages != 1 ||
			rs.MissingPages != 1 || rs.IncompletePages != 1 || rs.UselessPages != 0 {
			t.Errorf("unexpected review status %+v", rs)
		}
		if len(doc.Pages) != 3 {
			t.Fatalf("expected 3 pages, got %d", len(doc.Pages))
		}
		if doc.Pages[2].Classification != "missing" || doc.Pages[2].PageID != "page_3" {
			t.Errorf("unexpected page 3: %+v", doc.Pages[2])
		}
		table := doc.Pages[0].Tables[0]
		if table.RowCount != 2 || table.ColumnCount != 2 {
			t.Errorf("expected 2x2 table, got %dx%d", table.RowCount, table.ColumnCount)
		}
		if !strings.Contains(string(data), `"Amount": 120`) {
			t.Errorf("expected numbers to stay numeric:\n%s", data)
		}
	})

	t.Run("export report", func(t *testing.T) {
		t.Parallel()

		data, err := os.ReadFile(filepath.Join(wantDir, reportFile))
		if err != nil {
			t.Fatal(err)
		}
		var report struct {
			ExportInfo struct {
				Files []FileEntry `json:"files"`
			} `json:"export_info"`
			ReviewSummary struct {
				TotalPages   int               `json:"total_pages"`
				PageStatuses map[string]string `json:"page_statuses"`
				FlaggedPages []int             `json:"flagged_pages"`
			} `json:"review_summary"`
		}
		if err := json.Unmarshal(data, &report); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(report.ExportInfo.Files) != len(want)-1 {
			t.Errorf("expected %d files listed, got %d", len(want)-1, len(report.ExportInfo.Files))
		}
		if report.ReviewSummary.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", report.ReviewSummary.TotalPages)
		}
		if report.ReviewSummary.PageStatuses["1"] != "approved" {
			t.Errorf("unexpected statuses %v", report.ReviewSummary.PageStatuses)
		}
		if len(report.ReviewSummary.FlaggedPages) != 1 || report.ReviewSummary.FlaggedPages[0] != 2 {
			t.Errorf("expected flagged [2], got %v", report.ReviewSummary.FlaggedPages)
		}
	})

	t.Run("source folder untouched", func(t *testing.T) {
		t.Parallel()

		if after := listFiles(t, folder); strings.Join(after, ",") != strings.Join(before, ",") {
			t.Errorf("source folder changed: %v -> %v", before, after)
		}
	})
}

// TestConsolidator_ExportErrors tests fatal and per-file failures.
func TestConsolidator_ExportErrors(t *testing.T) {
	t.Parallel()

	t.Run("bundle directory exists", func(t *testing.T) {
		t.Parallel()

		dest := t.TempDir()
		c := NewConsolidator(model.DefaultLayout(), WithClock(fixedClock))
		s := newSession(t.TempDir())
		if _, err := c.Export(s, dest); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m, err := c.Export(s, dest)
		if !errors.Is(err, ErrBundleExists) {
			t.Errorf("expected ErrBundleExists, got %v", err)
		}
		if m != nil {
			t.Error("expected no manifest")
		}
	})

	t.Run("failed file does not stop the export", func(t *testing.T) {
		t.Parallel()

		dest := t.TempDir()
		c := NewConsolidator(model.DefaultLayout(), WithClock(fixedClock))
		diskFull := errors.New("no space left on device")
		c.writeFile = func(name string, data []byte, perm os.FileMode) error {
			if strings.HasSuffix(name, "_summary.md") {
				return diskFull
			}
			return os.WriteFile(name, data, perm)
		}

		m, err := c.Export(newSession(t.TempDir()), dest)
		if !errors.Is(err, diskFull) {
			t.Fatalf("expected the write error, got %v", err)
		}
		var ioErr *IOError
		if !errors.As(err, &ioErr) || ioErr.File != "report_summary.md" {
			t.Errorf("expected IOError for report_summary.md, got %v", err)
		}
		failed := m.Failed()
		if len(failed) != 1 || failed[0].Kind != KindSummary || failed[0].Error == "" {
			t.Errorf("unexpected failed entries %+v", failed)
		}
		for _, name := range []string{"report_final.json", reportFile, "report_tables.xlsx"} {
			if _, err := os.Stat(filepath.Join(m.Directory, name)); err != nil {
				t.Errorf("expected %s to be written: %v", name, err)
			}
		}
	})
}

// TestConsolidator_Options tests the optional bundle parts.
func TestConsolidator_Options(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	c := NewConsolidator(model.DefaultLayout(),
		WithClock(fixedClock),
		WithPageFiles(false),
		WithWorkbook(false),
	)
	m, err := c.Export(newSession(t.TempDir()), dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"export_report.json", "report_final.json", "report_summary.md"}
	if got := listFiles(t, m.Directory); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
	if m.SourcePDF != "" {
		t.Errorf("expected no source PDF, got %q", m.SourcePDF)
	}
}

// TestConsolidator_PDFSearch tests PDF discovery in extra directories.
func TestConsolidator_PDFSearch(t *testing.T) {
	t.Parallel()

	data := t.TempDir()
	writeFile(t, filepath.Join(data, "report.pdf"), "%PDF-1.4 data")

	c := NewConsolidator(model.DefaultLayout(),
		WithClock(fixedClock),
		WithPDFSearch(nil, []string{data}),
	)
	m, err := c.Export(newSession(t.TempDir()), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.SourcePDF != "report.pdf" {
		t.Errorf("expected report.pdf, got %q", m.SourcePDF)
	}
	copied, err := os.ReadFile(filepath.Join(m.Directory, "report.pdf"))
	if err != nil || string(copied) != "%PDF-1.4 data" {
		t.Errorf("expected the PDF to be copied, got %q, %v", copied, err)
	}
}

// TestMarkdownWriter tests the consolidated text rendering.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	doc := NewDocument(newSession(t.TempDir()), exportTime, "")
	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"# report - Review Summary",
		"## Document Overview",
		"```mermaid",
		"## Key Topics",
		"growth, incomplete_processing, pipeline_failure, revenue",
		"### Page 1: Revenue Überblick / Q1 (Approved)",
		"### Page 2: Incomplete Processing - Page 2 (Flagged) [Incomplete]",
		"### Page 3: Missing Data - Page 3 (Pending) [Missing]",
		"placeholder body",
		"## Table Details",
		"### Table 1: By region",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	for _, topic := range keyTopics(doc) {
		if topic == "placeholder" || topic == "needs_attention" {
			t.Errorf("expected placeholder keywords to be left out of the key topics, got %q", topic)
		}
	}

	pages := strings.Index(output, "## Pages")
	first := strings.Index(output, "### Page 1:")
	third := strings.Index(output, "### Page 3:")
	if pages < 0 || pages >= first || first >= third {
		t.Error("expected pages in order")
	}
}

// TestRenderPage tests a per-page rendering.
func TestRenderPage(t *testing.T) {
	t.Parallel()

	doc := NewDocument(newSession(t.TempDir()), exportTime, "")
	data, err := RenderPage(doc.Pages[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := string(data)
	for _, want := range []string{
		"# Page 1: Revenue Überblick / Q1",
		"**Status:** Approved",
		"## Tables",
		"### By region",
		"South",
		"## Content",
		"Revenue grew.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q\n%s", want, output)
		}
	}
}

// TestSlug tests file name slugs.
func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "spaces and slashes", title: "Revenue / Q1", want: "Revenue_Q1"},
		{name: "accents are folded", title: "Résumé Überblick", want: "Resume_Uberblick"},
		{name: "leading punctuation", title: "  --Notes", want: "Notes"},
		{name: "empty", title: "", want: "untitled"},
		{name: "only symbols", title: "!!!", want: "untitled"},
		{name: "non latin", title: "収益", want: "untitled"},
		{name: "long", title: strings.Repeat("a", 100), want: strings.Repeat("a", maxSlugLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := slug(tt.title); got != tt.want {
				t.Errorf("slug(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

// TestCellText tests table cell rendering.
func TestCellText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "string", value: "x", want: "x"},
		{name: "number", value: json.Number("1.50"), want: "1.50"},
		{name: "float", value: 2.5, want: "2.5"},
		{name: "bool", value: true, want: "true"},
		{name: "nested", value: map[string]any{"a": "b"}, want: `{"a":"b"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := cellText(tt.value); got != tt.want {
				t.Errorf("cellText(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}

	if got := escapeCell("a|b\nc"); got != `a\|b c` {
		t.Errorf("escapeCell = %q", got)
	}
}

// TestWorkbook tests the table workbook.
func TestWorkbook(t *testing.T) {
	t.Parallel()

	doc := NewDocument(newSession(t.TempDir()), exportTime, "")
	data, err := Workbook(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Pages" || sheets[1] != "P1 T1 By region" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows("Pages")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[3][2] != "missing" {
		t.Errorf("unexpected overview rows %v", rows)
	}

	rows, err = f.GetRows("P1 T1 By region")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][0] != "Region" || rows[1][1] != "120" || rows[2][0] != "South|East" {
		t.Errorf("unexpected table rows %v", rows)
	}
}

// TestSheetName tests sheet name limits.
func TestSheetName(t *testing.T) {
	t.Parallel()

	used := map[string]bool{}
	long := sheetName(12, 3, "A very long table title: with [forbidden] chars?", used)
	if len([]rune(long)) > maxSheetNameLen {
		t.Errorf("sheet name too long: %q", long)
	}
	if strings.ContainsAny(long, `[]:*?/\`) {
		t.Errorf("sheet name has forbidden characters: %q", long)
	}
	if !strings.HasPrefix(long, "P12 T3 ") {
		t.Errorf("expected page and table prefix, got %q", long)
	}

	first := sheetName(1, 1, "", used)
	if first != "P1 T1" {
		t.Errorf("expected P1 T1, got %q", first)
	}
	if again := sheetName(1, 1, "", used); again == first {
		t.Errorf("expected a unique name, got %q twice", again)
	}
}
