package source

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDocumentName tests document name resolution.
func TestDocumentName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		info   map[string]any
		folder string
		want   string
	}{
		{"from document info", map[string]any{"document_name": "temp_q3.pdf"}, "/x/ignored", "q3"},
		{"blank info falls back to folder", map[string]any{"document_name": " "}, "/x/q4_20240101_120000", "q4"},
		{"folder without timestamp", nil, "/x/temp_budget.pdf", "budget"},
		{"timestamp only stripped at the end", nil, "/x/a_20240101_120000_b", "a_20240101_120000_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DocumentName(tt.info, tt.folder); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestParsePageID tests page identifier parsing.
func TestParsePageID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"page_1", 1, true},
		{"PAGE_12", 12, true},
		{"doc_page_7", 7, true},
		{"page_0", 0, false},
		{"page", 0, false},
		{"cover", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParsePageID(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

// TestFindPDF tests source PDF discovery order.
func TestFindPDF(t *testing.T) {
	t.Parallel()

	t.Run("folder candidates before extra directories", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		folder := filepath.Join(root, "doc")
		data := filepath.Join(root, "data")
		writeFile(t, filepath.Join(folder, "temp_report.pdf"), "%PDF")
		writeFile(t, filepath.Join(data, "report.pdf"), "%PDF")

		got, ok := FindPDF(folder, "report", nil, []string{data})
		if !ok || got != filepath.Join(folder, "temp_report.pdf") {
			t.Errorf("expected folder candidate, got %q (ok=%v)", got, ok)
		}
	})

	t.Run("falls back to extra directories", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		folder := filepath.Join(root, "doc")
		data := filepath.Join(root, "data")
		if err := os.MkdirAll(folder, 0o750); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(data, "report.pdf"), "%PDF")

		got, ok := FindPDF(folder, "report", nil, []string{data})
		if !ok || got != filepath.Join(data, "report.pdf") {
			t.Errorf("expected data candidate, got %q (ok=%v)", got, ok)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Parallel()

		if _, ok := FindPDF(t.TempDir(), "report", nil, nil); ok {
			t.Error("expected no PDF")
		}
	})
}
