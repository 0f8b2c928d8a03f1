package export

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/nao1215/inspector/internal/model"
	"golang.org/x/crypto/blake2b"
)

// FileKind identifies the role of a file in the bundle.
type FileKind string

const (
	KindSourcePDF   FileKind = "source_pdf"
	KindJSON        FileKind = "consolidated_json"
	KindSummary     FileKind = "summary_markdown"
	KindPage        FileKind = "page_markdown"
	KindWorkbook    FileKind = "table_workbook"
	KindSideChannel FileKind = "metadata"
	KindReport      FileKind = "export_report"
)

// FileEntry describes one file of the bundle.
type FileEntry struct {
	// Path is relative to the bundle directory.
	Path     string   `json:"path"`
	Kind     FileKind `json:"kind"`
	Size     int64    `json:"size"`
	Checksum string   `json:"blake2b_256,omitempty"`

	// Error is set when the file could not be written.
	Error string `json:"error,omitempty"`
}

// Manifest describes every file an export attempted to write.
type Manifest struct {
	Document   string             `json:"document_name"`
	SourcePDF  string             `json:"original_document,omitempty"`
	Directory  string             `json:"directory"`
	ExportedAt time.Time          `json:"export_date"`
	Files      []FileEntry        `json:"files"`
	Summary    model.ReviewCounts `json:"-"`

	errs []error
}

// Written returns the entries of the files that were written.
func (m *Manifest) Written() []FileEntry {
	out := make([]FileEntry, 0, len(m.Files))
	for _, f := range m.Files {
		if f.Error == "" {
			out = append(out, f)
		}
	}
	return out
}

// Failed returns the entries of the files that could not be written.
func (m *Manifest) Failed() []FileEntry {
	out := make([]FileEntry, 0)
	for _, f := range m.Files {
		if f.Error != "" {
			out = append(out, f)
		}
	}
	return out
}

// TotalSize returns the number of bytes written.
func (m *Manifest) TotalSize() int64 {
	var n int64
	for _, f := range m.Files {
		n += f.Size
	}
	return n
}

// Err joins the per-file errors. It is nil when every file was written.
func (m *Manifest) Err() error {
	return errors.Join(m.errs...)
}

func (m *Manifest) add(path string, kind FileKind, data []byte) {
	sum := blake2b.Sum256(data)
	m.Files = append(m.Files, FileEntry{
		Path:     path,
		Kind:     kind,
		Size:     int64(len(data)),
		Checksum: hex.EncodeToString(sum[:]),
	})
}

func (m *Manifest) fail(path string, kind FileKind, err error) {
	ioErr := &IOError{File: path, Err: err}
	m.errs = append(m.errs, ioErr)
	m.Files = append(m.Files, FileEntry{Path: path, Kind: kind, Error: err.Error()})
}

// Report is the content of export_report.json.
type Report struct {
	ExportInfo    *Manifest     `json:"export_info"`
	ReviewSummary ReviewSummary `json:"review_summary"`
}

// ReviewSummary is the review part of the export report.
type ReviewSummary struct {
	model.ReviewCounts

	ProgressPercent float64 `json:"progress_percent"`

	// PageStatuses maps 1-based page numbers to their review status.
	PageStatuses map[int]string `json:"page_statuses"`
	FlaggedPages []int          `json:"flagged_pages"`
	Portfolio    *string        `json:"portfolio"`
}

func newReport(m *Manifest, s *model.ReviewSession) *Report {
	summary := ReviewSummary{
		ReviewCounts:    m.Summary,
		ProgressPercent: m.Summary.Progress(),
		PageStatuses:    make(map[int]string, len(s.Pages)),
		FlaggedPages:    s.PagesWithStatus(model.StatusFlagged),
	}
	for _, p := range s.Pages {
		summary.PageStatuses[p.PDFPageNumber] = p.ReviewStatus.String()
	}
	if s.HasPortfolio() {
		tag := s.PortfolioTag
		summary.Portfolio = &tag
	}
	return &Report{ExportInfo: m, ReviewSummary: summary}
}
