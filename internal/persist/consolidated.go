package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/inspector/internal/model"
	"github.com/nao1215/inspector/internal/source"
)

// saveConsolidated merges the session into the consolidated file.
func (w *Writer) saveConsolidated(s *model.ReviewSession, stamp time.Time, res *SaveResult) error {
	path := filepath.Join(s.Folder, w.layout.ConsolidatedFile)

	doc, err := source.ReadDocument(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		doc = &source.Document{Root: map[string]any{}, Pages: []any{}}
	case err != nil:
		return fmt.Errorf("failed to read %s before save: %w", path, err)
	}

	root := doc.Root
	if root == nil {
		// Bare pages array: upgrade to the object form.
		root = map[string]any{}
	}

	pages := doc.Pages
	byNumber := make(map[int]map[string]any, len(pages))
	for i, entry := range pages {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		n := source.PageNumber(m, i)
		if _, dup := byNumber[n]; !dup {
			byNumber[n] = m
		}
	}

	for _, p := range s.Pages {
		if !pageIsWritten(p) {
			continue
		}
		entry, ok := byNumber[p.PDFPageNumber]
		if !ok {
			if !p.Dirty {
				continue
			}
			entry = map[string]any{
				"page_id":     pageID(p),
				"page_number": p.PDFPageNumber,
			}
			pages = append(pages, entry)
			byNumber[p.PDFPageNumber] = entry
		}
		w.applyPage(entry, p, "raw_content", rowsKeyConsolidated)
	}

	info, _ := root["document_info"].(map[string]any)
	if info == nil {
		info = map[string]any{}
	}
	previousStamp, _ := info["last_updated"].(string)
	w.applyDocumentInfo(info, s)
	root["document_info"] = info
	root["pages"] = pages

	if previousStamp != "" {
		info["last_updated"] = previousStamp
		same, err := w.sameContent(path, root)
		if err != nil {
			return err
		}
		if same {
			res.record(path, false)
			return nil
		}
	}
	info["last_updated"] = stamp.Format(time.RFC3339)

	data, err := encodeJSON(path, root)
	if err != nil {
		return err
	}
	written, err := w.files.writeIfChanged(path, data)
	if err != nil {
		return err
	}
	res.record(path, written)
	return nil
}

// applyDocumentInfo sets the engine-owned document_info fields.
func (w *Writer) applyDocumentInfo(info map[string]any, s *model.ReviewSession) {
	counts := s.Counts()
	if name, _ := info["document_name"].(string); name == "" && s.DocumentName != "" {
		info["document_name"] = s.DocumentName
	}
	info["total_pages"] = counts.TotalPages
	info["total_tables"] = writtenTables(s)
	if s.HasPortfolio() {
		info["portfolio"] = s.PortfolioTag
	} else {
		info["portfolio"] = nil
	}
	info["review_status"] = map[string]any{
		"approved_pages":   counts.Approved,
		"flagged_pages":    counts.Flagged,
		"total_reviewed":   counts.Reviewed(),
		"missing_pages":    counts.Missing,
		"incomplete_pages": counts.Incomplete,
		"useless_pages":    counts.Useless,
	}
}

// writtenTables counts the tables of pages that are not placeholders.
func writtenTables(s *model.ReviewSession) int {
	total := 0
	for _, p := range s.Pages {
		if p.Classification != model.ClassificationMissing {
			total += len(p.Tables)
		}
	}
	return total
}

func pageID(p *model.PageRecord) string {
	if p.PageID != "" {
		return p.PageID
	}
	return model.PageIDFor(p.PDFPageNumber)
}

// ensureDir creates dir when it does not exist.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &AtomicWriteError{Path: dir, Op: "mkdir", Err: err}
	}
	return nil
}
