package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/inspector/internal/model"
	"github.com/nao1215/inspector/internal/source"
)

// saveLegacy writes each non-placeholder page back to the record file it was
// loaded from, or to page_<N>.json when the page had none. Unknown fields of
// an existing record are kept.
func (w *Writer) saveLegacy(s *model.ReviewSession, res *SaveResult) error {
	dir := filepath.Join(s.Folder, w.layout.StructuredDir)
	if err := ensureDir(dir); err != nil {
		return err
	}

	existing := source.PageFiles(dir, ".json")
	for _, p := range s.Pages {
		if !pageIsWritten(p) {
			continue
		}
		path, ok := existing[p.PDFPageNumber]
		if !ok {
			path = filepath.Join(dir, model.PageIDFor(p.PDFPageNumber)+".json")
		}

		entry, err := readRecord(path)
		if err != nil {
			return err
		}
		w.applyPage(entry, p, "content", rowsKeyLegacy)

		data, err := encodeJSON(path, entry)
		if err != nil {
			return err
		}
		written, err := w.files.writeIfChanged(path, data)
		if err != nil {
			return err
		}
		res.record(path, written)
	}
	return nil
}

// readRecord returns the existing record at path as an object. A missing or
// unreadable record starts empty; the load already reported it.
func readRecord(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the document folder
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s before save: %w", path, err)
	}
	v, err := source.DecodeJSON(data)
	if err != nil {
		return map[string]any{}, nil //nolint:nilerr // a malformed record is replaced
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return m, nil
}
