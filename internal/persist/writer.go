package persist

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/inspector/internal/model"
	"github.com/nao1215/inspector/internal/review"
)

// Writer saves review sessions.
type Writer struct {
	layout model.Layout
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
	files  *fileWriter
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithClock sets the time source used for last_updated stamps.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// WithIDGenerator sets the identifier source for appended tables.
func WithIDGenerator(newID func() string) Option {
	return func(w *Writer) {
		w.newID = newID
	}
}

// NewWriter creates a Writer for the given folder layout.
func NewWriter(layout model.Layout, opts ...Option) *Writer {
	w := &Writer{
		layout: layout.WithDefaults(),
		now:    time.Now,
		newID:  uuid.NewString,
		files:  newFileWriter(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// SaveResult lists the files a save replaced.
type SaveResult struct {
	// Written are the files whose content changed.
	Written []string

	// Unchanged are the files that already held the saved content.
	Unchanged []string
}

func (r *SaveResult) record(path string, written bool) {
	if written {
		r.Written = append(r.Written, path)
	} else {
		r.Unchanged = append(r.Unchanged, path)
	}
}

// Save writes the session into the layout it was loaded from, then writes
// the review metadata file. Errors are never absorbed: on failure the file
// being written is left as it was and the error is returned. Dirty marks are
// cleared only after everything was written.
func (w *Writer) Save(s *model.ReviewSession) (*SaveResult, error) {
	res := &SaveResult{}
	stamp := w.now().UTC()

	var err error
	switch s.Kind {
	case model.SchemaConsolidated:
		err = w.saveConsolidated(s, stamp, res)
	case model.SchemaLegacyPerPage:
		err = w.saveLegacy(s, res)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedSchema, s.Kind)
	}
	if err != nil {
		return nil, err
	}

	if err := w.saveMetadata(s, stamp, res); err != nil {
		return nil, err
	}

	for _, p := range s.Pages {
		p.Dirty = false
	}
	w.logger.Info("review session saved",
		slog.String("folder", s.Folder),
		slog.Int("written", len(res.Written)),
		slog.Int("unchanged", len(res.Unchanged)),
	)
	return res, nil
}

// saveMetadata writes the review metadata file. The previous last_updated
// stamp is kept when nothing else changed.
func (w *Writer) saveMetadata(s *model.ReviewSession, stamp time.Time, res *SaveResult) error {
	path := filepath.Join(s.Folder, w.layout.MetadataFile)
	meta := review.NewMetadata(s, stamp)

	if previous, err := review.ReadMetadata(path); err == nil && previous.LastUpdated != "" {
		fresh := meta.LastUpdated
		meta.LastUpdated = previous.LastUpdated
		same, err := w.sameContent(path, meta)
		if err != nil {
			return err
		}
		if same {
			res.record(path, false)
			return nil
		}
		meta.LastUpdated = fresh
	}

	data, err := encodeJSON(path, meta)
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

// sameContent reports whether encoding v gives the current content of path.
func (w *Writer) sameContent(path string, v any) (bool, error) {
	data, err := encodeJSON(path, v)
	if err != nil {
		return false, err
	}
	return fileEquals(path, data), nil
}

// pageIsWritten reports whether a page goes to disk. Missing placeholders
// never do; incomplete pages only once a reviewer edited them.
func pageIsWritten(p *model.PageRecord) bool {
	switch p.Classification {
	case model.ClassificationMissing:
		return false
	case model.ClassificationIncomplete:
		return p.Dirty
	default:
		return true
	}
}

// applyPage sets the engine-owned fields of an on-disk page object.
func (w *Writer) applyPage(entry map[string]any, p *model.PageRecord, contentKey, rowsKey string) {
	entry["title"] = p.Title
	entry["summary"] = p.Summary
	entry["keywords"] = append([]string{}, p.Keywords...)
	entry[contentKey] = p.Content
	if contentKey != "content" {
		if _, ok := entry["content"]; ok {
			entry["content"] = p.Content
		}
	}
	if p.IsUseless() {
		entry["tables"] = replaceTables(p.Tables, rowsKey, w.newID)
		return
	}
	entry["tables"] = writeTables(entry["tables"], p.Tables, rowsKey, w.newID)
}
