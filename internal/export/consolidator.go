package export

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/inspector/internal/model"
	"github.com/nao1215/inspector/internal/source"
)

const (
	bundleTimestamp = "20060102_150405"
	pagesDir        = "pages"
	reportFile      = "export_report.json"
)

// Consolidator builds export bundles.
type Consolidator struct {
	layout        model.Layout
	logger        *slog.Logger
	now           func() time.Time
	pdfCandidates []string
	pdfDirs       []string
	sideFiles     []string
	pageFiles     bool
	workbook      bool

	writeFile func(name string, data []byte, perm os.FileMode) error
}

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consolidator) {
		c.logger = logger
	}
}

// WithClock sets the time source for the bundle name and export date.
func WithClock(now func() time.Time) Option {
	return func(c *Consolidator) {
		c.now = now
	}
}

// WithPDFSearch sets the file name candidates and extra directories used to
// find the source PDF when the session does not already know it.
func WithPDFSearch(candidates, dirs []string) Option {
	return func(c *Consolidator) {
		c.pdfCandidates = candidates
		c.pdfDirs = dirs
	}
}

// WithSideFiles adds side-channel files, relative to the document folder,
// that are copied into the bundle when they exist.
func WithSideFiles(names ...string) Option {
	return func(c *Consolidator) {
		c.sideFiles = append(c.sideFiles, names...)
	}
}

// WithPageFiles toggles the per-page markdown files.
func WithPageFiles(enabled bool) Option {
	return func(c *Consolidator) {
		c.pageFiles = enabled
	}
}

// WithWorkbook toggles the table workbook.
func WithWorkbook(enabled bool) Option {
	return func(c *Consolidator) {
		c.workbook = enabled
	}
}

// NewConsolidator creates a Consolidator for the given folder layout.
// The review metadata file is always copied when it exists.
func NewConsolidator(layout model.Layout, opts ...Option) *Consolidator {
	c := &Consolidator{
		layout:    layout.WithDefaults(),
		now:       time.Now,
		pageFiles: true,
		workbook:  true,
		writeFile: os.WriteFile,
	}
	c.sideFiles = []string{c.layout.MetadataFile}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// bundle tracks one export in progress.
type bundle struct {
	c        *Consolidator
	dir      string
	manifest *Manifest
}

// Export writes the bundle of s into a fresh directory under destRoot.
//
// The returned error is non-nil when the bundle directory cannot be created,
// in which case the manifest is nil, or when one or more files failed, in
// which case the manifest lists every file with its outcome.
func (c *Consolidator) Export(s *model.ReviewSession, destRoot string) (*Manifest, error) {
	now := c.now()
	name := s.DocumentName
	if name == "" {
		name = source.DocumentName(nil, s.Folder)
	}

	if err := os.MkdirAll(destRoot, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create export root %s: %w", destRoot, err)
	}
	dir := filepath.Join(destRoot, fmt.Sprintf("%s_final_%s", name, now.Format(bundleTimestamp)))
	if err := os.Mkdir(dir, 0o750); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrBundleExists, dir)
		}
		return nil, fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}

	b := &bundle{
		c:   c,
		dir: dir,
		manifest: &Manifest{
			Document:   name,
			Directory:  dir,
			ExportedAt: now,
			Files:      make([]FileEntry, 0),
			Summary:    s.Counts(),
		},
	}

	pdf := c.sourcePDF(s, name)
	if pdf != "" {
		b.manifest.SourcePDF = filepath.Base(pdf)
		b.copy(name+".pdf", KindSourcePDF, pdf)
	}

	doc := NewDocument(s, now, b.manifest.SourcePDF)
	b.writeJSON(name+"_final.json", doc)
	b.writeSummary(name+"_summary.md", doc)
	if c.pageFiles {
		b.writePages(doc)
	}
	if c.workbook && extractedTables(doc) > 0 {
		b.writeWorkbook(name+"_tables.xlsx", doc)
	}
	copied := make(map[string]bool)
	for _, side := range c.sideFiles {
		if side == "" || copied[side] {
			continue
		}
		copied[side] = true
		path := filepath.Join(s.Folder, side)
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}
		b.copy(filepath.Base(side), KindSideChannel, path)
	}
	b.writeReport(s)

	m := b.manifest
	c.logger.Info("export finished",
		slog.String("document", name),
		slog.String("dir", dir),
		slog.Int("files", len(m.Written())),
		slog.Int("failed", len(m.Failed())),
	)
	return m, m.Err()
}

// sourcePDF returns the PDF to copy, empty when none is found.
func (c *Consolidator) sourcePDF(s *model.ReviewSession, name string) string {
	if s.SourcePDF != "" {
		if info, err := os.Stat(s.SourcePDF); err == nil && info.Mode().IsRegular() {
			return s.SourcePDF
		}
	}
	path, ok := source.FindPDF(s.Folder, name, c.pdfCandidates, c.pdfDirs)
	if !ok {
		return ""
	}
	return path
}

func (b *bundle) write(rel string, kind FileKind, data []byte) {
	path := filepath.Join(b.dir, rel)
	if err := b.c.writeFile(path, data, 0o600); err != nil {
		b.failed(rel, kind, err)
		return
	}
	b.manifest.add(filepath.ToSlash(rel), kind, data)
}

func (b *bundle) failed(rel string, kind FileKind, err error) {
	b.c.logger.Warn("failed to write export file",
		slog.String("file", rel),
		slog.String("error", err.Error()),
	)
	b.manifest.fail(filepath.ToSlash(rel), kind, err)
}

// copy streams src into the bundle while hashing it.
func (b *bundle) copy(rel string, kind FileKind, src string) {
	size, sum, err := copyFile(filepath.Join(b.dir, rel), src)
	if err != nil {
		b.failed(rel, kind, err)
		return
	}
	b.manifest.Files = append(b.manifest.Files, FileEntry{
		Path:     filepath.ToSlash(rel),
		Kind:     kind,
		Size:     size,
		Checksum: sum,
	})
}

func (b *bundle) writeJSON(rel string, doc *Document) {
	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(doc); err != nil {
		b.failed(rel, KindJSON, err)
		return
	}
	b.write(rel, KindJSON, buf.Bytes())
}

func (b *bundle) writeSummary(rel string, doc *Document) {
	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(doc); err != nil {
		b.failed(rel, KindSummary, err)
		return
	}
	b.write(rel, KindSummary, buf.Bytes())
}

func (b *bundle) writePages(doc *Document) {
	if err := os.Mkdir(filepath.Join(b.dir, pagesDir), 0o750); err != nil {
		b.failed(pagesDir, KindPage, err)
		return
	}
	for _, p := range doc.Pages {
		rel := filepath.Join(pagesDir, PageFileName(p))
		data, err := RenderPage(p)
		if err != nil {
			b.failed(rel, KindPage, err)
			continue
		}
		b.write(rel, KindPage, data)
	}
}

func (b *bundle) writeWorkbook(rel string, doc *Document) {
	data, err := Workbook(doc)
	if err != nil {
		b.failed(rel, KindWorkbook, err)
		return
	}
	b.write(rel, KindWorkbook, data)
}

// writeReport writes export_report.json. It lists every other file; its own
// entry is added to the returned manifest after it is written.
func (b *bundle) writeReport(s *model.ReviewSession) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithPrettyPrint())
	if _, err := w.writeJSON(newReport(b.manifest, s)); err != nil {
		b.failed(reportFile, KindReport, err)
		return
	}
	b.write(reportFile, KindReport, buf.Bytes())
}

func copyFile(dst, src string) (int64, string, error) {
	in, err := os.Open(src) //nolint:gosec // source paths come from the document folder
	if err != nil {
		return 0, "", err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // dst is inside the fresh bundle directory
	if err != nil {
		return 0, "", err
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		_ = out.Close()
		return 0, "", err
	}
	n, err := io.Copy(io.MultiWriter(out, h), in)
	if err != nil {
		_ = out.Close()
		return n, "", err
	}
	if err := out.Close(); err != nil {
		return n, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
