package source

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nao1215/inspector/internal/model"
)

// StructuredPage is the structured extraction record of one page.
type StructuredPage struct {
	Title    string
	Summary  string
	Keywords []string
	Tables   []model.TableRecord

	// Content is the text stored with the record ("raw_content" or "content").
	Content string

	// HasContent is set when the record carried a content field at all.
	HasContent bool
}

// HasData reports whether the record holds any extracted data.
func (p *StructuredPage) HasData() bool {
	if p == nil {
		return false
	}
	return p.Title != "" || p.Summary != "" || p.Content != "" ||
		len(p.Keywords) > 0 || len(p.Tables) > 0
}

// RawPage is everything found on disk for one page number.
type RawPage struct {
	// PageID is the identifier the page carried, if any.
	PageID string

	// Structured is the structured record, nil when none was found.
	Structured *StructuredPage

	// Rendering is the first-pass plain-text rendering.
	Rendering string

	// HasRendering is set when a rendering file exists for the page.
	HasRendering bool
}

// Result is the outcome of loading a document folder.
type Result struct {
	// Kind is the detected on-disk layout.
	Kind model.SchemaKind

	// Pages maps page numbers to what was found for them. Pages whose
	// structured record failed to load are absent.
	Pages map[int]RawPage

	// Errors lists the per-page failures absorbed during the load.
	Errors []*PageLoadError

	// DocumentInfo is the document_info object of a consolidated file.
	DocumentInfo map[string]any

	// DocumentName is the clean document base name.
	DocumentName string
}

// MaxPage returns the highest page number observed, or 0.
func (r *Result) MaxPage() int {
	maxPage := 0
	for n := range r.Pages {
		if n > maxPage {
			maxPage = n
		}
	}
	return maxPage
}

// ErrorList returns the page errors as plain errors.
func (r *Result) ErrorList() []error {
	out := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e)
	}
	return out
}

// Loader reads document folders.
type Loader struct {
	layout model.Layout
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used to report absorbed page errors.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader for the given folder layout.
func NewLoader(layout model.Layout, opts ...Option) *Loader {
	l := &Loader{
		layout: layout.WithDefaults(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load detects the layout of folder and reads every page in it.
// A *SchemaError is returned when no layout is recognized. Per-page failures
// never fail the load; they are collected in Result.Errors.
func (l *Loader) Load(folder string) (*Result, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to open document folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to open document folder: %s is not a directory", folder)
	}

	var reasons []string

	consolidatedPath := filepath.Join(folder, l.layout.ConsolidatedFile)
	doc, err := ReadDocument(consolidatedPath)
	switch {
	case err == nil:
		return l.finish(folder, l.loadConsolidated(folder, consolidatedPath, doc)), nil
	case errors.Is(err, fs.ErrNotExist):
		reasons = append(reasons, l.layout.ConsolidatedFile+" not found")
	default:
		reasons = append(reasons, err.Error())
	}

	structuredDir := filepath.Join(folder, l.layout.StructuredDir)
	renderingDir := filepath.Join(folder, l.layout.RenderingDir)
	if isDir(structuredDir) && isDir(renderingDir) {
		return l.finish(folder, l.loadLegacy(structuredDir, renderingDir)), nil
	}
	reasons = append(reasons, fmt.Sprintf("%s/ and %s/ not both present", l.layout.StructuredDir, l.layout.RenderingDir))

	return nil, &SchemaError{Folder: folder, Reason: strings.Join(reasons, "; ")}
}

// loadConsolidated decodes every page entry of a consolidated document and
// attaches renderings when the rendering directory exists.
func (l *Loader) loadConsolidated(folder, path string, doc *Document) *Result {
	res := newResult(model.SchemaConsolidated)
	res.DocumentInfo = doc.Info()

	failed := make(map[int]bool)
	for i, entry := range doc.Pages {
		n := PageNumber(entry, i)
		if err := ValidatePage(entry); err != nil {
			if _, ok := res.Pages[n]; !ok {
				failed[n] = true
			}
			res.addError(n, path, err)
			continue
		}
		if _, dup := res.Pages[n]; dup {
			res.addError(n, path, fmt.Errorf("%w: entry %d", ErrDuplicatePage, i))
			continue
		}
		m, _ := entry.(map[string]any)
		delete(failed, n)
		res.Pages[n] = RawPage{
			PageID:     stringValue(m["page_id"]),
			Structured: decodeStructured(m),
		}
	}

	renderingDir := filepath.Join(folder, l.layout.RenderingDir)
	if isDir(renderingDir) {
		l.attachRenderings(res, renderingDir, failed)
	}
	return res
}

// loadLegacy reads page_<N>.json records and page_<N>.md renderings.
func (l *Loader) loadLegacy(structuredDir, renderingDir string) *Result {
	res := newResult(model.SchemaLegacyPerPage)

	failed := make(map[int]bool)
	for n, path := range PageFiles(structuredDir, ".json") {
		sp, err := readStructured(path)
		if err != nil {
			failed[n] = true
			res.addError(n, path, err)
			continue
		}
		res.Pages[n] = RawPage{PageID: model.PageIDFor(n), Structured: sp}
	}
	l.attachRenderings(res, renderingDir, failed)
	return res
}

// attachRenderings adds page_<N>.md renderings to the result. Pages whose
// structured record failed stay absent.
func (l *Loader) attachRenderings(res *Result, dir string, failed map[int]bool) {
	for n, path := range PageFiles(dir, ".md") {
		if failed[n] {
			continue
		}
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the document folder
		if err != nil {
			res.addError(n, path, err)
			continue
		}
		page := res.Pages[n]
		if page.PageID == "" {
			page.PageID = model.PageIDFor(n)
		}
		page.Rendering = string(data)
		page.HasRendering = true
		res.Pages[n] = page
	}
}

// finish resolves the document name, orders errors and logs them.
func (l *Loader) finish(folder string, res *Result) *Result {
	res.DocumentName = DocumentName(res.DocumentInfo, folder)
	sort.SliceStable(res.Errors, func(i, j int) bool {
		return res.Errors[i].Page < res.Errors[j].Page
	})
	for _, e := range res.Errors {
		l.logger.Warn("page could not be loaded",
			slog.Int("page", e.Page),
			slog.String("path", e.Path),
			slog.String("error", e.Err.Error()),
		)
	}
	l.logger.Debug("document folder loaded",
		slog.String("folder", folder),
		slog.String("schema", res.Kind.String()),
		slog.Int("pages", len(res.Pages)),
		slog.Int("errors", len(res.Errors)),
	)
	return res
}

func newResult(kind model.SchemaKind) *Result {
	return &Result{
		Kind:   kind,
		Pages:  make(map[int]RawPage),
		Errors: make([]*PageLoadError, 0),
	}
}

func (r *Result) addError(page int, path string, err error) {
	r.Errors = append(r.Errors, &PageLoadError{Page: page, Path: path, Err: err})
}

// readStructured reads and validates one page_<N>.json record.
func readStructured(path string) (*StructuredPage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the document folder
	if err != nil {
		return nil, err
	}
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}
	if err := ValidatePage(v); err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	return decodeStructured(m), nil
}

// decodeStructured converts a validated page object.
func decodeStructured(m map[string]any) *StructuredPage {
	sp := &StructuredPage{
		Title:    stringValue(m["title"]),
		Summary:  stringValue(m["summary"]),
		Keywords: stringSlice(m["keywords"]),
		Tables:   decodeTables(m["tables"]),
	}
	for _, key := range []string{"raw_content", "content"} {
		if v, ok := m[key]; ok && v != nil {
			sp.Content = stringValue(v)
			sp.HasContent = true
			break
		}
	}
	return sp
}

// PageFiles maps page numbers to the files in dir with the given extension
// whose names match page_<N>. Other files are ignored. When several files
// resolve to the same page, the canonical page_<N> name wins, then the first
// name in directory order.
func PageFiles(dir, ext string) map[int]string {
	out := make(map[int]string)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		n, ok := ParsePageID(stem)
		if !ok {
			continue
		}
		if _, dup := out[n]; dup && stem != model.PageIDFor(n) {
			continue
		}
		out[n] = filepath.Join(dir, e.Name())
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
