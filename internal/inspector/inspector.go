package inspector

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/inspector/internal/config"
	"github.com/nao1215/inspector/internal/export"
	"github.com/nao1215/inspector/internal/model"
	"github.com/nao1215/inspector/internal/persist"
	"github.com/nao1215/inspector/internal/reconcile"
	"github.com/nao1215/inspector/internal/review"
	"github.com/nao1215/inspector/internal/source"
)

// Inspector opens, saves and exports document folders.
type Inspector struct {
	cfg      *config.Config
	layout   model.Layout
	logger   *slog.Logger
	now      func() time.Time
	counter  reconcile.PageCounter
	loader   *source.Loader
	writer   *persist.Writer
	exporter *export.Consolidator
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Inspector) {
		in.logger = logger
	}
}

// WithPageCounter replaces the PDF page counter.
func WithPageCounter(counter reconcile.PageCounter) Option {
	return func(in *Inspector) {
		in.counter = counter
	}
}

// WithClock sets the time source for save stamps and export bundle names.
func WithClock(now func() time.Time) Option {
	return func(in *Inspector) {
		in.now = now
	}
}

// New creates an Inspector from the configuration.
func New(cfg *config.Config, opts ...Option) *Inspector {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	in := &Inspector{
		cfg:    cfg,
		layout: cfg.Layout().WithDefaults(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = slog.Default()
	}
	if in.counter == nil {
		in.counter = reconcile.NewPDFCounter(cfg.MaxPDFSize)
	}

	in.loader = source.NewLoader(in.layout, source.WithLogger(in.logger))
	in.writer = persist.NewWriter(in.layout,
		persist.WithLogger(in.logger),
		persist.WithClock(in.now),
	)
	in.exporter = export.NewConsolidator(in.layout,
		export.WithLogger(in.logger),
		export.WithClock(in.now),
		export.WithPDFSearch(cfg.PDFCandidates, cfg.PDFDirs),
		export.WithSideFiles(cfg.SideFiles...),
		export.WithPageFiles(cfg.PageFiles),
		export.WithWorkbook(cfg.Workbook),
	)
	return in
}

// Session is an opened document folder. It embeds the review store, so
// reviewer actions are called on it directly.
type Session struct {
	*review.Store
}

// Model returns the underlying review session.
func (s *Session) Model() *model.ReviewSession {
	return s.Store.Session()
}

// Open loads a document folder into a review session.
//
// A folder with neither recognized layout fails with a source.SchemaError.
// Per-page problems never fail the open; they end up in the session's
// LoadErrors and the affected pages become placeholders.
func (in *Inspector) Open(folder string) (*Session, error) {
	res, err := in.loader.Load(folder)
	if err != nil {
		return nil, err
	}

	metaPath := filepath.Join(folder, in.layout.MetadataFile)
	meta, err := review.ReadMetadata(metaPath)
	if err != nil {
		in.logger.Warn("ignoring unreadable review metadata",
			slog.String("path", metaPath),
			slog.String("error", err.Error()),
		)
		meta = &review.Metadata{}
	}

	pdf, _ := source.FindPDF(folder, res.DocumentName, in.cfg.PDFCandidates, in.cfg.PDFDirs)
	count := reconcile.AuthoritativeCount(in.counter, pdf, in.logger)

	// A portfolio tag kept only in document_info marks the document as
	// edited just like one kept in the metadata file.
	portfolio := documentPortfolio(res.DocumentInfo)
	preferStored := meta.Edited() || portfolio != ""

	rec, err := reconcile.Reconcile(res.Pages, count, reconcile.Options{PreferStored: preferStored})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile %s: %w", folder, err)
	}
	if len(rec.Extra) > 0 {
		in.logger.Warn("pages beyond the PDF page count are ignored",
			slog.String("folder", folder),
			slog.Int("count", count),
			slog.Any("pages", rec.Extra),
		)
	}

	s := model.NewReviewSession(folder, res.Kind)
	s.DocumentName = res.DocumentName
	s.SourcePDF = pdf
	s.CountMode = rec.Mode
	s.Pages = rec.Pages
	s.MissingPages = rec.Missing
	s.IncompletePages = rec.Incomplete
	s.ExtraPages = rec.Extra
	s.LoadErrors = res.ErrorList()

	review.Restore(s, meta, in.logger)
	if !s.HasPortfolio() {
		s.PortfolioTag = portfolio
	}

	in.logger.Debug("document opened",
		slog.String("folder", folder),
		slog.String("document", s.DocumentName),
		slog.String("schema", s.Kind.String()),
		slog.String("count_mode", string(s.CountMode)),
		slog.Int("pages", s.PageCount()),
		slog.Int("missing", len(s.MissingPages)),
		slog.Int("incomplete", len(s.IncompletePages)),
		slog.Int("useless", len(s.UselessPages)),
		slog.Int("load_errors", len(s.LoadErrors)),
	)

	return &Session{Store: review.NewStore(s, review.WithLogger(in.logger))}, nil
}

// Save writes the session back to its folder.
func (in *Inspector) Save(s *Session) (*persist.SaveResult, error) {
	return in.writer.Save(s.Model())
}

// Export builds an export bundle under destRoot, or under the configured
// export directory when destRoot is empty.
func (in *Inspector) Export(s *Session, destRoot string) (*export.Manifest, error) {
	if destRoot == "" {
		destRoot = in.cfg.ExportDir
	}
	return in.exporter.Export(s.Model(), destRoot)
}

// documentPortfolio reads a portfolio tag stored in document_info.
func documentPortfolio(info map[string]any) string {
	if info == nil {
		return ""
	}
	tag, ok := info["portfolio"].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(tag)
}
