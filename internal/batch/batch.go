package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/inspector/internal/inspector"
)

// DefaultConcurrency is the number of folders summarized at once.
const DefaultConcurrency = 4

// SummarizeFunc digests one document folder.
type SummarizeFunc func(folder string) (*inspector.Summary, error)

// Processor summarizes document folders concurrently.
type Processor struct {
	summarize   SummarizeFunc
	concurrency int
	logger      *slog.Logger

	// results is indexed like the input folders.
	results []*inspector.Summary
	mu      sync.Mutex
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger for batch-level logging.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithConcurrency sets the maximum number of folders summarized at once.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewProcessor creates a Processor around summarize.
func NewProcessor(summarize SummarizeFunc, opts ...Option) *Processor {
	p := &Processor{
		summarize:   summarize,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Process summarizes every folder and returns the summaries in input order.
// A folder that fails yields a Summary with only Folder and Err set. The
// returned error is non-nil only when ctx was cancelled; folders not
// started by then are left nil.
func (p *Processor) Process(ctx context.Context, folders []string) ([]*inspector.Summary, error) {
	p.mu.Lock()
	p.results = make([]*inspector.Summary, len(folders))
	p.mu.Unlock()

	err := p.ProcessWithCallback(ctx, folders, func(sum *inspector.Summary, i int) {
		p.mu.Lock()
		p.results[i] = sum
		p.mu.Unlock()
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results, err
}

// ProcessWithCallback summarizes every folder and calls callback with each
// summary and the folder's index as soon as it is done. The callback runs on
// worker goroutines and must be safe for concurrent use.
func (p *Processor) ProcessWithCallback(
	ctx context.Context,
	folders []string,
	callback func(sum *inspector.Summary, index int),
) error {
	p.logger.Debug("starting batch summary",
		slog.Int("folders", len(folders)),
		slog.Int("concurrency", p.concurrency),
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, folder := range folders {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			sum, err := p.summarize(folder)
			if err != nil {
				p.logger.Warn("folder summary failed",
					slog.String("folder", folder),
					slog.String("error", err.Error()),
				)
				sum = &inspector.Summary{Folder: folder, Err: err}
			}
			callback(sum, i)
			return nil
		})
	}

	err := g.Wait()
	p.logger.Debug("batch summary complete",
		slog.Int("folders", len(folders)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return err
}
