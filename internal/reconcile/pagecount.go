package reconcile

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultMaxPDFSize is the largest PDF PDFCounter will open.
const DefaultMaxPDFSize int64 = 100 << 20

// PageCounter reports the number of physical pages of a source document.
type PageCounter interface {
	PageCount(path string) (int, error)
}

// PDFCounter counts PDF pages with pdfcpu.
type PDFCounter struct {
	// MaxSize is the size limit in bytes. Zero disables the limit.
	MaxSize int64
}

// NewPDFCounter creates a PDFCounter with the given size limit.
func NewPDFCounter(maxSize int64) *PDFCounter {
	return &PDFCounter{MaxSize: maxSize}
}

// PageCount returns the page count of the PDF at path.
func (c *PDFCounter) PageCount(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat pdf: %w", err)
	}
	if c.MaxSize > 0 && info.Size() > c.MaxSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrPDFTooLarge, info.Size())
	}

	f, err := os.Open(path) //nolint:gosec // path is a discovered source PDF
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf page count: %w", err)
	}
	return n, nil
}

// AuthoritativeCount asks counter for the page count of path. It returns
// UnknownCount when there is no path or the count cannot be read, so the
// caller falls back to observed mode.
func AuthoritativeCount(counter PageCounter, path string, logger *slog.Logger) int {
	if counter == nil || path == "" {
		return UnknownCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	n, err := counter.PageCount(path)
	if err != nil {
		logger.Warn("page count unavailable, using observed pages",
			slog.String("pdf", path),
			slog.String("error", err.Error()),
		)
		return UnknownCount
	}
	return n
}
