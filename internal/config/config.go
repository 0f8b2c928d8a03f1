package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/nao1215/inspector/internal/model"
	"github.com/nao1215/inspector/internal/source"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "inspector"

	// DefaultExportDir is where export bundles are created.
	DefaultExportDir = "final_outputs"

	// DefaultPDFDir is the upload directory the pipeline keeps source PDFs in.
	DefaultPDFDir = "data"

	// DefaultBatchSize is the number of folders summarized concurrently.
	DefaultBatchSize = 4

	// DefaultMaxPDFSize is the largest source PDF opened for page counting.
	// Larger files fall back to the observed page count.
	DefaultMaxPDFSize int64 = 100 << 20

	// DefaultHistoryLimit is the number of history entries listed by default.
	DefaultHistoryLimit = 20
)

// DefaultSideFiles are the side-channel files copied into an export bundle
// besides the review metadata.
var DefaultSideFiles = []string{"processing_metadata.json"}

// Config holds all configuration options of the inspector. It is built by
// NewConfig, adjusted by Apply and CLI flags, and passed down explicitly.
type Config struct {
	// ConsolidatedFile is the single-file page document of a folder.
	ConsolidatedFile string

	// StructuredDir is the per-page structured record directory.
	StructuredDir string

	// RenderingDir is the per-page first-pass rendering directory.
	RenderingDir string

	// MetadataFile is the review metadata file.
	MetadataFile string

	// PDFCandidates are the source PDF file names tried in order.
	// "{name}" is replaced by the document name.
	PDFCandidates []string

	// PDFDirs are searched for the source PDF after the document folder.
	PDFDirs []string

	// MaxPDFSize is the page counting size limit in bytes. Zero disables it.
	MaxPDFSize int64

	// ExportDir is the root directory of export bundles.
	ExportDir string

	// SideFiles are copied from the document folder into export bundles.
	SideFiles []string

	// PageFiles enables the per-page markdown files of export bundles.
	PageFiles bool

	// Workbook enables the table workbook of export bundles.
	Workbook bool

	// DBDir is the directory of the review history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveHistory records review actions and exports in the history database.
	SaveHistory bool

	// BatchSize is the number of folders summarized concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches the log output to JSON.
	JSONLog bool

	// ConfigFilePath is the configuration file given on the command line.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	layout := model.DefaultLayout()
	return &Config{
		ConsolidatedFile: layout.ConsolidatedFile,
		StructuredDir:    layout.StructuredDir,
		RenderingDir:     layout.RenderingDir,
		MetadataFile:     layout.MetadataFile,
		PDFCandidates:    append([]string{}, source.DefaultPDFCandidates...),
		PDFDirs:          []string{DefaultPDFDir},
		MaxPDFSize:       DefaultMaxPDFSize,
		ExportDir:        DefaultExportDir,
		SideFiles:        append([]string{}, DefaultSideFiles...),
		PageFiles:        true,
		Workbook:         true,
		DBDir:            XDGDataDir(),
		SaveHistory:      true,
		BatchSize:        DefaultBatchSize,
	}
}

// Layout returns the document folder layout.
func (c *Config) Layout() model.Layout {
	return model.Layout{
		ConsolidatedFile: c.ConsolidatedFile,
		StructuredDir:    c.StructuredDir,
		RenderingDir:     c.RenderingDir,
		MetadataFile:     c.MetadataFile,
	}
}

// XDGDataDir returns the XDG data directory of the inspector,
// e.g. ~/.local/share/inspector on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory of the inspector,
// e.g. ~/.config/inspector on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	names := []string{c.ConsolidatedFile, c.StructuredDir, c.RenderingDir, c.MetadataFile}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return ErrEmptyFileName
		}
		if seen[n] {
			return ErrLayoutConflict
		}
		seen[n] = true
	}

	if len(c.PDFCandidates) == 0 {
		return ErrNoPDFCandidates
	}
	if c.MaxPDFSize < 0 {
		return ErrInvalidMaxPDFSize
	}
	if c.ExportDir == "" {
		return ErrNoExportDir
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	return nil
}
