package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrEmptyFileName is returned when one of the layout file or directory
	// names is empty.
	ErrEmptyFileName = errors.New("invalid layout: file and directory names must not be empty")

	// ErrLayoutConflict is returned when two layout entries name the same path.
	ErrLayoutConflict = errors.New("invalid layout: file and directory names must be distinct")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxPDFSize is returned when the PDF size limit is negative.
	ErrInvalidMaxPDFSize = errors.New("invalid max PDF size: must be non-negative")

	// ErrNoPDFCandidates is returned when no PDF file name candidate is configured.
	ErrNoPDFCandidates = errors.New("no PDF file name candidates configured")

	// ErrNoExportDir is returned when the export directory is empty.
	ErrNoExportDir = errors.New("no export directory configured")
)
