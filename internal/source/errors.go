package source

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSchema is returned when a folder holds neither a consolidated
	// file with a pages array nor both per-page directories.
	ErrUnknownSchema = errors.New("no recognized page layout")

	// ErrInvalidPage is wrapped by PageLoadError when a page entry does not
	// match the page schema.
	ErrInvalidPage = errors.New("invalid page record")

	// ErrDuplicatePage is wrapped by PageLoadError when two entries resolve to
	// the same page number. The first entry wins.
	ErrDuplicatePage = errors.New("duplicate page number")
)

// SchemaError reports that a document folder could not be recognized.
// It is fatal to Load.
type SchemaError struct {
	// Folder is the document folder that was inspected.
	Folder string

	// Reason describes what was looked for and not found.
	Reason string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Folder, ErrUnknownSchema, e.Reason)
}

// Unwrap returns ErrUnknownSchema so callers can use errors.Is.
func (e *SchemaError) Unwrap() error {
	return ErrUnknownSchema
}

// PageLoadError reports one page that could not be read or decoded.
// The page is left out of the load result and becomes a missing placeholder.
type PageLoadError struct {
	// Page is the page number, or 0 when it could not be determined.
	Page int

	// Path is the file the page was read from.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *PageLoadError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("page %d (%s): %v", e.Page, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PageLoadError) Unwrap() error {
	return e.Err
}
