package reconcile

import "errors"

var (
	// ErrNoPages is returned when the page count is unknown and no page data
	// was observed, so there is nothing to reconcile against.
	ErrNoPages = errors.New("page count unknown and no pages observed")

	// ErrPDFTooLarge is returned by PDFCounter for files above its size limit.
	ErrPDFTooLarge = errors.New("pdf exceeds the maximum size for page counting")
)
