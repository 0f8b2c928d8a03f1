package review

import "errors"

var (
	// ErrPageOutOfRange is returned for a page number outside 1..len(pages).
	ErrPageOutOfRange = errors.New("page number out of range")

	// ErrTableOutOfRange is returned for a table index the page does not have.
	ErrTableOutOfRange = errors.New("table index out of range")

	// ErrPageDiscarded is returned when changing a page marked useless.
	// Discarding cannot be undone.
	ErrPageDiscarded = errors.New("page was discarded")

	// ErrPlaceholderPage is returned when editing a missing-page placeholder.
	// Placeholders are never persisted, so edits to them would be lost.
	ErrPlaceholderPage = errors.New("page is a missing-data placeholder")

	// ErrContentNotKept is returned by KeepsContent for a page whose content
	// would be replaced by its first-pass rendering on the next load.
	ErrContentNotKept = errors.New("content edit would be replaced by the first-pass rendering on reload")
)
