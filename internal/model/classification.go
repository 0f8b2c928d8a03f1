package model

import (
	"fmt"
	"strings"
)

// Classification is the mutually exclusive data-quality tag of a page.
// It is assigned once by the reconciler and only ever changed afterwards by
// discarding the page, which sets ClassificationUseless.
type Classification string

const (
	// ClassificationNormal marks a page with structured extraction data.
	ClassificationNormal Classification = "normal"

	// ClassificationIncomplete marks a page for which only the first-pass
	// rendering (or an empty structured record) exists.
	ClassificationIncomplete Classification = "incomplete"

	// ClassificationMissing marks a page the extraction never produced.
	// Its content is a synthesized placeholder.
	ClassificationMissing Classification = "missing"

	// ClassificationUseless marks a page the reviewer discarded.
	ClassificationUseless Classification = "useless"
)

// String returns the classification name.
func (c Classification) String() string {
	return string(c)
}

// IsPlaceholder reports whether the page content was synthesized rather than extracted.
func (c Classification) IsPlaceholder() bool {
	return c == ClassificationMissing
}

// ReviewStatus is the reviewer decision for a page. It is independent of
// Classification, except that discarding a page resets it to StatusPending.
type ReviewStatus string

const (
	// StatusPending is the neutral status every page starts with.
	StatusPending ReviewStatus = "pending"

	// StatusApproved marks a page the reviewer accepted.
	StatusApproved ReviewStatus = "approved"

	// StatusFlagged marks a page saved for later review.
	StatusFlagged ReviewStatus = "flagged"
)

// String returns the status name.
func (s ReviewStatus) String() string {
	return string(s)
}

// IsReviewed reports whether the reviewer has made a decision on the page.
func (s ReviewStatus) IsReviewed() bool {
	return s == StatusApproved || s == StatusFlagged
}

// ParseReviewStatus converts a persisted status string into a ReviewStatus.
// Empty strings map to StatusPending.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StatusPending):
		return StatusPending, nil
	case string(StatusApproved):
		return StatusApproved, nil
	case string(StatusFlagged):
		return StatusFlagged, nil
	default:
		return StatusPending, fmt.Errorf("unknown review status %q", s)
	}
}

// SchemaKind identifies the on-disk layout of a document folder.
// It is fixed once per load and decides how the folder is written back.
type SchemaKind string

const (
	// SchemaConsolidated is a single JSON file holding every page.
	SchemaConsolidated SchemaKind = "consolidated"

	// SchemaLegacyPerPage is one structured file and one rendering file per page.
	SchemaLegacyPerPage SchemaKind = "legacyPerPage"
)

// String returns the schema kind name.
func (k SchemaKind) String() string {
	return string(k)
}

// CountMode records where the page count used for reconciliation came from.
type CountMode string

const (
	// CountAuthoritative means the count was read from the source PDF.
	CountAuthoritative CountMode = "authoritative"

	// CountObserved means no PDF was readable and the highest observed page number was used.
	CountObserved CountMode = "observed"
)
