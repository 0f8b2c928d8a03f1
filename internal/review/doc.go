// Package review holds the reviewer decisions of a loaded document.
//
// A Store wraps one *model.ReviewSession and applies the page transitions:
//
//	pending  -> approved  Approve
//	pending  -> flagged   Flag
//	approved -> flagged   Flag
//	flagged  -> approved  Approve
//	any      -> useless   Discard (destructive, no way back)
//
// Edits change records in memory and mark them dirty; nothing is written
// until the session is saved.
//
// The package also owns the review metadata file (inspector_metadata.json):
// its format, the edited-document heuristic evaluated on it before the pages
// are reconciled, and restoring it onto a freshly reconciled session.
package review
