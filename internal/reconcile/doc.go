// Package reconcile aligns loaded page data with the physical page count of
// the source document.
//
// Reconcile always returns a dense sequence: one record per page number from
// 1 to the count, in order. Pages the extraction dropped are synthesized as
// missing placeholders with visible content, pages with only a first-pass
// rendering become incomplete, and everything else is normal. The
// classification is set here once and carried on the record; nothing
// downstream derives it from the text again.
//
// The count comes from the source PDF when it can be read (authoritative
// mode) and from the highest observed page number otherwise (observed mode).
package reconcile
