// Package persist writes a review session back to its document folder.
//
// Save writes into the layout the folder was loaded from. For the
// consolidated file it reloads the document from disk, updates only the
// fields this engine owns (title, summary, keywords, content and tables with
// their derived counts) and leaves every other field as it was. Tables are
// updated by index and new ones are appended with fresh identifiers; a save
// never removes a table, except that a discarded page is reduced to its single
// useless table. For the per-page layout every non-placeholder page goes to
// page_<N>.json, named by physical page number.
//
// Missing-page placeholders are never written. Every file is replaced
// atomically through a temporary file in the same directory, and a file whose
// content did not change (ignoring its last_updated stamp) is not rewritten,
// so saving twice in a row leaves the folder byte-identical.
package persist
