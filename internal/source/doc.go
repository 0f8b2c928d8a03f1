// Package source reads the extraction output of a document folder.
//
// Two on-disk layouts are recognized, in priority order:
//
//  1. A consolidated file (final_output.json) holding a "pages" array, either
//     wrapped in an object with "document_info" or as a bare array.
//  2. A per-page layout: json_pages/page_<N>.json structured records next to
//     markdown_pages/page_<N>.md first-pass renderings. Both directories must
//     exist.
//
// Loading is a pure read. Every page entry is validated against an embedded
// JSON schema and decoded on its own, so a malformed page is reported as a
// PageLoadError and left out of the result instead of failing the load.
// Table rows are normalized to column-keyed maps before they leave this
// package, whichever of the two row encodings the source used.
package source
