// Package export builds the final export bundle of a reviewed document.
//
// A bundle is a fresh directory named <document>_final_<YYYYMMDD_HHMMSS>
// holding:
//   - <document>.pdf, the source PDF when one can be found
//   - <document>_final.json, every page in the canonical consolidated schema
//     whichever layout the document folder used
//   - <document>_summary.md, a plain-text rendering of every page in order
//   - pages/page_NN_<slug>.md, one rendering per page
//   - <document>_tables.xlsx, one sheet per extracted table
//   - copies of the side-channel metadata files of the folder
//   - export_report.json, the manifest and the review summary
//
// Export is append-only and best effort. A file that cannot be written is
// recorded in the manifest with its error and the remaining files are still
// written; nothing already written is rolled back.
package export
