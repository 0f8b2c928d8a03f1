// Package main provides the entry point for the inspector CLI.
//
// The inspector reviews the page extractions of PDF documents: it loads a
// document folder written by the extraction pipeline, reconciles its pages
// against the source PDF, records reviewer decisions and edits, saves them
// back in the folder's own layout and exports final bundles.
//
// Usage:
//
//	inspector inspect <folder>
//	inspector approve <folder> <pages...>
//	inspector export <folder>
//
// See --help for all available options.
package main

// main is the entry point for the inspector.
func main() {
	Execute()
}
