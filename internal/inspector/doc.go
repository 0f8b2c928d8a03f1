// Package inspector wires the review engine together.
//
// Open runs the load path of a document folder:
//
//	Load folder -> read review metadata -> find source PDF and count its pages
//	-> Reconcile -> restore statuses, discards and portfolio tag
//
// and returns a Session that applies reviewer actions. Save writes the
// session back to the folder and Export builds a bundle from it. Nothing is
// saved implicitly; callers save before exporting when they want the folder
// and the bundle to agree.
package inspector
