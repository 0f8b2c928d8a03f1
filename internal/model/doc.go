// Package model defines the core data structures shared by the inspector engine.
//
// This package contains the following main types:
//   - PageRecord: One physical page of the reviewed document
//   - TableRecord: A table extracted from a page, rows normalized to column-keyed maps
//   - ReviewSession: The in-memory state of one loaded document folder
//   - Classification and ReviewStatus: the two independent per-page tags
//
// Every other package (source, reconcile, review, persist, export) works on these
// types, so they live here to keep the dependency graph acyclic.
//
// The models serialize to the canonical export schema. The on-disk schemas the
// pipeline produces are decoded by the source package and never leak past it.
package model
