// Package batch summarizes many document folders concurrently.
//
// A Processor runs a summarize function for every folder with a bounded
// number of goroutines. Folder failures never stop the batch: they are
// stored on the folder's Summary and the other folders keep going. Only
// context cancellation ends a batch early.
//
// Summaries are read-only. Nothing in this package writes to a folder.
package batch
