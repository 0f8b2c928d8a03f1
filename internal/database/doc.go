// Package database provides the SQLite review history of the inspector.
//
// The ReviewDB stores:
//   - review events: every approve, flag, discard, tag, edit and save applied
//     to a document folder from the command line
//   - export runs: the bundle directory and manifest of every export
//
// The history is an audit trail only. The document folder remains the source
// of truth for review state; nothing is ever restored from the database.
//
// SQLite (via modernc.org/sqlite) keeps the history in a single CGO-free file
// under the XDG data directory.
package database
