package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file name inside the database directory.
const FileName = "inspector.db"

// ReviewDB stores the review history of document folders.
type ReviewDB struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures ReviewDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the ReviewDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ReviewDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReviewDB{db: db, dbPath: dbPath, now: time.Now}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return rdb, nil
}

// Close closes the database connection.
func (rdb *ReviewDB) Close() error {
	return rdb.db.Close()
}

// Path returns the database file path.
func (rdb *ReviewDB) Path() string {
	return rdb.dbPath
}

func (rdb *ReviewDB) createTables() error {
	schema := `
	-- Review events are single reviewer actions on a document folder
	CREATE TABLE IF NOT EXISTS review_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder TEXT NOT NULL,
		document TEXT NOT NULL,
		action TEXT NOT NULL,
		pages TEXT,
		detail TEXT,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_folder ON review_events(folder);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON review_events(timestamp);

	-- Exports record every bundle written for a document folder
	CREATE TABLE IF NOT EXISTS exports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder TEXT NOT NULL,
		document TEXT NOT NULL,
		directory TEXT NOT NULL,
		files INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		bytes INTEGER NOT NULL,
		manifest_json TEXT,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exports_folder ON exports(folder);
	`
	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// Action is a reviewer action recorded in the history.
type Action string

// Recorded actions.
const (
	ActionApprove Action = "approve"
	ActionFlag    Action = "flag"
	ActionDiscard Action = "discard"
	ActionTag     Action = "tag"
	ActionEdit    Action = "edit"
	ActionSave    Action = "save"
)

// ReviewEvent is one recorded reviewer action.
type ReviewEvent struct {
	ID        int64     `json:"id"`
	Folder    string    `json:"folder"`
	Document  string    `json:"document_name"`
	Action    Action    `json:"action"`
	Pages     []int     `json:"pages"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportRecord is one recorded export run.
type ExportRecord struct {
	ID        int64  `json:"id"`
	Folder    string `json:"folder"`
	Document  string `json:"document_name"`
	Directory string `json:"directory"`
	Files     int    `json:"files"`
	Failed    int    `json:"failed"`
	Bytes     int64  `json:"bytes"`

	// Manifest is the JSON encoded export manifest.
	Manifest  json.RawMessage `json:"manifest,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// RecordEvent appends a review event. The folder is stored as an absolute path.
func (rdb *ReviewDB) RecordEvent(ctx context.Context, ev *ReviewEvent) (int64, error) {
	pages, err := json.Marshal(nonNilPages(ev.Pages))
	if err != nil {
		return 0, fmt.Errorf("failed to serialize pages: %w", err)
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = rdb.now()
	}

	query := `
	INSERT INTO review_events (folder, document, action, pages, detail, timestamp)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := rdb.db.ExecContext(ctx, query,
		folderKey(ev.Folder), ev.Document, string(ev.Action), string(pages), ev.Detail, formatTimestamp(ts),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert review event: %w", err)
	}
	return result.LastInsertId()
}

// ListEvents returns the events of a folder, newest first. A limit of zero
// or less returns every event.
func (rdb *ReviewDB) ListEvents(ctx context.Context, folder string, limit int) ([]ReviewEvent, error) {
	query := `
	SELECT id, folder, document, action, pages, detail, timestamp
	FROM review_events
	WHERE folder = ?
	ORDER BY timestamp DESC, id DESC
	`
	args := []any{folderKey(folder)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query review events: %w", err)
	}
	defer rows.Close()

	events := make([]ReviewEvent, 0)
	for rows.Next() {
		var (
			ev        ReviewEvent
			action    string
			pages     sql.NullString
			detail    sql.NullString
			timestamp string
		)
		if err := rows.Scan(&ev.ID, &ev.Folder, &ev.Document, &action, &pages, &detail, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan review event: %w", err)
		}
		ev.Action = Action(action)
		ev.Detail = detail.String
		ev.Timestamp = parseTimestamp(timestamp)
		ev.Pages = make([]int, 0)
		if pages.Valid && pages.String != "" {
			if err := json.Unmarshal([]byte(pages.String), &ev.Pages); err != nil {
				return nil, fmt.Errorf("failed to parse pages of event %d: %w", ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecordExport appends an export run.
func (rdb *ReviewDB) RecordExport(ctx context.Context, rec *ExportRecord) (int64, error) {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = rdb.now()
	}
	var manifest sql.NullString
	if len(rec.Manifest) > 0 {
		manifest = sql.NullString{String: string(rec.Manifest), Valid: true}
	}

	query := `
	INSERT INTO exports (folder, document, directory, files, failed, bytes, manifest_json, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := rdb.db.ExecContext(ctx, query,
		folderKey(rec.Folder), rec.Document, rec.Directory, rec.Files, rec.Failed, rec.Bytes, manifest, formatTimestamp(ts),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert export: %w", err)
	}
	return result.LastInsertId()
}

// ListExports returns the export runs of a folder, newest first.
func (rdb *ReviewDB) ListExports(ctx context.Context, folder string) ([]ExportRecord, error) {
	query := `
	SELECT id, folder, document, directory, files, failed, bytes, manifest_json, timestamp
	FROM exports
	WHERE folder = ?
	ORDER BY timestamp DESC, id DESC
	`
	rows, err := rdb.db.QueryContext(ctx, query, folderKey(folder))
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	records := make([]ExportRecord, 0)
	for rows.Next() {
		var (
			rec       ExportRecord
			manifest  sql.NullString
			timestamp string
		)
		if err := rows.Scan(
			&rec.ID, &rec.Folder, &rec.Document, &rec.Directory,
			&rec.Files, &rec.Failed, &rec.Bytes, &manifest, &timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		if manifest.Valid {
			rec.Manifest = json.RawMessage(manifest.String)
		}
		rec.Timestamp = parseTimestamp(timestamp)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListFolders returns every folder with recorded history, sorted by path.
func (rdb *ReviewDB) ListFolders(ctx context.Context) ([]string, error) {
	query := `
	SELECT folder FROM review_events
	UNION
	SELECT folder FROM exports
	ORDER BY folder
	`
	rows, err := rdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	folders := make([]string, 0)
	for rows.Next() {
		var folder string
		if err := rows.Scan(&folder); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// folderKey normalizes a folder path so relative and absolute spellings match.
func folderKey(folder string) string {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return filepath.Clean(folder)
	}
	return abs
}

func nonNilPages(pages []int) []int {
	if pages == nil {
		return []int{}
	}
	return pages
}

// formatTimestamp stores times as sortable UTC text.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampLayout is fixed width so that text order is time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// timestampFormats contains the timestamp formats the history may hold.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp parses a stored timestamp, returning the zero time when no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
