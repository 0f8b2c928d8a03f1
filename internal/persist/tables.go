package persist

import (
	"sort"

	"github.com/nao1215/inspector/internal/model"
)

// rowsKeyConsolidated and rowsKeyLegacy are the default row keys of new
// tables in each layout.
const (
	rowsKeyConsolidated = "rows"
	rowsKeyLegacy       = "data"
)

// writeTables merges the page tables into an on-disk "tables" array. Table i
// updates on-disk table i in place; tables beyond the on-disk length are
// appended with a new identifier. On-disk tables past the session length are
// kept. newID is called for appended tables that have no identifier yet and
// the identifier is stored back on the record.
func writeTables(existing any, tables []model.TableRecord, rowsKey string, newID func() string) []any {
	onDisk, _ := existing.([]any)
	out := make([]any, 0, max(len(onDisk), len(tables)))
	for i := range tables {
		t := &tables[i]
		if i < len(onDisk) {
			if m, ok := onDisk[i].(map[string]any); ok {
				updateTable(m, *t, rowsKey)
				out = append(out, m)
				continue
			}
		}
		if t.ID == "" {
			t.ID = newID()
		}
		out = append(out, newTable(*t, rowsKey))
	}
	if len(onDisk) > len(tables) {
		out = append(out, onDisk[len(tables):]...)
	}
	return out
}

// updateTable sets the engine-owned fields of an on-disk table, keeping its
// row encoding and any other field.
func updateTable(m map[string]any, t model.TableRecord, defaultRowsKey string) {
	key := defaultRowsKey
	switch {
	case m["rows"] != nil:
		key = "rows"
	case m["data"] != nil:
		key = "data"
	}
	existingRows, _ := m[key].([]any)
	columns := tableColumns(t)

	m["title"] = t.Title
	if t.Description != "" || m["description"] != nil {
		m["description"] = t.Description
	}
	if isPositional(existingRows) {
		m["columns"] = columns
		m[key] = positionalRows(t.Rows, columns)
	} else {
		if _, ok := m["columns"]; ok {
			m["columns"] = columns
		}
		m[key] = keyedRows(t.Rows)
	}
	m["row_count"] = len(t.Rows)
	m["column_count"] = len(columns)
}

// newTable encodes a table that does not exist on disk yet.
func newTable(t model.TableRecord, rowsKey string) map[string]any {
	columns := tableColumns(t)
	m := map[string]any{
		"table_id":     t.ID,
		"title":        t.Title,
		"columns":      columns,
		rowsKey:        keyedRows(t.Rows),
		"row_count":    len(t.Rows),
		"column_count": len(columns),
	}
	if t.Description != "" {
		m["description"] = t.Description
	}
	return m
}

// replaceTables encodes tables as a fresh array, dropping whatever was on
// disk. Used for discarded pages.
func replaceTables(tables []model.TableRecord, rowsKey string, newID func() string) []any {
	out := make([]any, 0, len(tables))
	for i := range tables {
		t := &tables[i]
		if t.ID == "" {
			t.ID = newID()
		}
		out = append(out, newTable(*t, rowsKey))
	}
	return out
}

// tableColumns returns the column order of a table followed by any row key
// the column list does not name, sorted.
func tableColumns(t model.TableRecord) []string {
	columns := append([]string{}, t.ColumnNames()...)
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	var extra []string
	for _, r := range t.Rows {
		for k := range r {
			if !known[k] {
				known[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(columns, extra...)
}

func isPositional(rows []any) bool {
	if len(rows) == 0 {
		return false
	}
	_, ok := rows[0].([]any)
	return ok
}

// positionalRows encodes rows as value arrays in column order. Trailing
// columns a row does not have are left off.
func positionalRows(rows []model.Row, columns []string) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		last := -1
		for i, c := range columns {
			if _, ok := r[c]; ok {
				last = i
			}
		}
		cells := make([]any, last+1)
		for i := 0; i <= last; i++ {
			cells[i] = r[columns[i]]
		}
		out = append(out, cells)
	}
	return out
}

func keyedRows(rows []model.Row) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any(r.Clone()))
	}
	return out
}
