package source

import (
	"fmt"

	"github.com/nao1215/inspector/internal/model"
)

// decodeTables converts the "tables" array of a validated page entry.
func decodeTables(v any) []model.TableRecord {
	items, ok := v.([]any)
	if !ok {
		return []model.TableRecord{}
	}
	tables := make([]model.TableRecord, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tables = append(tables, decodeTable(m))
	}
	return tables
}

// decodeTable normalizes one table. Rows come from "rows", or "data" in the
// per-page layout, and are either column-keyed objects or positional arrays
// paired with "columns".
func decodeTable(m map[string]any) model.TableRecord {
	columns := stringSlice(m["columns"])
	rawRows, ok := m["rows"].([]any)
	if !ok {
		rawRows, _ = m["data"].([]any)
	}
	rows := NormalizeRows(rawRows, columns)

	t := model.TableRecord{
		ID:          stringValue(m["table_id"]),
		Title:       stringValue(m["title"]),
		Description: stringValue(m["description"]),
		Columns:     columns,
		Rows:        rows,
	}
	if len(t.Columns) == 0 {
		t.Columns = model.DeriveColumns(rows)
	}
	return t
}

// NormalizeRows converts rows in either encoding to column-keyed maps.
// Positional values beyond the column list are keyed "column_<i>" (1-based).
func NormalizeRows(rawRows []any, columns []string) []model.Row {
	rows := make([]model.Row, 0, len(rawRows))
	for _, raw := range rawRows {
		switch r := raw.(type) {
		case map[string]any:
			rows = append(rows, model.Row(r).Clone())
		case []any:
			row := make(model.Row, len(r))
			for i, cell := range r {
				row[columnName(columns, i)] = cell
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func columnName(columns []string, i int) string {
	if i < len(columns) && columns[i] != "" {
		return columns[i]
	}
	return fmt.Sprintf("column_%d", i+1)
}
