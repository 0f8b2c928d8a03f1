package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	overviewSheet   = "Pages"
	maxSheetNameLen = 31
)

// sheetNameReplacer removes the characters Excel forbids in sheet names.
var sheetNameReplacer = strings.NewReplacer(
	"[", "", "]", "", ":", "", "*", "", "?", "", "/", "", `\`, "", "'", "",
)

// Workbook renders the page overview and every extracted table as an XLSX
// workbook. The first sheet lists the pages; each table gets its own sheet.
func Workbook(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if _, err := f.NewSheet(overviewSheet); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	index, _ := f.GetSheetIndex(overviewSheet)
	f.SetActiveSheet(index)

	writeOverviewSheet(f, doc)

	used := map[string]bool{strings.ToLower(overviewSheet): true}
	for _, p := range doc.Pages {
		if p.placeholder() {
			continue
		}
		for i, t := range p.Tables {
			name := sheetName(p.PageNumber, i+1, t.Title, used)
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("failed to add sheet %q: %w", name, err)
			}
			writeTableSheet(f, name, t)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeOverviewSheet(f *excelize.File, doc *Document) {
	headers := []string{"Page", "Title", "Classification", "Review Status", "Tables", "Keywords"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(overviewSheet, cell, h)
	}
	for r, p := range doc.Pages {
		values := []any{
			p.PageNumber,
			p.Title,
			p.Classification,
			p.ReviewStatus,
			len(p.Tables),
			strings.Join(p.Keywords, ", "),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(overviewSheet, cell, v)
		}
	}
	_ = f.SetColWidth(overviewSheet, "A", "A", 8)
	_ = f.SetColWidth(overviewSheet, "B", "B", 40)
	_ = f.SetColWidth(overviewSheet, "C", "D", 16)
	_ = f.SetColWidth(overviewSheet, "F", "F", 50)
}

func writeTableSheet(f *excelize.File, sheet string, t Table) {
	for c, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
	}
	for r, row := range t.Rows {
		for c, col := range t.Columns {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, sheetValue(v))
		}
	}
}

// sheetName builds a unique sheet name of at most 31 characters,
// e.g. "P3 T1 Revenue by region".
func sheetName(page, table int, title string, used map[string]bool) string {
	prefix := fmt.Sprintf("P%d T%d", page, table)
	title = strings.TrimSpace(sheetNameReplacer.Replace(title))

	name := prefix
	if title != "" {
		name = truncateRunes(prefix+" "+title, maxSheetNameLen)
	}
	name = strings.TrimSpace(name)
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := "~" + strconv.Itoa(n)
		name = truncateRunes(prefix, maxSheetNameLen-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// sheetValue converts a decoded JSON value into a cell value.
// Numbers stay numeric; nested values are stored as JSON text.
func sheetValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if fl, err := x.Float64(); err == nil {
			return fl
		}
		return x.String()
	case string, bool, float64, int, int64:
		return x
	default:
		return cellText(x)
	}
}
