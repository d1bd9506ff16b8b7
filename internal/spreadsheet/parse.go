package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Layouts tried when sniffing date cells. excelize renders date cells
// through their number format, so both ISO and US styles show up.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06 15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseFile reads every sheet of a workbook into ordered records. The first
// row of each sheet is treated as the header.
func ParseFile(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, buildSheet(name, rows))
	}
	return sheets, nil
}

// ParseLegacyFile reads a pre-OOXML binary (.xls) workbook into the same
// sheet shape as ParseFile. The reader renders cells as strings, so type
// inference runs through the same parseCell path.
func ParseLegacyFile(path string) ([]Sheet, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open legacy workbook: %w", err)
	}

	var sheets []Sheet
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, buildSheet(ws.Name, rows))
	}
	return sheets, nil
}

func buildSheet(name string, rows [][]string) Sheet {
	sheet := Sheet{Name: name}
	if len(rows) == 0 {
		return sheet
	}

	for i, col := range rows[0] {
		col = strings.TrimSpace(col)
		if col == "" {
			col = fmt.Sprintf("Column%d", i+1)
		}
		sheet.Columns = append(sheet.Columns, col)
	}

	for _, row := range rows[1:] {
		record := make(Record, len(sheet.Columns))
		for i, col := range sheet.Columns {
			if i < len(row) {
				record[col] = parseCell(row[i])
			} else {
				record[col] = nil
			}
		}
		sheet.Records = append(sheet.Records, record)
	}
	return sheet
}

// parseCell infers a cell's type from its rendered value: number, then date,
// then plain text. Blank cells become nil.
func parseCell(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return s
}
