// Package spreadsheet parses workbooks into structured records and produces
// the statistical analysis report used as chat context.
package spreadsheet

// Record is one row of a sheet, keyed by column name. Values are float64 for
// numeric cells, time.Time for date cells, string for everything else, and
// nil for blank cells.
type Record map[string]any

// Sheet is one worksheet with its column order preserved.
type Sheet struct {
	Name    string
	Columns []string
	Records []Record
}
