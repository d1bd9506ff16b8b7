package spreadsheet

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"docuchat/internal/metrics"
)

const (
	// topEntries is how many rows the profit/revenue ranking shows per column.
	topEntries = 5
	// maxDumpRows caps the raw data dump; beyond it a truncation notice is
	// emitted instead of the remaining rows.
	maxDumpRows = 100
	// corrThreshold is the minimum |r| for a pair to be reported.
	corrThreshold = 0.7
	// maxTrendCols caps how many numeric columns the trend analysis covers.
	maxTrendCols = 3
)

// Column-name substrings that mark a column as money-like, including the
// Indonesian terms the original data sets use.
var profitKeywords = []string{"profit", "laba", "keuntungan", "revenue", "pendapatan", "income"}

// Column-name substrings that mark a column as a row identifier.
var identifierKeywords = []string{"name", "nama", "product", "produk", "item", "description", "deskripsi", "id"}

// Analyze renders the workbook summary followed by every sheet's report.
func Analyze(path string, sheets []Sheet) string {
	names := make([]string, len(sheets))
	for i, s := range sheets {
		names[i] = s.Name
	}

	lines := []string{
		fmt.Sprintf("EXCEL FILE SUMMARY: %s", filepath.Base(path)),
		fmt.Sprintf("Total sheets: %d", len(sheets)),
		fmt.Sprintf("Sheet names: %s", strings.Join(names, ", ")),
		"",
	}
	for _, sheet := range sheets {
		lines = append(lines, analyzeSheet(sheet)...)
	}
	return strings.Join(lines, "\n")
}

// step is one best-effort analysis pass over a sheet. A failing step is
// logged, counted, and skipped; it never aborts its siblings.
type step struct {
	name string
	run  func(Sheet) ([]string, error)
}

func analyzeSheet(sheet Sheet) []string {
	lines := []string{
		fmt.Sprintf("SHEET: %s", sheet.Name),
		fmt.Sprintf("Rows: %d", len(sheet.Records)),
		fmt.Sprintf("Columns: %d", len(sheet.Columns)),
		fmt.Sprintf("Column names: %s", strings.Join(sheet.Columns, ", ")),
		"",
	}

	for _, s := range []step{
		{"profit_analysis", profitAnalysis},
		{"numeric_stats", numericStats},
		{"data_dump", dataDump},
	} {
		lines = append(lines, runStep(sheet, s)...)
	}

	lines = append(lines, "POTENTIAL INSIGHTS:")
	for _, s := range []step{
		{"correlations", correlations},
		{"trend_analysis", trendAnalysis},
		{"id_columns", idColumns},
	} {
		lines = append(lines, runStep(sheet, s)...)
	}
	lines = append(lines, "")
	return lines
}

func runStep(sheet Sheet, s step) (out []string) {
	// A panicking step must not take the rest of the report down with it.
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Analysis step panicked", "sheet", sheet.Name, "step", s.name, "panic", r)
			metrics.AnalysisStepFailures.WithLabelValues(s.name).Inc()
			out = nil
		}
	}()

	out, err := s.run(sheet)
	if err != nil {
		slog.Warn("Analysis step failed", "sheet", sheet.Name, "step", s.name, "error", err)
		metrics.AnalysisStepFailures.WithLabelValues(s.name).Inc()
		return nil
	}
	return out
}

// profitAnalysis ranks the top rows of every money-like column and reports
// the column's quartiles.
func profitAnalysis(sheet Sheet) ([]string, error) {
	var cols []string
	seen := make(map[string]bool)
	for _, keyword := range profitKeywords {
		for _, col := range sheet.Columns {
			if strings.Contains(strings.ToLower(col), keyword) && !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	if len(cols) == 0 {
		return nil, nil
	}

	lines := []string{"PROFIT/REVENUE ANALYSIS:"}
	idCol := identifierColumn(sheet)

	for _, col := range cols {
		vals, rows := numericValues(sheet, col)
		if len(vals) == 0 {
			continue
		}

		type entry struct {
			row int
			val float64
		}
		entries := make([]entry, len(vals))
		for i := range vals {
			entries[i] = entry{row: rows[i], val: vals[i]}
		}
		// Stable sort keeps ties in original row order.
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].val > entries[j].val })

		n := topEntries
		if len(entries) < n {
			n = len(entries)
		}
		lines = append(lines, fmt.Sprintf("Top %d highest %s:", topEntries, col))
		for i := 0; i < n; i++ {
			lines = append(lines, fmt.Sprintf("  %d. %s = %s",
				i+1, rowLabel(sheet, idCol, entries[i].row), formatValue(entries[i].val)))
		}
		lines = append(lines, "")

		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		lines = append(lines,
			fmt.Sprintf("%s distribution:", col),
			fmt.Sprintf("  25%% of values are below: %s", formatValue(stat.Quantile(0.25, stat.LinInterp, sorted, nil))),
			fmt.Sprintf("  Median value: %s", formatValue(stat.Quantile(0.5, stat.LinInterp, sorted, nil))),
			fmt.Sprintf("  75%% of values are above: %s", formatValue(stat.Quantile(0.75, stat.LinInterp, sorted, nil))),
			"")
	}
	return lines, nil
}

// numericStats reports min, max, mean, and sum for every all-numeric column.
func numericStats(sheet Sheet) ([]string, error) {
	cols := numericColumns(sheet)
	if len(cols) == 0 {
		return nil, nil
	}
	lines := []string{"NUMERICAL COLUMN STATISTICS:"}
	for _, col := range cols {
		vals, _ := numericValues(sheet, col)
		lines = append(lines, fmt.Sprintf("Column '%s': Min=%s, Max=%s, Mean=%.2f, Sum=%s",
			col,
			formatValue(floats.Min(vals)),
			formatValue(floats.Max(vals)),
			stat.Mean(vals, nil),
			formatValue(floats.Sum(vals))))
	}
	lines = append(lines, "")
	return lines, nil
}

// dataDump emits the sheet as a pipe-separated table, capped at maxDumpRows.
func dataDump(sheet Sheet) ([]string, error) {
	if len(sheet.Records) == 0 {
		return nil, nil
	}
	header := strings.Join(sheet.Columns, " | ")
	lines := []string{"DATA:", header, strings.Repeat("-", len(header))}
	for i, rec := range sheet.Records {
		if i >= maxDumpRows {
			lines = append(lines, fmt.Sprintf("... (Showing first %d of %d rows)", maxDumpRows, len(sheet.Records)))
			break
		}
		cells := make([]string, len(sheet.Columns))
		for j, col := range sheet.Columns {
			cells[j] = formatValue(rec[col])
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	lines = append(lines, "")
	return lines, nil
}

// correlations reports every pair of numeric columns whose Pearson
// correlation exceeds the threshold in absolute value.
func correlations(sheet Sheet) ([]string, error) {
	cols := numericColumns(sheet)
	if len(cols) < 2 {
		return nil, nil
	}

	var found []string
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			x, y := pairedValues(sheet, cols[i], cols[j])
			if len(x) < 2 {
				continue
			}
			r := stat.Correlation(x, y, nil)
			if math.IsNaN(r) || math.Abs(r) <= corrThreshold {
				continue
			}
			relation := "positively"
			if r < 0 {
				relation = "negatively"
			}
			found = append(found, fmt.Sprintf("- Strong %s correlation (%.2f) between '%s' and '%s'",
				relation, r, cols[i], cols[j]))
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	lines := append([]string{"CORRELATIONS:"}, found...)
	lines = append(lines, "")
	return lines, nil
}

// trendAnalysis sorts rows by the first date column and reports how the
// leading numeric columns changed between the first and last dated rows.
func trendAnalysis(sheet Sheet) ([]string, error) {
	dates := dateColumns(sheet)
	if len(dates) == 0 {
		return nil, nil
	}

	lines := []string{fmt.Sprintf("- Time series data detected in columns: %s", strings.Join(dates, ", "))}
	nums := numericColumns(sheet)
	if len(nums) == 0 {
		return lines, nil
	}

	dateCol := dates[0]
	lines = append(lines, fmt.Sprintf("TREND ANALYSIS using date column: %s", dateCol))

	sorted := append([]Record(nil), sheet.Records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, iok := sorted[i][dateCol].(time.Time)
		tj, jok := sorted[j][dateCol].(time.Time)
		if !iok {
			return false
		}
		if !jok {
			return true
		}
		return ti.Before(tj)
	})

	limit := maxTrendCols
	if len(nums) < limit {
		limit = len(nums)
	}
	for _, col := range nums[:limit] {
		first, last, firstDate, lastDate, ok := endpoints(sorted, dateCol, col)
		if !ok {
			continue
		}
		change := last - first
		pct := math.Inf(1)
		if first != 0 {
			pct = change / first * 100
		}
		direction := "remained the same"
		if change > 0 {
			direction = "increased"
		} else if change < 0 {
			direction = "decreased"
		}
		lines = append(lines, fmt.Sprintf("- '%s' %s by %.2f (%.1f%%) from %s to %s",
			col, direction, math.Abs(change), math.Abs(pct),
			firstDate.Format("2006-01-02"), lastDate.Format("2006-01-02")))
	}
	lines = append(lines, "")
	return lines, nil
}

// endpoints finds the first and last rows (in date order) where both the
// date and the numeric value are present.
func endpoints(records []Record, dateCol, col string) (first, last float64, firstDate, lastDate time.Time, ok bool) {
	for _, rec := range records {
		v, vok := rec[col].(float64)
		d, dok := rec[dateCol].(time.Time)
		if !vok || !dok {
			continue
		}
		if !ok {
			first, firstDate = v, d
			ok = true
		}
		last, lastDate = v, d
	}
	return first, last, firstDate, lastDate, ok
}

// idColumns reports the distinct-value count of every column whose name
// contains "id" or "code".
func idColumns(sheet Sheet) ([]string, error) {
	var lines []string
	for _, col := range sheet.Columns {
		lower := strings.ToLower(col)
		if !strings.Contains(lower, "id") && !strings.Contains(lower, "code") {
			continue
		}
		distinct := make(map[string]struct{})
		for _, rec := range sheet.Records {
			if rec[col] == nil {
				continue
			}
			distinct[formatValue(rec[col])] = struct{}{}
		}
		lines = append(lines, fmt.Sprintf("- Possible ID column: '%s' with %d unique values", col, len(distinct)))
	}
	return lines, nil
}

// identifierColumn returns the first column whose name looks like a row
// identifier, or "" if none exists.
func identifierColumn(sheet Sheet) string {
	for _, col := range sheet.Columns {
		lower := strings.ToLower(col)
		for _, keyword := range identifierKeywords {
			if strings.Contains(lower, keyword) {
				return col
			}
		}
	}
	return ""
}

// rowLabel labels a ranked row by its identifier column value, falling back
// to the 1-based row number.
func rowLabel(sheet Sheet, idCol string, row int) string {
	if idCol != "" {
		if v := sheet.Records[row][idCol]; v != nil {
			return fmt.Sprintf("%s: %s", idCol, formatValue(v))
		}
	}
	return fmt.Sprintf("Row %d", row+1)
}

// numericValues returns the column's numeric values with their row indices,
// in row order.
func numericValues(sheet Sheet, col string) ([]float64, []int) {
	var vals []float64
	var rows []int
	for i, rec := range sheet.Records {
		if n, ok := rec[col].(float64); ok {
			vals = append(vals, n)
			rows = append(rows, i)
		}
	}
	return vals, rows
}

// pairedValues returns the values from the rows where both columns hold
// numbers.
func pairedValues(sheet Sheet, a, b string) ([]float64, []float64) {
	var x, y []float64
	for _, rec := range sheet.Records {
		av, aok := rec[a].(float64)
		bv, bok := rec[b].(float64)
		if aok && bok {
			x = append(x, av)
			y = append(y, bv)
		}
	}
	return x, y
}

// numericColumns returns every column whose non-blank values are all numeric,
// with at least one value present.
func numericColumns(sheet Sheet) []string {
	var cols []string
	for _, col := range sheet.Columns {
		if typedColumn(sheet, col, func(v any) bool { _, ok := v.(float64); return ok }) {
			cols = append(cols, col)
		}
	}
	return cols
}

// dateColumns returns every column whose non-blank values are all dates,
// with at least one value present.
func dateColumns(sheet Sheet) []string {
	var cols []string
	for _, col := range sheet.Columns {
		if typedColumn(sheet, col, func(v any) bool { _, ok := v.(time.Time); return ok }) {
			cols = append(cols, col)
		}
	}
	return cols
}

func typedColumn(sheet Sheet, col string, match func(any) bool) bool {
	count := 0
	for _, rec := range sheet.Records {
		v := rec[col]
		if v == nil {
			continue
		}
		if !match(v) {
			return false
		}
		count++
	}
	return count > 0
}

// formatValue renders a cell value the way the report and data dump show it:
// numbers without trailing zeros, dates as yyyy-mm-dd, blanks as empty.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", x)
	}
}
