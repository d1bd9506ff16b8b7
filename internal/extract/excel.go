package extract

import (
	"docuchat/internal/spreadsheet"
)

// ExcelExtractor turns a workbook into a narrative analysis report plus the
// structured per-sheet records used for direct numeric queries.
type ExcelExtractor struct{}

func (e *ExcelExtractor) Extract(path string) (*Result, error) {
	sheets, err := spreadsheet.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return &Result{
		Text:   spreadsheet.Analyze(path, sheets),
		Sheets: sheets,
	}, nil
}

// LegacyExcelExtractor handles the binary BIFF workbook format that predates
// OOXML. Output is identical in shape to ExcelExtractor's.
type LegacyExcelExtractor struct{}

func (e *LegacyExcelExtractor) Extract(path string) (*Result, error) {
	sheets, err := spreadsheet.ParseLegacyFile(path)
	if err != nil {
		return nil, err
	}
	return &Result{
		Text:   spreadsheet.Analyze(path, sheets),
		Sheets: sheets,
	}, nil
}
