package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts text page by page, joining pages with a blank line.
// Pages that yield no text still contribute an empty segment so the output
// preserves the page count.
type PDFExtractor struct{}

func (p *PDFExtractor) Extract(path string) (*Result, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	return &Result{Text: strings.Join(pages, "\n\n")}, nil
}
