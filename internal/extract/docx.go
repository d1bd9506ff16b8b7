package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DocxExtractor reads the paragraph text of a Word document. A .docx file is
// a ZIP archive; the body text lives in word/document.xml. Formatting,
// tables, and embedded objects are not read.
type DocxExtractor struct{}

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

func (d *DocxExtractor) Extract(path string) (*Result, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}

		text, err := parseDocxXML(content)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text}, nil
	}
	return nil, fmt.Errorf("word/document.xml not found in archive")
}

// parseDocxXML joins every paragraph's run text with newline separators, in
// document order.
func parseDocxXML(content []byte) (string, error) {
	var doc docxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, t := range run.Text {
				b.WriteString(t.Content)
			}
		}
	}
	return b.String(), nil
}
