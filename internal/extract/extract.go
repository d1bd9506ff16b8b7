// Package extract converts uploaded files into text, dispatched by file
// extension through a registry of format extractors.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docuchat/internal/spreadsheet"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ExtractionError wraps a format parser failure for a specific file.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Result is the outcome of extracting one file. Sheets is non-nil only for
// spreadsheet formats.
type Result struct {
	Text   string
	Sheets []spreadsheet.Sheet
}

// Extractor converts a file on disk into text.
type Extractor interface {
	Extract(path string) (*Result, error)
}

// Registry dispatches extraction by file extension. Extensions without a
// registered extractor fail closed with ErrUnsupportedFormat.
type Registry struct {
	extractors map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// Register associates an extension (including the dot) with an extractor.
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[strings.ToLower(ext)] = e
}

// Supported reports whether the extension has a registered extractor. It
// doubles as the upload allow-list.
func (r *Registry) Supported(ext string) bool {
	_, ok := r.extractors[strings.ToLower(ext)]
	return ok
}

// Extract runs the extractor registered for the file's extension. The file
// must exist before any format-specific logic runs.
func (r *Registry) Extract(path string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := r.extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	result, err := extractor.Extract(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	return result, nil
}

// Default returns a registry with all supported formats wired in.
func Default() *Registry {
	r := NewRegistry()
	r.Register(".docx", &DocxExtractor{})
	r.Register(".xlsx", &ExcelExtractor{})
	r.Register(".xls", &LegacyExcelExtractor{})
	r.Register(".pdf", &PDFExtractor{})
	r.Register(".txt", &TextExtractor{})
	return r
}
