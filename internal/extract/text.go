package extract

import (
	"fmt"
	"os"
	"strings"
)

// TextExtractor reads a plain text file. Undecodable byte sequences are
// dropped rather than reported as an error.
type TextExtractor struct{}

func (t *TextExtractor) Extract(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	return &Result{Text: strings.ToValidUTF8(string(data), "")}, nil
}
