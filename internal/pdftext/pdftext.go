// Package pdftext extracts plain text from PDF documents so the builder can
// recover year, workload and institution from certificates without READMEs.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxTextSize bounds the amount of extracted text kept per document.
const MaxTextSize = 1 << 20

// Extractor turns document bytes into text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(data []byte) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(data []byte) (string, error) { return f(data) }

// PDF extracts text with github.com/ledongthuc/pdf.
type PDF struct{}

// Extract returns the text of all pages joined together. The parser panics
// on some malformed inputs; that is reported as an error.
func (PDF) Extract(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extract text: parser panic: %v", r)
		}
	}()

	if len(data) == 0 {
		return "", fmt.Errorf("extract text: empty document")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	b, err := io.ReadAll(io.LimitReader(plain, MaxTextSize))
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return strings.Join(strings.Fields(string(b)), " "), nil
}
