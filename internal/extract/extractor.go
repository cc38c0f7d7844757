// Package extract reads guideline documents as plain text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// PDF text is extracted page by page; anything else is read as UTF-8 text.
// Returns an error if the file cannot be read or parsed.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	default:
		return extractPlain(content)
	}
}

// LoadGuidelines returns the text of the guidelines document at path. A blank path or a
// missing file yields "" and no error, leaving the caller to fall back to built-in text.
func (e *Extractor) LoadGuidelines(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	text, err := e.Extract(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load guidelines %s: %w", path, err)
	}
	return text, nil
}
