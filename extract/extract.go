// Package extract turns document files into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor extracts plain text from one family of file formats.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
	Extensions() []string
}

// Registry routes a file to the extractor registered for its extension.
type Registry struct {
	byExt map[string]Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			r.byExt[strings.ToLower(ext)] = e
		}
	}

	return r
}

// DefaultRegistry covers plain text, markdown, PDF and DOCX.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&TextExtractor{},
		&PDFExtractor{},
		&DocxExtractor{},
	)
}

func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	e, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	return e.Extract(ctx, path)
}

// Supported reports whether the registry can handle the file.
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// TextExtractor reads plain-text formats as-is.
type TextExtractor struct{}

func (e *TextExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (e *TextExtractor) Extensions() []string {
	return []string{".txt", ".md"}
}
