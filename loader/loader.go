// Package loader turns an uploaded file into plain text spans. The set of
// supported formats is closed: plain text, Markdown and PDF.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("no text extracted from document")
)

type Format int

const (
	FormatText Format = iota + 1
	FormatMarkdown
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "md"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatText, nil
	case ".md":
		return FormatMarkdown, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFileType, path)
	}
}

// Span is a piece of loaded text. Page is 1-based for PDF and 0 for
// formats without pages.
type Span struct {
	Text string
	Page int
}

type Loader struct{}

func New() *Loader {
	return &Loader{}
}

// Load reads path as format f. It fails with ErrEmptyDocument when the file
// holds no text at all.
func (l *Loader) Load(ctx context.Context, f Format, path string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		spans []Span
		err   error
	)
	switch f {
	case FormatText:
		spans, err = loadText(path)
	case FormatMarkdown:
		spans, err = loadMarkdown(path)
	case FormatPDF:
		spans, err = loadPDF(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, path)
	}
	if err != nil {
		return nil, err
	}

	for _, s := range spans {
		if strings.TrimSpace(s.Text) != "" {
			return spans, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, filepath.Base(path))
}

func loadText(path string) ([]Span, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []Span{{Text: string(data)}}, nil
}

// Title derives a human readable title from a file name.
func Title(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
