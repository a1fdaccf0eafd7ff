package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// loadPDF returns one span per page that carries text, numbered from 1.
func loadPDF(ctx context.Context, path string) ([]Span, error) {
	pages, err := ValidatePDF(path)
	if err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	if n := r.NumPage(); n < pages {
		pages = n
	}

	spans := make([]Span, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read text of page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		spans = append(spans, Span{Text: text, Page: i})
	}
	return spans, nil
}
