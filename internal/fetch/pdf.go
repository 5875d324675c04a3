// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor turns PDF bytes into plain text.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// PDFTextExtractor extracts text page by page with ledongthuc/pdf and
// concatenates the pages in order.
type PDFTextExtractor struct{}

// ExtractText returns the concatenated text of every page that yields
// any. It returns ErrNoText when none does.
func (PDFTextExtractor) ExtractText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("reading pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var sb strings.Builder
	pages := 0
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(pageText) == "" {
			continue
		}
		sb.WriteString(pageText)
		pages++
	}

	if pages == 0 {
		return "", ErrNoText
	}
	return sb.String(), nil
}
