// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes an uncompressed PDF with one page per entry of pages.
// An empty entry produces a page with an empty content stream.
func buildPDF(pages ...string) []byte {
	var objs []string
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [ %s] /Count %d >>", kids, len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestPDFTextExtractor_PageOrder(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{"single page", []string{"alpha"}, "alpha"},
		{"pages joined in order", []string{"alpha ", "beta ", "gamma"}, "alpha beta gamma"},
		{"empty pages skipped", []string{"alpha ", "", "gamma"}, "alpha gamma"},
		{"blank first page skipped", []string{"   ", "beta"}, "beta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := PDFTextExtractor{}.ExtractText(buildPDF(tt.pages...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestPDFTextExtractor_NoText(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
	}{
		{"one empty page", []string{""}},
		{"whitespace pages", []string{"  ", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := PDFTextExtractor{}.ExtractText(buildPDF(tt.pages...))
			assert.ErrorIs(t, err, ErrNoText)
			assert.Empty(t, text)
		})
	}
}

func TestPDFTextExtractor_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("<html>not a pdf</html>")},
		{"truncated header", []byte("%PDF-1.4\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var text string
			var err error
			assert.NotPanics(t, func() {
				text, err = PDFTextExtractor{}.ExtractText(tt.data)
			})
			assert.Error(t, err)
			assert.Empty(t, text)
		})
	}
}
