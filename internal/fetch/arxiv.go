// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/accepted-papers/internal/httputil"
	"github.com/pdiddy/accepted-papers/pkg/types"
)

// SourceArxiv is the registry name of the arXiv fetcher.
const SourceArxiv = "arxiv"

// DefaultArxivAPIBase is the arXiv metadata endpoint. The identifier is
// appended to it.
const DefaultArxivAPIBase = "http://export.arxiv.org/api/query?id_list="

// ArxivFetcher fetches abstracts from the arXiv metadata API and full text
// from the linked PDF.
type ArxivFetcher struct {
	client    *httputil.Client
	apiBase   string
	extractor TextExtractor
	log       *zap.Logger

	// SkipFullText returns the abstract only and never downloads the PDF.
	SkipFullText bool
}

// ArxivOption configures an ArxivFetcher.
type ArxivOption func(*ArxivFetcher)

// WithTextExtractor replaces the PDF text extractor.
func WithTextExtractor(e TextExtractor) ArxivOption {
	return func(f *ArxivFetcher) {
		f.extractor = e
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(log *zap.Logger) ArxivOption {
	return func(f *ArxivFetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// NewArxivFetcher returns an arXiv fetcher that issues every request
// through client.
func NewArxivFetcher(client *httputil.Client, cfg types.FetcherConfig, opts ...ArxivOption) *ArxivFetcher {
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = DefaultArxivAPIBase
	}
	f := &ArxivFetcher{
		client:       client,
		apiBase:      apiBase,
		extractor:    PDFTextExtractor{},
		log:          zap.NewNop(),
		SkipFullText: cfg.AbstractOnly,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Source returns SourceArxiv.
func (f *ArxivFetcher) Source() string { return SourceArxiv }

// Fetch returns the abstract and PDF text for an arXiv identifier.
func (f *ArxivFetcher) Fetch(ctx context.Context, id string) (types.PublicationContent, error) {
	arxivID := NormalizeArxivID(id)
	if arxivID == "" {
		return types.PublicationContent{}, types.NewError(types.KindFetch, "fetch", id, fmt.Errorf("empty arXiv identifier"))
	}

	body, err := f.client.Get(ctx, f.apiBase+url.QueryEscape(arxivID), "application/atom+xml")
	if err != nil {
		return types.PublicationContent{}, types.NewError(types.KindFetch, "fetch metadata", arxivID, err)
	}

	entry, err := parseArxivEntry(body)
	if err != nil {
		return types.PublicationContent{}, types.NewError(types.KindFetch, "parse metadata", arxivID, err)
	}

	content := types.PublicationContent{Abstract: strings.TrimSpace(entry.Summary)}
	if content.Abstract == "" {
		return types.PublicationContent{}, types.NewError(types.KindFetch, "parse metadata", arxivID, ErrNoAbstract)
	}

	pdfURL := entry.pdfLink()
	if pdfURL == "" {
		return types.PublicationContent{}, types.NewError(types.KindFetch, "parse metadata", arxivID, ErrNoPDFLink)
	}

	if f.SkipFullText {
		return content, nil
	}

	data, err := f.client.Get(ctx, pdfURL, "application/pdf")
	if err != nil {
		return types.PublicationContent{}, types.NewError(types.KindFetch, "download pdf", arxivID, err)
	}

	text, err := f.extractor.ExtractText(data)
	if err != nil {
		return types.PublicationContent{}, types.NewError(types.KindFetch, "extract text", arxivID, err)
	}
	content.FullText = text

	f.log.Debug("fetched arXiv paper",
		zap.String("id", arxivID),
		zap.Int("pdf_bytes", len(data)),
		zap.Int("text_chars", len(text)),
	)
	return content, nil
}

// NormalizeArxivID strips an "arXiv:" prefix, URL path, and ".pdf"
// extension from an identifier taken from a listing link.
func NormalizeArxivID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/abs/"); i >= 0 {
		id = id[i+len("/abs/"):]
	} else if i := strings.LastIndex(id, "/pdf/"); i >= 0 {
		id = id[i+len("/pdf/"):]
	}
	return strings.TrimSuffix(id, ".pdf")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string      `xml:"id"`
	Title   string      `xml:"title"`
	Summary string      `xml:"summary"`
	Links   []arxivLink `xml:"link"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

func (e arxivEntry) pdfLink() string {
	for _, l := range e.Links {
		if l.Title == "pdf" && l.Href != "" {
			return l.Href
		}
	}
	return ""
}

// parseArxivEntry returns the first entry of an arXiv feed. The API reports
// malformed or unknown identifiers as an entry whose id points at its
// errors page, which is treated the same as no entry.
func parseArxivEntry(body []byte) (arxivEntry, error) {
	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return arxivEntry{}, fmt.Errorf("parsing arXiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return arxivEntry{}, ErrNoEntry
	}
	entry := feed.Entries[0]
	if strings.Contains(entry.ID, "/api/errors") {
		return arxivEntry{}, fmt.Errorf("%w: %s", ErrNoEntry, strings.TrimSpace(entry.Summary))
	}
	return entry, nil
}
