// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns a conference listing page into an ordered list of
// publication references.
//
// The listing format is not a documented schema. ListingResolver is a
// best-effort heuristic: every anchor whose visible text contains the
// source marker is one paper, and its title is the nearest title element
// that precedes it in document order.
package resolve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/accepted-papers/internal/httputil"
	"github.com/pdiddy/accepted-papers/pkg/types"
)

const (
	defaultMarker   = "arXiv"
	defaultTitleTag = "dt"
)

var (
	// ErrNoPublications is returned when a listing page has no anchor
	// carrying the source marker.
	ErrNoPublications = errors.New("no matching publication links on listing page")

	// ErrMissingTitle is returned when a marker anchor has no preceding
	// title element.
	ErrMissingTitle = errors.New("publication link has no preceding title element")

	// ErrMissingID is returned when a marker anchor's href yields no
	// identifier.
	ErrMissingID = errors.New("publication link has no identifier")
)

// Resolver turns a listing URL into publication references in document
// order. A positive limit keeps only the first limit references.
type Resolver interface {
	Resolve(ctx context.Context, listingURL string, limit int) ([]types.PublicationRef, error)
}

// ListingResolver resolves HTML listing pages shaped like the CVF open
// access index: a title element followed by a set of links, one of which
// points at the paper's arXiv entry.
type ListingResolver struct {
	client   *httputil.Client
	marker   string
	titleTag string
}

// NewListingResolver returns a resolver that fetches pages through client.
func NewListingResolver(client *httputil.Client, cfg types.ResolverConfig) *ListingResolver {
	marker := cfg.Marker
	if marker == "" {
		marker = defaultMarker
	}
	titleTag := strings.ToLower(strings.TrimSpace(cfg.TitleTag))
	if titleTag == "" {
		titleTag = defaultTitleTag
	}
	return &ListingResolver{client: client, marker: marker, titleTag: titleTag}
}

// Resolve fetches listingURL and parses it. Every failure is a
// KindResolution error.
func (r *ListingResolver) Resolve(ctx context.Context, listingURL string, limit int) ([]types.PublicationRef, error) {
	body, err := r.client.Get(ctx, listingURL, "text/html")
	if err != nil {
		return nil, types.NewError(types.KindResolution, "fetch listing", listingURL, err)
	}

	refs, err := r.Parse(listingURL, bytes.NewReader(body), limit)
	if err != nil {
		return nil, types.NewError(types.KindResolution, "parse listing", listingURL, err)
	}
	return refs, nil
}

// Parse extracts references from an HTML document. baseURL resolves
// relative hrefs. Parsing stops once limit references are collected, so
// anchors past the limit are never inspected.
func (r *ListingResolver) Parse(baseURL string, body io.Reader, limit int) ([]types.PublicationRef, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var (
		refs      []types.PublicationRef
		title     string
		haveTitle bool
		parseErr  error
	)

	// "*" matches in document order, so the last title seen is the
	// nearest one preceding the current anchor.
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		switch goquery.NodeName(s) {
		case r.titleTag:
			title = cleanText(s.Text())
			haveTitle = true
			return true
		case "a":
		default:
			return true
		}

		if !strings.Contains(s.Text(), r.marker) {
			return true
		}
		if !haveTitle {
			parseErr = fmt.Errorf("%w (anchor %d)", ErrMissingTitle, len(refs)+1)
			return false
		}

		href, _ := s.Attr("href")
		ref, err := newRef(base, title, href)
		if err != nil {
			parseErr = err
			return false
		}
		refs = append(refs, ref)
		return limit <= 0 || len(refs) < limit
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if len(refs) == 0 {
		return nil, ErrNoPublications
	}
	return refs, nil
}

// newRef builds a reference from an anchor href. The identifier is the
// final path segment of the href, without a ".pdf" extension.
func newRef(base *url.URL, title, href string) (types.PublicationRef, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return types.PublicationRef{}, fmt.Errorf("%w: %q has an empty or missing href", ErrMissingID, title)
	}

	u, err := url.Parse(href)
	if err != nil {
		return types.PublicationRef{}, fmt.Errorf("parsing href %q: %w", href, err)
	}
	abs := base.ResolveReference(u)

	id := ExternalID(abs.Path)
	if id == "" {
		return types.PublicationRef{}, fmt.Errorf("%w: %q", ErrMissingID, href)
	}

	return types.PublicationRef{
		Title:      title,
		SourceURL:  abs.String(),
		ExternalID: id,
	}, nil
}

// ExternalID returns the final segment of a URL path, ignoring a trailing
// slash and a ".pdf" extension (e.g. "/abs/2301.00001" -> "2301.00001").
func ExternalID(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	seg := path.Base(p)
	if seg == "." || seg == "/" {
		return ""
	}
	return strings.TrimSuffix(seg, ".pdf")
}

var whitespace = regexp.MustCompile(`\s+`)

func cleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
