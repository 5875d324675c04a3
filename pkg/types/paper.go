// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PublicationRef is one entry resolved from a listing page. It is created
// by a resolver and never modified afterwards.
type PublicationRef struct {
	// Title is the display title taken from the listing page.
	Title string `json:"title" yaml:"title"`

	// SourceURL is the href of the anchor that carried the source marker.
	SourceURL string `json:"url" yaml:"url"`

	// ExternalID identifies the publication within its source
	// (e.g. "2301.00001" for arXiv).
	ExternalID string `json:"external_id" yaml:"external_id"`
}

// PublicationContent is what a fetcher returns for one reference.
type PublicationContent struct {
	// Abstract is never empty on a successful fetch.
	Abstract string `json:"abstract" yaml:"abstract"`

	// FullText is the per-page PDF text concatenated in page order.
	FullText string `json:"full_text" yaml:"full_text"`
}

// PaperRecord merges a reference with its fetched content. It is the unit
// that gets exported and stored.
type PaperRecord struct {
	Title      string    `json:"title" yaml:"title"`
	SourceURL  string    `json:"url" yaml:"url"`
	ExternalID string    `json:"external_id" yaml:"external_id"`
	Abstract   string    `json:"abstract" yaml:"abstract"`
	FullText   string    `json:"content,omitempty" yaml:"content,omitempty"`
	Embedding  []float32 `json:"-" yaml:"-"`
}

// NewPaperRecord builds the record for ref from its fetched content.
func NewPaperRecord(ref PublicationRef, content PublicationContent) PaperRecord {
	return PaperRecord{
		Title:      ref.Title,
		SourceURL:  ref.SourceURL,
		ExternalID: ref.ExternalID,
		Abstract:   content.Abstract,
		FullText:   content.FullText,
	}
}

// Failure is one entry of the failure manifest: a reference whose fetch
// did not succeed.
type Failure struct {
	// Ref is the reference that failed.
	Ref PublicationRef `json:"ref" yaml:"ref"`

	// Kind is the error kind (see ErrorKind).
	Kind ErrorKind `json:"kind" yaml:"kind"`

	// Message is the rendered error.
	Message string `json:"message" yaml:"message"`
}
