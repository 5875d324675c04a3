// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the accepted-papers pipeline:
// listing references, fetched content, paper records, search results,
// the failure manifest, and stage configuration.
package types

// SearchResult is a stored paper returned by a semantic query. Results are
// produced at query time and never persisted.
type SearchResult struct {
	// Title is the paper title as stored.
	Title string `json:"title" yaml:"title"`

	// SourceURL is the link the paper was scraped from.
	SourceURL string `json:"url" yaml:"url"`

	// Abstract is the stored abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Score is the certainty, (1+cos)/2 in [0, 1], between the query and
	// the stored abstract embedding.
	Score float64 `json:"score" yaml:"score"`
}
