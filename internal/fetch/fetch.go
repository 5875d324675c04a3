// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves the abstract and full text of one publication.
//
// Fetchers are keyed by source. New sources implement Fetcher and are added
// to a Registry; the pipeline only ever sees the interface.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pdiddy/accepted-papers/pkg/types"
)

var (
	// ErrNoEntry is returned when the metadata response has no entry for
	// the requested identifier (unknown or withdrawn papers).
	ErrNoEntry = errors.New("no entry in metadata response")

	// ErrNoAbstract is returned when the entry has an empty abstract.
	ErrNoAbstract = errors.New("entry has no abstract")

	// ErrNoPDFLink is returned when the entry has no PDF link.
	ErrNoPDFLink = errors.New("entry has no pdf link")

	// ErrNoText is returned when no page of the PDF yields text.
	ErrNoText = errors.New("pdf has no extractable text")
)

// Fetcher returns the content of one publication. Implementations never
// retry; transient HTTP failures are retried by the shared HTTP client.
// Every returned error is a KindFetch *types.Error.
type Fetcher interface {
	// Source names the source this fetcher serves (e.g. "arxiv").
	Source() string

	Fetch(ctx context.Context, id string) (types.PublicationContent, error)
}

// Registry maps source names to fetchers.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRegistry returns a registry holding fetchers.
func NewRegistry(fetchers ...Fetcher) (*Registry, error) {
	r := &Registry{fetchers: make(map[string]Fetcher)}
	for _, f := range fetchers {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds f under its source name. Registering a source twice is an
// error.
func (r *Registry) Register(f Fetcher) error {
	if f == nil {
		return fmt.Errorf("nil fetcher")
	}
	name := f.Source()
	if name == "" {
		return fmt.Errorf("fetcher source name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fetchers[name]; exists {
		return fmt.Errorf("fetcher %q already registered", name)
	}
	r.fetchers[name] = f
	return nil
}

// Get returns the fetcher for source.
func (r *Registry) Get(source string) (Fetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (available: %v)", source, r.sourcesLocked())
	}
	return f, nil
}

// Sources returns the registered source names in sorted order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sourcesLocked()
}

func (r *Registry) sourcesLocked() []string {
	names := make([]string, 0, len(r.fetchers))
	for n := range r.fetchers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
