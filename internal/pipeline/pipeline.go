// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs resolve, fetch, and index for one listing page.
//
// Fetches run on a bounded worker pool. Results are collected into a
// buffer indexed by resolver position, so output order matches the listing
// no matter which fetch finishes first. A failed fetch is recorded in the
// failure manifest and never aborts the batch.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/accepted-papers/internal/fetch"
	"github.com/pdiddy/accepted-papers/internal/resolve"
	"github.com/pdiddy/accepted-papers/pkg/types"
)

// DefaultConcurrency is the number of fetch workers when none is set.
const DefaultConcurrency = 4

// Result is the outcome of one run. Every resolved reference appears
// exactly once, either in Records or in Failures.
type Result struct {
	Refs     []types.PublicationRef
	Records  []types.PaperRecord
	Failures []types.Failure
}

// Fetched returns the number of successful fetches.
func (r Result) Fetched() int { return len(r.Records) }

// Failed returns the number of failed fetches.
func (r Result) Failed() int { return len(r.Failures) }

// Total returns the number of resolved references.
func (r Result) Total() int { return len(r.Refs) }

// HasFailures reports whether any fetch failed.
func (r Result) HasFailures() bool { return len(r.Failures) > 0 }

// Indexer embeds and stores records. *index.Index satisfies it.
type Indexer interface {
	EnsureSchema(ctx context.Context) error
	IndexRecords(ctx context.Context, records []types.PaperRecord) ([]types.PaperRecord, error)
}

// Pipeline wires a resolver to a fetcher.
type Pipeline struct {
	resolver    resolve.Resolver
	fetcher     fetch.Fetcher
	concurrency int
	log         *zap.Logger
	out         io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConcurrency sets the number of fetch workers. Values below 1 use
// DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithOutput sets where per-paper status lines and the batch summary are
// written.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.out = w
		}
	}
}

// New returns a pipeline. Status output is discarded unless WithOutput is
// given.
func New(resolver resolve.Resolver, fetcher fetch.Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver:    resolver,
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
		log:         zap.NewNop(),
		out:         io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run resolves listingURL once and fetches every reference. A resolution
// failure aborts the run and is returned as the error; fetch failures are
// reported in the result.
func (p *Pipeline) Run(ctx context.Context, listingURL string, limit int) (Result, error) {
	refs, err := p.resolver.Resolve(ctx, listingURL, limit)
	if err != nil {
		return Result{}, err
	}
	p.log.Info("resolved listing",
		zap.String("url", listingURL),
		zap.Int("limit", limit),
		zap.Int("refs", len(refs)),
	)
	return p.Fetch(ctx, refs), nil
}

// outcome is one slot of the order-indexed buffer.
type outcome struct {
	content types.PublicationContent
	err     error
}

// Fetch fetches refs concurrently and returns records and failures in ref
// order.
func (p *Pipeline) Fetch(ctx context.Context, refs []types.PublicationRef) Result {
	slots := make([]outcome, len(refs))

	jobs := make(chan int)
	var (
		wg    sync.WaitGroup
		outMu sync.Mutex
	)
	workers := min(p.concurrency, len(refs))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				slots[i] = p.fetchOne(ctx, refs[i])

				outMu.Lock()
				if slots[i].err != nil {
					fmt.Fprintf(p.out, "failed:  %s (%v)\n", refs[i].ExternalID, slots[i].err)
				} else {
					fmt.Fprintf(p.out, "fetched: %s\n", refs[i].ExternalID)
				}
				outMu.Unlock()
			}
		}()
	}
	for i := range refs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := Result{Refs: refs}
	for i, o := range slots {
		if o.err != nil {
			result.Failures = append(result.Failures, types.Failure{
				Ref:     refs[i],
				Kind:    types.KindOf(o.err),
				Message: o.err.Error(),
			})
			continue
		}
		result.Records = append(result.Records, types.NewPaperRecord(refs[i], o.content))
	}

	fmt.Fprintf(p.out, "\nBatch summary: %d fetched, %d failed (total: %d)\n",
		result.Fetched(), result.Failed(), result.Total())
	p.log.Info("fetch complete",
		zap.Int("fetched", result.Fetched()),
		zap.Int("failed", result.Failed()),
		zap.Int("total", result.Total()),
	)
	return result
}

// fetchOne fetches one reference. Errors without a kind and empty
// abstracts are reported as fetch errors.
func (p *Pipeline) fetchOne(ctx context.Context, ref types.PublicationRef) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{err: types.NewError(types.KindFetch, "fetch", ref.ExternalID, err)}
	}

	content, err := p.fetcher.Fetch(ctx, ref.ExternalID)
	if err != nil {
		if types.KindOf(err) == types.KindUnknown {
			err = types.NewError(types.KindFetch, "fetch", ref.ExternalID, err)
		}
		p.log.Debug("fetch failed", zap.String("id", ref.ExternalID), zap.Error(err))
		return outcome{err: err}
	}
	if content.Abstract == "" {
		return outcome{err: types.NewError(types.KindFetch, "fetch", ref.ExternalID, fetch.ErrNoAbstract)}
	}
	return outcome{content: content}
}

// Index ensures the schema exists, then embeds and stores records as one
// phase. An embedding or storage error aborts the phase and nothing from
// it is stored.
func (p *Pipeline) Index(ctx context.Context, ix Indexer, records []types.PaperRecord) ([]types.PaperRecord, error) {
	if len(records) == 0 {
		fmt.Fprintln(p.out, "No records to index.")
		return nil, nil
	}
	if err := ix.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	indexed, err := ix.IndexRecords(ctx, records)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(p.out, "Indexed %d records.\n", len(indexed))
	return indexed, nil
}
