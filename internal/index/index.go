// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index embeds paper abstracts, stores them in a vector store, and
// answers similarity queries over them.
package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/accepted-papers/internal/embedding"
	"github.com/pdiddy/accepted-papers/internal/vectorstore"
	"github.com/pdiddy/accepted-papers/pkg/types"
)

const (
	// DefaultClass is the vector-store class paper records are kept in.
	DefaultClass = "Paper"

	// DefaultLimit applies when a search passes a non-positive limit.
	DefaultLimit = 1

	// DefaultMinSimilarity is the certainty floor the CLI searches with.
	DefaultMinSimilarity = 0.7
)

// Property names of the paper class.
const (
	propTitle      = "title"
	propURL        = "url"
	propAbstract   = "abstract"
	propExternalID = "external_id"
)

// PaperClass returns the schema paper records are stored under.
func PaperClass(name string) vectorstore.Class {
	return vectorstore.Class{
		Name:        name,
		Description: "Accepted conference papers with abstract embeddings",
		Properties: []vectorstore.Property{
			{Name: propTitle, DataType: "text", Description: "Paper title from the listing page"},
			{Name: propURL, DataType: "text", Description: "Link the paper was resolved from"},
			{Name: propAbstract, DataType: "text", Description: "Paper abstract"},
			{Name: propExternalID, DataType: "text", Description: "Source identifier such as the arXiv id"},
		},
	}
}

// Index is the embedding index. Its store and embedder are owned by the
// caller.
type Index struct {
	store    vectorstore.Store
	embedder embedding.Service
	class    string
	log      *zap.Logger
}

// New returns an Index over store using embedder. An empty class uses
// DefaultClass; a nil logger discards output.
func New(store vectorstore.Store, embedder embedding.Service, class string, log *zap.Logger) *Index {
	if class == "" {
		class = DefaultClass
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{store: store, embedder: embedder, class: class, log: log}
}

// Class returns the vector-store class name.
func (ix *Index) Class() string { return ix.class }

// EnsureSchema creates the paper class if it does not exist. Calling it
// repeatedly is safe.
func (ix *Index) EnsureSchema(ctx context.Context) error {
	exists, err := ix.store.ClassExists(ctx, ix.class)
	if err != nil {
		return types.NewError(types.KindStorage, "ensure schema", ix.class, err)
	}
	if exists {
		ix.log.Debug("schema exists", zap.String("class", ix.class))
		return nil
	}
	if err := ix.store.CreateClass(ctx, PaperClass(ix.class)); err != nil {
		return types.NewError(types.KindStorage, "ensure schema", ix.class, err)
	}
	ix.log.Info("created schema", zap.String("class", ix.class))
	return nil
}

// Embed returns one vector per abstract, in input order. Abstracts are
// sent to the provider in batches of the service's batch size.
func (ix *Index) Embed(ctx context.Context, abstracts []string) ([][]float32, error) {
	if len(abstracts) == 0 {
		return nil, nil
	}
	size := ix.embedder.BatchSize()
	if size <= 0 {
		size = len(abstracts)
	}

	vecs := make([][]float32, 0, len(abstracts))
	for start := 0; start < len(abstracts); start += size {
		end := min(start+size, len(abstracts))
		batch, err := ix.embedder.EmbedBatch(ctx, abstracts[start:end])
		if err != nil {
			return nil, types.NewError(types.KindEmbedding, "embed",
				fmt.Sprintf("abstracts %d-%d", start+1, end), err)
		}
		if len(batch) != end-start {
			return nil, types.NewError(types.KindEmbedding, "embed", "",
				fmt.Errorf("got %d embeddings for %d abstracts", len(batch), end-start))
		}
		vecs = append(vecs, batch...)
		ix.log.Debug("embedded batch", zap.Int("from", start+1), zap.Int("to", end))
	}
	return vecs, nil
}

// Store inserts one object per record. Every record must carry an
// embedding; either all records are stored or none is. Duplicates of
// earlier runs are not detected.
func (ix *Index) Store(ctx context.Context, records []types.PaperRecord) error {
	if len(records) == 0 {
		return nil
	}

	objs := make([]vectorstore.Object, len(records))
	for i, r := range records {
		if len(r.Embedding) == 0 {
			return types.NewError(types.KindStorage, "store", r.ExternalID, fmt.Errorf("record has no embedding"))
		}
		objs[i] = vectorstore.Object{
			Properties: map[string]string{
				propTitle:      r.Title,
				propURL:        r.SourceURL,
				propAbstract:   r.Abstract,
				propExternalID: r.ExternalID,
			},
			Vector: r.Embedding,
		}
	}

	if _, err := ix.store.CreateObjects(ctx, ix.class, objs); err != nil {
		return types.NewError(types.KindStorage, "store", ix.class, err)
	}
	ix.log.Info("stored records", zap.String("class", ix.class), zap.Int("count", len(objs)))
	return nil
}

// IndexRecords embeds the abstracts of records and stores them. Nothing
// is stored if any embedding fails. It returns the records with their
// embeddings attached.
func (ix *Index) IndexRecords(ctx context.Context, records []types.PaperRecord) ([]types.PaperRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	abstracts := make([]string, len(records))
	for i, r := range records {
		abstracts[i] = r.Abstract
	}
	vecs, err := ix.Embed(ctx, abstracts)
	if err != nil {
		return nil, err
	}

	out := make([]types.PaperRecord, len(records))
	for i, r := range records {
		r.Embedding = vecs[i]
		out[i] = r
	}
	if err := ix.Store(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search embeds query and returns up to limit stored papers whose
// certainty, (1+cos)/2, is at least minSimilarity, most similar first.
// minSimilarity is applied as given, so 0 admits every paper. A
// non-positive limit falls back to DefaultLimit. An empty result is not
// an error.
func (ix *Index) Search(ctx context.Context, query string, limit int, minSimilarity float64) ([]types.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	vec, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, types.NewError(types.KindEmbedding, "embed query", "", err)
	}

	matches, err := ix.store.NearVector(ctx, ix.class, vec, minSimilarity, limit)
	if err != nil {
		return nil, types.NewError(types.KindStorage, "search", ix.class, err)
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, types.SearchResult{
			Title:     m.Properties[propTitle],
			SourceURL: m.Properties[propURL],
			Abstract:  m.Properties[propAbstract],
			Score:     m.Similarity,
		})
	}
	ix.log.Debug("search",
		zap.String("query", query),
		zap.Int("limit", limit),
		zap.Float64("min_similarity", minSimilarity),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Clear deletes every class in the store, including ones this index did
// not create. It returns the deleted class names.
func (ix *Index) Clear(ctx context.Context) ([]string, error) {
	classes, err := ix.store.ListClasses(ctx)
	if err != nil {
		return nil, types.NewError(types.KindStorage, "clear", "", err)
	}

	deleted := make([]string, 0, len(classes))
	for _, c := range classes {
		if err := ix.store.DeleteClass(ctx, c.Name); err != nil {
			return deleted, types.NewError(types.KindStorage, "clear", c.Name, err)
		}
		deleted = append(deleted, c.Name)
	}
	ix.log.Warn("cleared vector store", zap.Strings("classes", deleted))
	return deleted, nil
}
