// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding wraps the external embedding provider.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	einoembed "github.com/cloudwego/eino/components/embedding"

	"github.com/pdiddy/accepted-papers/pkg/types"
)

const (
	defaultModel     = "text-embedding-3-small"
	defaultDim       = 1536
	defaultBatchSize = 64
)

// ErrNotConfigured is returned by the service built without an API key.
var ErrNotConfigured = errors.New("embedder not configured (missing API key)")

// Service turns text into vectors. EmbedBatch returns exactly one vector
// per input, in input order.
type Service interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
	Dim() int
	BatchSize() int
}

// New returns a Service backed by the OpenAI-compatible embeddings API.
// Without an API key it returns a service whose calls fail with
// ErrNotConfigured, so commands that never embed still run.
func New(ctx context.Context, cfg types.EmbedderConfig) (Service, error) {
	cfg = withDefaults(cfg)
	if cfg.APIKey == "" {
		return &noopService{cfg: cfg}, nil
	}

	inner, err := openai.NewEmbedder(ctx, &openai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return NewWithEmbedder(inner, cfg), nil
}

// NewWithEmbedder wraps any eino embedder.
func NewWithEmbedder(inner einoembed.Embedder, cfg types.EmbedderConfig) Service {
	return &einoService{cfg: withDefaults(cfg), inner: inner}
}

func withDefaults(cfg types.EmbedderConfig) types.EmbedderConfig {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Dim <= 0 {
		cfg.Dim = defaultDim
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return cfg
}

type einoService struct {
	cfg   types.EmbedderConfig
	inner einoembed.Embedder
}

func (s *einoService) ModelName() string { return s.cfg.Model }
func (s *einoService) Dim() int          { return s.cfg.Dim }
func (s *einoService) BatchSize() int    { return s.cfg.BatchSize }

func (s *einoService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch rejects empty texts instead of dropping them so the output
// stays aligned with the input.
func (s *einoService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("text %d is empty", i)
		}
	}

	vecs64, err := s.inner.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs64) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d texts", len(vecs64), len(texts))
	}

	vecs := make([][]float32, len(vecs64))
	for i, v := range vecs64 {
		if len(v) == 0 {
			return nil, fmt.Errorf("provider returned an empty embedding for text %d", i)
		}
		vecs[i] = toFloat32(v)
	}
	return vecs, nil
}

type noopService struct {
	cfg types.EmbedderConfig
}

func (n *noopService) ModelName() string { return n.cfg.Model }
func (n *noopService) Dim() int          { return n.cfg.Dim }
func (n *noopService) BatchSize() int    { return n.cfg.BatchSize }

func (n *noopService) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, ErrNotConfigured
}

func (n *noopService) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, ErrNotConfigured
}

// toFloat32 narrows provider vectors for BLOB storage.
func toFloat32(v []float64) []float32 {
	ret := make([]float32, len(v))
	for i, val := range v {
		ret[i] = float32(val)
	}
	return ret
}
