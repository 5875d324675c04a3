// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/accepted-papers/internal/embedding"
	"github.com/pdiddy/accepted-papers/internal/fetch"
	"github.com/pdiddy/accepted-papers/internal/httputil"
	"github.com/pdiddy/accepted-papers/internal/index"
	"github.com/pdiddy/accepted-papers/internal/pipeline"
	"github.com/pdiddy/accepted-papers/internal/vectorstore"
	"github.com/pdiddy/accepted-papers/pkg/types"
)

const defaultDBPath = "accepted-papers.db"

// setDefaults registers every config key so environment variables are
// picked up by Unmarshal even when no config file sets them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", 60*time.Second)
	v.SetDefault("http.user_agent", "accepted-papers/0.1")
	v.SetDefault("http.rate_limit", 1.0)
	v.SetDefault("http.burst", 1)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.retry_base_delay", 2*time.Second)

	v.SetDefault("resolver.marker", "arXiv")
	v.SetDefault("resolver.title_tag", "dt")

	v.SetDefault("fetcher.source", fetch.SourceArxiv)
	v.SetDefault("fetcher.api_base", fetch.DefaultArxivAPIBase)
	v.SetDefault("fetcher.concurrency", pipeline.DefaultConcurrency)
	v.SetDefault("fetcher.abstract_only", false)

	v.SetDefault("embedder.base_url", "")
	v.SetDefault("embedder.api_key", "")
	v.SetDefault("embedder.model", "text-embedding-3-small")
	v.SetDefault("embedder.dim", 1536)
	v.SetDefault("embedder.batch_size", 64)

	v.SetDefault("store.path", defaultDBPath)
	v.SetDefault("store.class", index.DefaultClass)

	v.SetDefault("search.limit", index.DefaultLimit)
	v.SetDefault("search.min_similarity", index.DefaultMinSimilarity)

	v.SetDefault("export.format", string(types.FormatCSV))
	v.SetDefault("export.output", "papers.csv")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_paths", []string{})
}

// loadConfig decodes the merged flags, environment, config file, and
// defaults.
func loadConfig() (types.AppConfig, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.AppConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Fetcher.Concurrency < 1 {
		return types.AppConfig{}, fmt.Errorf("fetcher.concurrency must be at least 1, got %d", cfg.Fetcher.Concurrency)
	}
	if cfg.HTTP.MaxRetries < 0 {
		return types.AppConfig{}, fmt.Errorf("http.max_retries must not be negative, got %d", cfg.HTTP.MaxRetries)
	}
	return cfg, nil
}

// mustBind binds a flag to a config key. It panics only on programmer
// error (a nil flag).
func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding %s: %v", key, err))
	}
}

// newFetcher builds the shared HTTP client and the fetcher registered for
// cfg.Fetcher.Source.
func newFetcher(cfg types.AppConfig) (*httputil.Client, fetch.Fetcher, error) {
	client := httputil.NewClient(cfg.HTTP)
	registry, err := fetch.NewRegistry(
		fetch.NewArxivFetcher(client, cfg.Fetcher, fetch.WithLogger(logger)),
	)
	if err != nil {
		return nil, nil, err
	}
	f, err := registry.Get(cfg.Fetcher.Source)
	if err != nil {
		return nil, nil, err
	}
	return client, f, nil
}

// openIndex opens the vector store and embedder. The returned close
// function releases the store.
func openIndex(ctx context.Context, cfg types.AppConfig) (*index.Index, func(), error) {
	store, err := vectorstore.OpenSQLite(cfg.Store.Path, vectorstore.WithLogger(logger))
	if err != nil {
		return nil, nil, types.NewError(types.KindStorage, "open store", cfg.Store.Path, err)
	}

	embCfg := cfg.Embedder
	embCfg.APIKey = secretDefault(embCfg.APIKey)
	embedder, err := embedding.New(ctx, embCfg)
	if err != nil {
		store.Close()
		return nil, nil, types.NewError(types.KindEmbedding, "open embedder", embCfg.Model, err)
	}

	ix := index.New(store, embedder, cfg.Store.Class, logger)
	return ix, func() { store.Close() }, nil
}
