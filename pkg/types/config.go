package types

import "time"

// HTTPConfig holds shared HTTP settings used by every stage that makes
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RateLimit is the sustained request rate per second across the whole
	// run. Zero or negative disables limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// Burst is the rate limiter bucket size (default 1).
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`

	// MaxRetries bounds retries of transient failures (429, 5xx, network
	// errors). Zero disables retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
}

// ResolverConfig holds settings for listing-page resolution.
type ResolverConfig struct {
	// Marker is the substring an anchor's visible text must contain
	// (default "arXiv").
	Marker string `json:"marker" yaml:"marker" mapstructure:"marker"`

	// TitleTag is the element that holds each paper's title on the
	// listing page (default "dt").
	TitleTag string `json:"title_tag" yaml:"title_tag" mapstructure:"title_tag"`
}

// FetcherConfig holds settings for content fetching.
type FetcherConfig struct {
	// Source selects the registered fetcher (default "arxiv").
	Source string `json:"source" yaml:"source" mapstructure:"source"`

	// APIBase is the metadata API endpoint.
	APIBase string `json:"api_base" yaml:"api_base" mapstructure:"api_base"`

	// Concurrency bounds the number of papers fetched at once (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// AbstractOnly skips the PDF download and leaves FullText empty.
	AbstractOnly bool `json:"abstract_only" yaml:"abstract_only" mapstructure:"abstract_only"`
}

// EmbedderConfig holds settings for the embedding provider.
type EmbedderConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	Model   string `json:"model" yaml:"model" mapstructure:"model"`
	Dim     int    `json:"dim" yaml:"dim" mapstructure:"dim"`

	// BatchSize caps how many texts go into one provider call (default 64).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
}

// StoreConfig holds settings for the vector store.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Class is the collection that holds paper objects (default "Paper").
	Class string `json:"class" yaml:"class" mapstructure:"class"`
}

// SearchConfig holds defaults for semantic queries.
type SearchConfig struct {
	// Limit is the maximum number of results (default 1).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// MinSimilarity is the certainty floor (default 0.7). Zero admits
	// every stored paper.
	MinSimilarity float64 `json:"min_similarity" yaml:"min_similarity" mapstructure:"min_similarity"`
}

// ExportFormat selects the tabular export format.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
)

// ExportConfig holds settings for the export stage.
type ExportConfig struct {
	Format ExportFormat `json:"format" yaml:"format" mapstructure:"format"`
	Output string       `json:"output" yaml:"output" mapstructure:"output"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" or "console".
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// OutputPaths lists zap sinks (default stderr).
	OutputPaths []string `json:"output_paths" yaml:"output_paths" mapstructure:"output_paths"`
}

// AppConfig groups all stage configurations.
type AppConfig struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http" mapstructure:"http"`
	Resolver ResolverConfig `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	Fetcher  FetcherConfig  `json:"fetcher" yaml:"fetcher" mapstructure:"fetcher"`
	Embedder EmbedderConfig `json:"embedder" yaml:"embedder" mapstructure:"embedder"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	Export   ExportConfig   `json:"export" yaml:"export" mapstructure:"export"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}
