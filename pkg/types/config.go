// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout for non-streaming calls.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-finder/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search and similar-papers proxies.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// NumResults is the number of results requested from the provider
	// (default 10).
	NumResults int `json:"num_results" yaml:"num_results"`

	// Category restricts results by provider content category
	// (default "research paper").
	Category string `json:"category" yaml:"category"`

	// SummaryQuery is the per-result summarization instruction sent to
	// the provider alongside the search.
	SummaryQuery string `json:"summary_query" yaml:"summary_query"`

	// APIKey authenticates against the search provider. Usually loaded
	// from .secrets/exa-api-key rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries caps 429 retries on provider calls (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AnswerConfig holds settings for the streaming answer proxy.
type AnswerConfig struct {
	// Model is the provider-side answer model identifier (default "exa").
	Model string `json:"model" yaml:"model"`

	// SystemPrompt biases the provider toward short, evidence-based,
	// yes/no-first answers.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`

	// MaxDuration bounds the total lifetime of one answer stream. It is
	// a ceiling on the whole request, not a per-chunk idle timeout
	// (default 100s).
	MaxDuration time.Duration `json:"max_duration" yaml:"max_duration"`
}

// ChatConfig holds settings for the chat proxy.
type ChatConfig struct {
	// Model is the chat model identifier (e.g. "claude-sonnet-4-20250514").
	Model string `json:"model" yaml:"model"`

	// SystemPrompt is prepended to every conversation.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`

	// MaxTokens caps the length of each model turn (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// APIKey authenticates against the model provider. Usually loaded
	// from .secrets/anthropic-api-key rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxDuration bounds the total lifetime of one chat stream (default 30s).
	MaxDuration time.Duration `json:"max_duration" yaml:"max_duration"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// ReadHeaderTimeout bounds how long a client may take to send
	// request headers (default 10s). There is no WriteTimeout: answer
	// and chat responses are open-ended streams with their own
	// per-request duration ceilings.
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout"`

	// ShutdownTimeout bounds graceful shutdown (default 5s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// CacheConfig holds settings for the optional search-response cache.
// The cache memoizes provider responses server-side; it never holds
// client or stream state.
type CacheConfig struct {
	// Enabled turns the cache on. Off by default.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file (default "cache/paper-finder.db").
	Path string `json:"path" yaml:"path"`

	// TTL is how long a cached provider response stays valid (default 1h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// AppConfig groups all component configurations.
type AppConfig struct {
	Server ServerConfig `json:"server" yaml:"server"`
	Search SearchConfig `json:"search" yaml:"search"`
	Answer AnswerConfig `json:"answer" yaml:"answer"`
	Chat   ChatConfig   `json:"chat" yaml:"chat"`
	Cache  CacheConfig  `json:"cache" yaml:"cache"`
}
