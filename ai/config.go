// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for the embedding service.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// QueryTimeout bounds a single query-time embedding call. A query whose
	// embedding does not return within this window falls back to keyword
	// retrieval rather than failing.
	// Default: 2s
	QueryTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithQueryTimeout sets the query-time embedding deadline.
func WithQueryTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.QueryTimeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "embeddinggemma",
		QueryTimeout:   2 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form. It adds the /v1
// suffix to the host if missing, which is required by most OpenAI-compatible
// APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.QueryTimeout <= 0 {
		return errors.New("ai config: QueryTimeout must be positive")
	}
	return nil
}
