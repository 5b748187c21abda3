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
	"net/url"
	"strings"
	"time"
)

// Config holds configuration for the embedding service.
type Config struct {
	// Provider selects the client implementation: "ollama" or "openai".
	Provider string

	// Host is the base URL of the embedding service.
	// Example: "http://localhost:11434" for Ollama, "http://localhost:8080/v1"
	// for an OpenAI-compatible server.
	Host string

	// Model is the embedding model identifier.
	// Example: "mxbai-embed-large", "text-embedding-3-small"
	Model string

	// Token is the API token sent to OpenAI-compatible services.
	// Local services that don't require authentication accept "none".
	Token string

	// Timeout bounds a single embedding call. Zero means no timeout.
	Timeout time.Duration

	// StripNewLines replaces newlines with spaces before embedding.
	StripNewLines bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the embedding provider name.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithStripNewLines toggles newline stripping.
func WithStripNewLines(strip bool) ConfigOption {
	return func(c *Config) {
		c.StripNewLines = strip
	}
}

// DefaultConfig returns a Config for a local Ollama server running mxbai-embed-large.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderOllama,
		Host:     "http://localhost:11434",
		Model:    "mxbai-embed-large",
		Token:    "none",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOpenAI),
//	    WithHost("http://localhost:8080"),
//	    WithModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get a /v1 suffix; Ollama hosts lose it, since the
// native API lives under /api.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Host == "" {
		return
	}
	c.Host = strings.TrimSuffix(c.Host, "/")
	switch c.Provider {
	case ProviderOpenAI:
		if !strings.HasSuffix(c.Host, "/v1") {
			c.Host += "/v1"
		}
	case ProviderOllama:
		c.Host = strings.TrimSuffix(c.Host, "/v1")
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderOllama, ProviderOpenAI:
	case "":
		return errors.New("ai config: Provider is required")
	default:
		return errors.New("ai config: Provider must be one of ollama, openai")
	}
	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	u, err := url.ParseRequestURI(c.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("ai config: Host must be an absolute URL")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Timeout < 0 {
		return errors.New("ai config: Timeout cannot be negative")
	}
	return nil
}
