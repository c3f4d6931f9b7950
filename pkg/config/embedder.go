// Copyright 2025 Kadir Pekel
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

package config

import "fmt"

// EmbedderConfig configures the text-embedding provider (C11, external
// collaborator consumed through the Embedder interface) used to turn a
// query intent into the D-dim vector fed into the message-passing engine.
//
// Example:
//
//	embedder:
//	  provider: ollama
//	  model: nomic-embed-text
//	  base_url: http://localhost:11434
type EmbedderConfig struct {
	// Provider specifies the embedding service: "openai", "ollama", "cohere", "hash".
	// "hash" is a deterministic, dependency-free embedder used in tests.
	Provider string `yaml:"provider,omitempty"`

	// Model is the embedding model name.
	Model string `yaml:"model,omitempty"`

	// APIKey for the embedding provider (OpenAI and Cohere require this).
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL for the API endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// Dimension of the embedding vectors. Must match model.EmbeddingDim.
	Dimension int `yaml:"dimension,omitempty"`

	// TimeoutSeconds bounds each embedding API request.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	// BatchSize for batch embedding requests.
	BatchSize int `yaml:"batch_size,omitempty"`
}

const (
	DefaultEmbedderProvider = "hash"
	DefaultEmbedderTimeout  = 30
	DefaultEmbedderBatch    = 100
)

func (c *EmbedderConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultEmbedderProvider
	}
	if c.Dimension == 0 {
		c.Dimension = DefaultEmbeddingDim
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultEmbedderTimeout
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultEmbedderBatch
	}
	switch c.Provider {
	case "ollama":
		if c.BaseURL == "" {
			c.BaseURL = "http://localhost:11434"
		}
		if c.Model == "" {
			c.Model = "nomic-embed-text"
		}
	case "openai":
		if c.BaseURL == "" {
			c.BaseURL = "https://api.openai.com/v1"
		}
		if c.Model == "" {
			c.Model = "text-embedding-3-small"
		}
	case "cohere":
		if c.BaseURL == "" {
			c.BaseURL = "https://api.cohere.com"
		}
		if c.Model == "" {
			c.Model = "embed-english-v3.0"
		}
	}
}

func (c *EmbedderConfig) Validate() error {
	switch c.Provider {
	case "hash":
	case "ollama":
	case "openai", "cohere":
		if c.APIKey == "" {
			return fmt.Errorf("api_key is required for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unknown embedder provider %q (valid: hash, openai, ollama, cohere)", c.Provider)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	return nil
}
