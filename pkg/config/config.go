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

// Package config provides configuration loading and management for the
// SHGAT capability retrieval engine.
//
// SHGAT is config-first: the model shape, the Local Alpha algorithm, and
// the Thompson-Sampling thresholds are all defined in YAML and the engine
// builds itself accordingly.
//
// Example config:
//
//	model:
//	  numHeads: 8
//	  hiddenDim: 512
//	  embeddingDim: 1024
//	  numLayers: 2
//
//	alpha:
//	  alphaMin: 0.5
//	  alphaMax: 1.0
//	  coldStart:
//	    threshold: 5
//
//	thompson:
//	  mode:
//	    active: {base: 0.7}
//	    passive: {base: 0.5}
//
//	observability:
//	  metrics:
//	    enabled: true
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure for a SHGAT deployment.
type Config struct {
	// Name of this configuration (for logging/display).
	Name string `yaml:"name,omitempty"`

	// Model configures the hypergraph attention network shape (C2/C3/C4).
	Model ModelConfig `yaml:"model,omitempty"`

	// Trainer configures the SGD training loop (C5).
	Trainer TrainerConfig `yaml:"trainer,omitempty"`

	// Alpha configures the Local Adaptive Alpha calculator (C6).
	Alpha AlphaConfig `yaml:"alpha,omitempty"`

	// Thompson configures the Thompson-Sampling arbiter (C7).
	Thompson ThompsonConfig `yaml:"thompson,omitempty"`

	// DAG configures confidence calibration for suggested execution paths (C8/C9).
	DAG DAGConfig `yaml:"dag,omitempty"`

	// Suggester configures suggestDAG's retrieval/ranking/retry behaviour (C8).
	Suggester SuggesterConfig `yaml:"suggester,omitempty"`

	// Server configures the HTTP query API.
	Server ServerConfig `yaml:"server,omitempty"`

	// Store configures tool/capability persistence.
	Store StoreConfig `yaml:"store,omitempty"`

	// VectorStore configures the external semantic search backend.
	VectorStore VectorStoreConfig `yaml:"vector_store,omitempty"`

	// Embedder configures the external text-embedding backend.
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`

	// Logger configures logging behavior.
	Logger *LoggerConfig `yaml:"logger,omitempty"`

	// Observability configures tracing and metrics.
	Observability *ObservabilityConfig `yaml:"observability,omitempty"`
}

// SetDefaults applies default values to the config and all sub-configs.
func (c *Config) SetDefaults() {
	c.Model.SetDefaults()
	c.Trainer.SetDefaults()
	c.Alpha.SetDefaults()
	c.Thompson.SetDefaults()
	c.DAG.SetDefaults()
	c.Suggester.SetDefaults()
	c.Server.SetDefaults()
	c.Store.SetDefaults()
	c.VectorStore.SetDefaults()
	c.Embedder.SetDefaults()

	if c.Logger == nil {
		c.Logger = &LoggerConfig{}
	}
	c.Logger.SetDefaults()

	if c.Observability == nil {
		c.Observability = &ObservabilityConfig{}
	}
	c.Observability.SetDefaults()
}

// Validate checks the configuration for errors. It returns a *ConfigError
// aggregating every violation found, not just the first.
func (c *Config) Validate() error {
	var errs []string

	if err := c.Model.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("model: %v", err))
	}
	if err := c.Trainer.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("trainer: %v", err))
	}
	if err := c.Alpha.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("alpha: %v", err))
	}
	if err := c.Thompson.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("thompson: %v", err))
	}
	if err := c.DAG.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("dag: %v", err))
	}
	if err := c.Suggester.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("suggester: %v", err))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server: %v", err))
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("store: %v", err))
	}
	if err := c.VectorStore.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("vector_store: %v", err))
	}
	if err := c.Embedder.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("embedder: %v", err))
	}
	if c.Logger != nil {
		if err := c.Logger.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("logger: %v", err))
		}
	}
	if c.Observability != nil {
		if err := c.Observability.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("observability: %v", err))
		}
	}

	if len(errs) > 0 {
		return &ConfigError{Reason: fmt.Sprintf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))}
	}

	return nil
}

// ConfigError is raised when a configuration fails validation or contains
// unknown keys under strict decoding.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}
