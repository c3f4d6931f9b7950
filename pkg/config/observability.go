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

import (
	"fmt"

	"github.com/kadirpekel/shgat/pkg/observability"
)

// ObservabilityConfig is the YAML-facing mirror of observability.Config,
// kept as a distinct type so pkg/config does not need to know about OTel's
// yaml tags directly and can apply its own strict-decoding discipline.
type ObservabilityConfig struct {
	Tracing observability.TracingConfig `yaml:"tracing,omitempty"`
	Metrics observability.MetricsConfig `yaml:"metrics,omitempty"`
}

func (c *ObservabilityConfig) SetDefaults() {
	c.Tracing.SetDefaults()
	c.Metrics.SetDefaults()
}

func (c *ObservabilityConfig) Validate() error {
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

// ToObservability converts to the observability package's own Config type.
func (c *ObservabilityConfig) ToObservability() *observability.Config {
	if c == nil {
		return &observability.Config{}
	}
	return &observability.Config{Tracing: c.Tracing, Metrics: c.Metrics}
}
