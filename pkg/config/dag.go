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

// DAGConfig calibrates confidence and rationale for suggested dependency
// paths and the suggester's final ranked output (C8/C9). The DAG itself
// is built and executed by an external collaborator; this engine only
// scores and explains the candidates handed to it.
type DAGConfig struct {
	// HopConfidence is the per-hop decay multiplier applied along a path
	// by any caller wanting a simple geometric hop-decay reading (kept
	// alongside the piecewise PathConfidenceByHop map below, which is
	// what pkg/confidence's path confidence actually uses per spec.md
	// §4.9 — HopConfidence remains available for callers that want a
	// smooth decay instead of the spec's piecewise steps).
	HopConfidence float64 `yaml:"hopConfidence,omitempty"`

	Weights DAGWeights `yaml:"weights,omitempty"`

	// PathConfidenceByHop is the piecewise hop-count -> confidence map
	// of spec.md §4.9: {1:0.95, 2:0.80, 3:0.65}. Any hop count not
	// present (including <= 0) falls back to PathConfidenceDefault.
	PathConfidenceByHop map[int]float64 `yaml:"pathConfidenceByHop,omitempty"`

	// PathConfidenceDefault is applied for hop counts >= 4 (and <= 0).
	PathConfidenceDefault float64 `yaml:"pathConfidenceDefault,omitempty"`

	// MaxConfidence caps the blended hybrid confidence score.
	MaxConfidence float64 `yaml:"maxConfidence,omitempty"`

	// PagerankThreshold: PageRank contributions below this value are
	// omitted from the rationale string entirely, not just rounded to
	// zero — a negligible PageRank reading is noise, not signal.
	PagerankThreshold float64 `yaml:"pagerankThreshold,omitempty"`

	// BlendBase is the (hybridWeight, pagerankWeight, pathWeight) triple
	// at alpha=0.5, and BlendScale is the linear slope applied to
	// (alpha-0.5)/0.5 for each of the three weights (spec.md §4.9: at
	// alpha=1.0 the triple becomes base+scale, base-scale, base-scale).
	BlendBase  ConfidenceWeights `yaml:"blendBase,omitempty"`
	BlendScale ConfidenceWeights `yaml:"blendScale,omitempty"`
}

// ConfidenceWeights is the (hybrid, pagerank, path) weight triple used
// by the adaptive confidence blend.
type ConfidenceWeights struct {
	Hybrid   float64 `yaml:"hybrid,omitempty"`
	Pagerank float64 `yaml:"pagerank,omitempty"`
	Path     float64 `yaml:"path,omitempty"`
}

// DAGWeights blends a path's base confidence with hop-count scaling.
type DAGWeights struct {
	ConfidenceBase    float64 `yaml:"confidenceBase,omitempty"`
	ConfidenceScaling float64 `yaml:"confidenceScaling,omitempty"`
}

const (
	DefaultHopConfidence     = 0.9
	DefaultConfidenceBase    = 0.6
	DefaultConfidenceScaling = 0.4

	DefaultPathConfidenceDefault = 0.45
	DefaultMaxConfidence         = 0.95
	DefaultPagerankThreshold     = 0.01
)

func (c *DAGConfig) SetDefaults() {
	if c.HopConfidence == 0 {
		c.HopConfidence = DefaultHopConfidence
	}
	if c.Weights.ConfidenceBase == 0 && c.Weights.ConfidenceScaling == 0 {
		c.Weights.ConfidenceBase = DefaultConfidenceBase
		c.Weights.ConfidenceScaling = DefaultConfidenceScaling
	}
	if c.PathConfidenceByHop == nil {
		c.PathConfidenceByHop = map[int]float64{1: 0.95, 2: 0.80, 3: 0.65}
	}
	if c.PathConfidenceDefault == 0 {
		c.PathConfidenceDefault = DefaultPathConfidenceDefault
	}
	if c.MaxConfidence == 0 {
		c.MaxConfidence = DefaultMaxConfidence
	}
	if c.PagerankThreshold == 0 {
		c.PagerankThreshold = DefaultPagerankThreshold
	}
	if c.BlendBase == (ConfidenceWeights{}) {
		c.BlendBase = ConfidenceWeights{Hybrid: 0.55, Pagerank: 0.30, Path: 0.15}
	}
	if c.BlendScale == (ConfidenceWeights{}) {
		c.BlendScale = ConfidenceWeights{Hybrid: 0.30, Pagerank: 0.25, Path: 0.05}
	}
}

func (c *DAGConfig) Validate() error {
	if c.HopConfidence <= 0 || c.HopConfidence > 1 {
		return fmt.Errorf("hopConfidence must lie in (0,1], got %f", c.HopConfidence)
	}
	sum := c.Weights.ConfidenceBase + c.Weights.ConfidenceScaling
	if sum < 1-1e-2 || sum > 1+1e-2 {
		return fmt.Errorf("weights.confidenceBase + weights.confidenceScaling must equal 1.0 ± 1e-2, got %f", sum)
	}
	if c.MaxConfidence <= 0 || c.MaxConfidence > 1 {
		return fmt.Errorf("maxConfidence must lie in (0,1], got %f", c.MaxConfidence)
	}
	if c.PathConfidenceDefault <= 0 || c.PathConfidenceDefault > 1 {
		return fmt.Errorf("pathConfidenceDefault must lie in (0,1], got %f", c.PathConfidenceDefault)
	}
	baseSum := c.BlendBase.Hybrid + c.BlendBase.Pagerank + c.BlendBase.Path
	if baseSum < 1-1e-2 || baseSum > 1+1e-2 {
		return fmt.Errorf("blendBase triple must sum to 1.0 ± 1e-2, got %f", baseSum)
	}
	return nil
}
