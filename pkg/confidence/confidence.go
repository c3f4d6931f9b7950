// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package confidence implements the confidence calibration and rationale
// formatting layer (C9): turning a suggester's ranked candidates, their
// dependency path hop counts, and the query's local alpha into a single
// capped confidence score plus a deterministic human-readable rationale.
package confidence

import "github.com/kadirpekel/shgat/pkg/config"

// Calculator computes confidence scores and rationale strings from a
// single DAGConfig. It carries no mutable state — every method is a pure
// function of its config and arguments.
type Calculator struct {
	cfg *config.DAGConfig
}

func New(cfg *config.DAGConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// PathConfidence is the piecewise hop-count -> confidence map of spec.md
// §4.9: {1:0.95, 2:0.80, 3:0.65, >=4: PathConfidenceDefault}. Hop counts
// <= 0 (no path, or a self-loop / direct match) are treated the same as
// >= 4.
func (c *Calculator) PathConfidence(hops int) float64 {
	if hops <= 0 {
		return c.cfg.PathConfidenceDefault
	}
	if v, ok := c.cfg.PathConfidenceByHop[hops]; ok {
		return v
	}
	return c.cfg.PathConfidenceDefault
}

// AdaptiveWeights computes the (hybrid, pagerank, path) weight triple as
// a linear function of alpha, clipped to [0.5, 1.0] first (spec.md
// §4.9): at alpha=0.5 the triple is BlendBase; at alpha=1.0 it is
// BlendBase+BlendScale for the hybrid weight and BlendBase-BlendScale
// for the pagerank/path weights.
func (c *Calculator) AdaptiveWeights(alpha float64) config.ConfidenceWeights {
	if alpha < 0.5 {
		alpha = 0.5
	}
	if alpha > 1.0 {
		alpha = 1.0
	}
	t := (alpha - 0.5) / 0.5

	return config.ConfidenceWeights{
		Hybrid:   c.cfg.BlendBase.Hybrid + c.cfg.BlendScale.Hybrid*t,
		Pagerank: c.cfg.BlendBase.Pagerank - c.cfg.BlendScale.Pagerank*t,
		Path:     c.cfg.BlendBase.Path - c.cfg.BlendScale.Path*t,
	}
}

// HybridConfidence blends the top candidate's hybrid score, the mean
// PageRank of the top-3 candidates, and the mean path confidence across
// extracted dependency paths, weighted by weights and capped at
// MaxConfidence. A missing component (represented by the caller passing
// 0 for a component that genuinely has no value, e.g. no dependency
// paths were extracted) contributes 0 with no renormalisation of the
// remaining weights, per spec.md §4.9.
func (c *Calculator) HybridConfidence(topHybrid, meanTop3PageRank, meanPathConfidence float64, weights config.ConfidenceWeights) float64 {
	score := weights.Hybrid*topHybrid + weights.Pagerank*meanTop3PageRank + weights.Path*meanPathConfidence
	if score > c.cfg.MaxConfidence {
		return c.cfg.MaxConfidence
	}
	if score < 0 {
		return 0
	}
	return score
}
