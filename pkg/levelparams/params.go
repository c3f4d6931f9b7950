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

// Package levelparams owns the learned tensors of the message-passing
// engine: per-level, per-head child/parent projections and attention
// vectors (C2). Parameters are created once per graph topology,
// persisted, and reloaded; training mutates them in place.
package levelparams

import "gonum.org/v1/gonum/mat"

// Level holds the W_child/W_parent/a_upward/a_downward tensors for every
// head at a single level of the hierarchy.
type Level struct {
	// WChild[h] and WParent[h] are headDim x inputDim projection matrices.
	WChild  []*mat.Dense
	WParent []*mat.Dense

	// AUpward[h] and ADownward[h] are attention vectors of length 2*headDim.
	AUpward   [][]float64
	ADownward [][]float64
}

// Params is the full set of level parameters for one model topology.
type Params struct {
	NumHeads     int
	HiddenDim    int
	EmbeddingDim int
	MaxLevel     int
	Seed         int64

	// Levels is indexed 0..MaxLevel. Levels[0]'s projections take
	// EmbeddingDim-wide input; every level above takes HiddenDim-wide
	// input (numHeads*headDim, the concatenation of the previous level's
	// per-head outputs).
	Levels []*Level
}

// HeadDim returns the per-head output dimension.
func (p *Params) HeadDim() int { return p.HiddenDim / p.NumHeads }

// InputDim returns the projection input width for level.
func (p *Params) InputDim(level int) int {
	if level == 0 {
		return p.EmbeddingDim
	}
	return p.HiddenDim
}

// ParamCount returns the total scalar parameter count, matching the
// closed form per level: K*(2*headDim*inputDim + 4*headDim).
func (p *Params) ParamCount() int {
	headDim := p.HeadDim()
	total := 0
	for lvl := 0; lvl <= p.MaxLevel; lvl++ {
		inputDim := p.InputDim(lvl)
		total += p.NumHeads * (2*headDim*inputDim + 4*headDim)
	}
	return total
}
