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

package levelparams

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/kadirpekel/shgat/pkg/config"
)

// Initialize allocates W_child, W_parent, a_upward, a_downward for every
// level 0..maxLevel and every head, filled by Xavier initialization with
// variance 2/(fan_in+fan_out) from a seeded PRNG. The same seed always
// produces the same parameters, independent of machine or run.
func Initialize(cfg *config.ModelConfig, maxLevel int) *Params {
	headDim := cfg.HeadDim()
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)>>1|1))

	p := &Params{
		NumHeads:     cfg.NumHeads,
		HiddenDim:    cfg.HiddenDim,
		EmbeddingDim: cfg.EmbeddingDim,
		MaxLevel:     maxLevel,
		Seed:         cfg.Seed,
		Levels:       make([]*Level, maxLevel+1),
	}

	for lvl := 0; lvl <= maxLevel; lvl++ {
		inputDim := p.InputDim(lvl)
		level := &Level{
			WChild:    make([]*mat.Dense, cfg.NumHeads),
			WParent:   make([]*mat.Dense, cfg.NumHeads),
			AUpward:   make([][]float64, cfg.NumHeads),
			ADownward: make([][]float64, cfg.NumHeads),
		}
		for h := 0; h < cfg.NumHeads; h++ {
			level.WChild[h] = xavierMatrix(rng, headDim, inputDim)
			level.WParent[h] = xavierMatrix(rng, headDim, inputDim)
			level.AUpward[h] = xavierVector(rng, 2*headDim)
			level.ADownward[h] = xavierVector(rng, 2*headDim)
		}
		p.Levels[lvl] = level
	}
	return p
}

// xavierMatrix fills a rows x cols matrix with draws from
// N(0, 2/(rows+cols)), truncated to float32 precision so that an
// export/import round-trip through the float32 wire format reproduces the
// in-memory value bit-for-bit.
func xavierMatrix(rng *rand.Rand, rows, cols int) *mat.Dense {
	std := math.Sqrt(2.0 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = quantize(rng.NormFloat64() * std)
	}
	return mat.NewDense(rows, cols, data)
}

func xavierVector(rng *rand.Rand, n int) []float64 {
	std := math.Sqrt(2.0 / float64(n+1))
	v := make([]float64, n)
	for i := range v {
		v[i] = quantize(rng.NormFloat64() * std)
	}
	return v
}

// quantize round-trips a float64 through float32 so every stored
// parameter is already exactly representable in the exported wire
// format.
func quantize(x float64) float64 {
	return float64(float32(x))
}
