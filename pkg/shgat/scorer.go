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

package shgat

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/shgaterrors"
)

// QKParams are the scorer's own learned projections (C4), distinct from
// the per-level message-passing tensors in pkg/levelparams: W_q[h] maps a
// D-dim query into head space, W_k[h] maps a hiddenDim-wide capability
// embedding into the same head space.
type QKParams struct {
	NumHeads     int
	HeadDim      int
	EmbeddingDim int
	HiddenDim    int

	WQ []*mat.Dense
	WK []*mat.Dense

	// FusionW/FusionB implement the optional single-layer MLP fusion over
	// per-head scores when cfg.LearnedFusion is set.
	FusionW []float64
	FusionB float64
}

// InitQK allocates and Xavier-initialises the scorer's projections for cfg
// from a seeded PRNG, independent of the message-passing parameters' seed
// stream so retraining the hierarchy tensors does not perturb the scorer.
// Initial weights are quantized through float32, so an untrained QKParams
// survives the float32 codec round-trip exactly.
func InitQK(cfg *config.ModelConfig) *QKParams {
	headDim := cfg.HeadDim()
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed)^0x51434b52, uint64(cfg.Seed)>>1|1))

	qk := &QKParams{
		NumHeads:     cfg.NumHeads,
		HeadDim:      headDim,
		EmbeddingDim: cfg.EmbeddingDim,
		HiddenDim:    cfg.HiddenDim,
		WQ:           make([]*mat.Dense, cfg.NumHeads),
		WK:           make([]*mat.Dense, cfg.NumHeads),
		FusionW:      make([]float64, cfg.NumHeads),
	}
	for h := 0; h < cfg.NumHeads; h++ {
		qk.WQ[h] = xavier(rng, headDim, cfg.EmbeddingDim)
		qk.WK[h] = xavier(rng, headDim, cfg.HiddenDim)
		qk.FusionW[h] = 1.0 / float64(cfg.NumHeads)
	}
	return qk
}

func xavier(rng *rand.Rand, rows, cols int) *mat.Dense {
	std := math.Sqrt(2.0 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(float32(rng.NormFloat64() * std))
	}
	return mat.NewDense(rows, cols, data)
}

// ScoredCapability is one ranked result from ScoreAllCapabilities.
type ScoredCapability struct {
	CapabilityID    string
	Score           float64
	SemanticScore   float64
	StructuralScore float64
	HeadScores      []float64
}

// Score computes the fused K-head score for a single capability: per-head
// attention s_h = sigmoid(Q_h . K_h / sqrt(headDim)), combined per cfg's
// fusion strategy (learned MLP, fixed head-fusion weights, or unweighted
// mean), restricted to cfg.ActiveHeads when non-empty.
//
// Both a semantic score (query against the capability's raw stored
// embedding) and a structural score (query against its propagated cache
// embedding) are computed; the structural score is the one combined into
// the final result, the semantic score is returned alongside purely as a
// diagnostic for comparing the two ranking signals.
func Score(q []float32, capabilityID string, rawEmbedding []float32, cache *Cache, cfg *config.ModelConfig, qk *QKParams) (*ScoredCapability, error) {
	if len(q) != qk.EmbeddingDim {
		return nil, &shgaterrors.DimensionMismatch{Expected: qk.EmbeddingDim, Actual: len(q), Context: "query"}
	}
	structEmbed, ok := cache.E[capabilityID]
	if !ok {
		return nil, &shgaterrors.QueryError{Reason: "capability " + capabilityID + " missing from forward cache"}
	}

	qf := toFloat64(q)
	headScores := make([]float64, qk.NumHeads)
	for h := 0; h < qk.NumHeads; h++ {
		Qh := matVec(qk.WQ[h], qf)
		Kh := matVec(qk.WK[h], ensureDim(structEmbed, qk.HiddenDim))
		headScores[h] = sigmoid(dot(Qh, Kh) / math.Sqrt(float64(qk.HeadDim)))
	}

	structural := fuseHeads(headScores, cfg, qk)

	semantic := 0.0
	if len(rawEmbedding) == qk.EmbeddingDim {
		rf := toFloat64(rawEmbedding)
		semHeadScores := make([]float64, qk.NumHeads)
		for h := 0; h < qk.NumHeads; h++ {
			Qh := matVec(qk.WQ[h], qf)
			Kh := matVec(qk.WK[h], ensureDim(rf, qk.HiddenDim))
			semHeadScores[h] = sigmoid(dot(Qh, Kh) / math.Sqrt(float64(qk.HeadDim)))
		}
		semantic = fuseHeads(semHeadScores, cfg, qk)
	}

	return &ScoredCapability{
		CapabilityID:    capabilityID,
		Score:           structural,
		SemanticScore:   semantic,
		StructuralScore: structural,
		HeadScores:      headScores,
	}, nil
}

func fuseHeads(headScores []float64, cfg *config.ModelConfig, qk *QKParams) float64 {
	active := cfg.ActiveHeads
	if len(active) == 0 {
		active = make([]int, len(headScores))
		for i := range active {
			active[i] = i
		}
	}

	if cfg.LearnedFusion {
		sum := qk.FusionB
		for _, h := range active {
			sum += qk.FusionW[h] * headScores[h]
		}
		return sigmoid(sum)
	}

	if len(cfg.HeadFusionWeights) == len(headScores) {
		var sum, wsum float64
		for _, h := range active {
			sum += cfg.HeadFusionWeights[h] * headScores[h]
			wsum += cfg.HeadFusionWeights[h]
		}
		if wsum > 0 {
			return sum / wsum
		}
	}

	var sum float64
	for _, h := range active {
		sum += headScores[h]
	}
	return sum / float64(len(active))
}

// ScoreAllCapabilities scores every capability present in the cache
// against q and returns results sorted by descending score, ties broken
// lexicographically by capability id for determinism.
func ScoreAllCapabilities(q []float32, rawEmbeddings map[string][]float32, cache *Cache, cfg *config.ModelConfig, qk *QKParams) ([]*ScoredCapability, error) {
	results := make([]*ScoredCapability, 0, len(cache.E))
	for id := range cache.E {
		sc, err := Score(q, id, rawEmbeddings[id], cache, cfg, qk)
		if err != nil {
			return nil, err
		}
		results = append(results, sc)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CapabilityID < results[j].CapabilityID
	})
	return results, nil
}
