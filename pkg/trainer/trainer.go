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

// Package trainer implements the mini-batch SGD training loop (C5) over
// the K-head scorer's own projections. The upward/downward message-passing
// embeddings (pkg/shgat's Cache.H/E) are treated as fixed inputs for a
// training step, the same way a retrieval system fine-tunes a scoring head
// on top of a frozen backbone encoder; only the scorer's W_q/W_k/fusion
// parameters receive gradient updates.
package trainer

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/shgat"
	"github.com/kadirpekel/shgat/pkg/shgaterrors"
)

// Episode is one labelled training example: a query embedding, the
// capability it was (or was not) routed to, and the outcome label (1.0
// accepted/successful, 0.0 rejected/unsuccessful).
type Episode struct {
	Query        []float32
	CapabilityID string
	Label        float64
}

// EpochResult summarises one pass over a training set.
type EpochResult struct {
	FinalLoss      float64
	FinalAccuracy  float64
	SkippedInvalid int
	Aborted        bool
}

// Trainer holds SGD-with-momentum state for a fixed QKParams instance.
type Trainer struct {
	cfg *config.TrainerConfig
	qk  *shgat.QKParams

	momWQ      [][]float64 // per head, flattened row-major headDim x embeddingDim
	momWK      [][]float64 // per head, flattened row-major headDim x hiddenDim
	momFusionW []float64
	momFusionB float64
}

// New builds a Trainer bound to qk's current parameters. cfg is defaulted
// and validated by the caller (config.TrainerConfig.SetDefaults/Validate).
func New(cfg *config.TrainerConfig, qk *shgat.QKParams) *Trainer {
	t := &Trainer{
		cfg:        cfg,
		qk:         qk,
		momWQ:      make([][]float64, qk.NumHeads),
		momWK:      make([][]float64, qk.NumHeads),
		momFusionW: make([]float64, qk.NumHeads),
	}
	for h := 0; h < qk.NumHeads; h++ {
		t.momWQ[h] = make([]float64, qk.HeadDim*qk.EmbeddingDim)
		t.momWK[h] = make([]float64, qk.HeadDim*qk.HiddenDim)
	}
	return t
}

// TrainEpoch runs one epoch of mini-batch SGD over episodes against the
// supplied forward cache (one shared cache per epoch: the backbone
// embeddings are not recomputed per batch). Invalid examples (unknown
// capability id, wrong query dimension) are skipped and counted; the
// epoch aborts once the skipped fraction exceeds cfg.MaxInvalidFraction.
func (t *Trainer) TrainEpoch(ctx context.Context, cache *shgat.Cache, modelCfg *config.ModelConfig, episodes []Episode) (*EpochResult, error) {
	result := &EpochResult{}
	if len(episodes) == 0 {
		return result, nil
	}

	batchSize := t.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(episodes)
	}

	var totalLoss float64
	var totalCorrect, totalScored int

	for start := 0; start < len(episodes); start += batchSize {
		select {
		case <-ctx.Done():
			return nil, &shgaterrors.Cancelled{Stage: "trainer.TrainEpoch"}
		default:
		}

		end := start + batchSize
		if end > len(episodes) {
			end = len(episodes)
		}
		batch := episodes[start:end]

		gWQ := zeroLike(t.momWQ)
		gWK := zeroLike(t.momWK)
		gFusionW := make([]float64, t.qk.NumHeads)
		var gFusionB float64
		var batchLoss float64
		var scored int

		for _, ep := range batch {
			keyVec, ok := cache.E[ep.CapabilityID]
			if !ok || len(ep.Query) != t.qk.EmbeddingDim {
				result.SkippedInvalid++
				continue
			}

			loss, correct := t.accumulateGradients(ep, keyVec, modelCfg, gWQ, gWK, gFusionW, &gFusionB)
			batchLoss += loss
			scored++
			if correct {
				totalCorrect++
			}
		}

		if scored > 0 {
			t.applyGradients(gWQ, gWK, gFusionW, gFusionB, scored)
			totalLoss += batchLoss
			totalScored += scored
		}

		invalidFraction := float64(result.SkippedInvalid) / float64(end)
		if invalidFraction > t.cfg.MaxInvalidFraction {
			result.Aborted = true
			break
		}
	}

	if totalScored > 0 {
		result.FinalLoss = totalLoss / float64(totalScored)
		result.FinalAccuracy = float64(totalCorrect) / float64(totalScored)
	}
	return result, nil
}

// accumulateGradients computes the exact BCE gradient of one example
// through the K-head scorer (Q_h = W_q[h].q, K_h = W_k[h].e_c, s_h =
// sigmoid(Q_h.K_h/sqrt(headDim)), fused per modelCfg's strategy) and adds
// it into the running gradient accumulators.
func (t *Trainer) accumulateGradients(ep Episode, keyVec []float64, modelCfg *config.ModelConfig, gWQ, gWK [][]float64, gFusionW []float64, gFusionB *float64) (loss float64, correct bool) {
	qf := toFloat64(ep.Query)
	kv := resizeTo(keyVec, t.qk.HiddenDim)

	headDim := t.qk.HeadDim
	scale := 1.0 / math.Sqrt(float64(headDim))

	Q := make([][]float64, t.qk.NumHeads)
	K := make([][]float64, t.qk.NumHeads)
	headScores := make([]float64, t.qk.NumHeads)
	for h := 0; h < t.qk.NumHeads; h++ {
		Q[h] = matVec(t.qk.WQ[h], qf)
		K[h] = matVec(t.qk.WK[h], kv)
		headScores[h] = sigmoid(dot(Q[h], K[h]) * scale)
	}

	active := modelCfg.ActiveHeads
	if len(active) == 0 {
		active = allHeads(t.qk.NumHeads)
	}

	var score float64
	dLdHead := make([]float64, t.qk.NumHeads)

	if modelCfg.LearnedFusion {
		zPre := t.qk.FusionB
		for _, h := range active {
			zPre += t.qk.FusionW[h] * headScores[h]
		}
		score = sigmoid(zPre)
		dLdZ := score - ep.Label // combined BCE+sigmoid gradient
		*gFusionB += dLdZ
		for _, h := range active {
			gFusionW[h] += dLdZ * headScores[h]
			dLdHead[h] = dLdZ * t.qk.FusionW[h]
		}
	} else {
		weights := fusionWeights(modelCfg, active, t.qk.NumHeads)
		score = 0
		for _, h := range active {
			score += weights[h] * headScores[h]
		}
		clamped := clamp(score, 1e-7, 1-1e-7)
		dLdScore := (clamped - ep.Label) / (clamped * (1 - clamped))
		for _, h := range active {
			dLdHead[h] = dLdScore * weights[h]
		}
	}

	for _, h := range active {
		s := headScores[h]
		dLdPre := dLdHead[h] * s * (1 - s)
		dQ := scaleVec(K[h], dLdPre*scale)
		dK := scaleVec(Q[h], dLdPre*scale)
		addOuter(gWQ[h], dQ, qf, t.qk.HeadDim, t.qk.EmbeddingDim)
		addOuter(gWK[h], dK, kv, t.qk.HeadDim, t.qk.HiddenDim)
	}

	clampedScore := clamp(score, 1e-7, 1-1e-7)
	loss = -(ep.Label*math.Log(clampedScore) + (1-ep.Label)*math.Log(1-clampedScore))
	predicted := 0.0
	if score >= 0.5 {
		predicted = 1.0
	}
	return loss, predicted == ep.Label
}

func (t *Trainer) applyGradients(gWQ, gWK [][]float64, gFusionW []float64, gFusionB float64, batchSize int) {
	lr := t.cfg.LearningRate
	mom := t.cfg.Momentum
	clip := t.cfg.GradientClip
	n := float64(batchSize)

	for h := 0; h < t.qk.NumHeads; h++ {
		updateDense(t.qk.WQ[h], gWQ[h], t.momWQ[h], n, lr, mom, clip)
		updateDense(t.qk.WK[h], gWK[h], t.momWK[h], n, lr, mom, clip)

		g := clampScalar(gFusionW[h]/n, clip)
		t.momFusionW[h] = mom*t.momFusionW[h] + lr*g
		t.qk.FusionW[h] -= t.momFusionW[h]
	}
	g := clampScalar(gFusionB/n, clip)
	t.momFusionB = mom*t.momFusionB + lr*g
	t.qk.FusionB -= t.momFusionB
}

func updateDense(w *mat.Dense, grad, momentum []float64, n, lr, mom, clip float64) {
	rows, cols := w.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			idx := i*cols + j
			g := clampScalar(grad[idx]/n, clip)
			momentum[idx] = mom*momentum[idx] + lr*g
			w.Set(i, j, w.At(i, j)-momentum[idx])
		}
	}
}

func addOuter(dst, a, b []float64, rows, cols int) {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst[i*cols+j] += a[i] * b[j]
		}
	}
}

func zeroLike(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, v := range m {
		out[i] = make([]float64, len(v))
	}
	return out
}

func matVec(w *mat.Dense, v []float64) []float64 {
	rows, cols := w.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		s := 0.0
		for j := 0; j < cols && j < len(v); j++ {
			s += w.At(i, j) * v[j]
		}
		out[i] = s
	}
	return out
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

func scaleVec(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func resizeTo(v []float64, dim int) []float64 {
	if len(v) == dim {
		return v
	}
	out := make([]float64, dim)
	n := len(v)
	if n > dim {
		n = dim
	}
	copy(out, v[:n])
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampScalar(x, clip float64) float64 {
	if clip <= 0 {
		return x
	}
	return clamp(x, -clip, clip)
}

func allHeads(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// fusionWeights mirrors pkg/shgat's fuseHeads weighting for the non-learned
// fusion paths, restricted to active and renormalised to sum to one.
func fusionWeights(cfg *config.ModelConfig, active []int, numHeads int) []float64 {
	weights := make([]float64, numHeads)
	if len(cfg.HeadFusionWeights) == numHeads {
		var sum float64
		for _, h := range active {
			sum += cfg.HeadFusionWeights[h]
		}
		if sum > 0 {
			for _, h := range active {
				weights[h] = cfg.HeadFusionWeights[h] / sum
			}
			return weights
		}
	}
	u := 1.0 / float64(len(active))
	for _, h := range active {
		weights[h] = u
	}
	return weights
}

// String formats a one-line epoch summary for logging.
func (r *EpochResult) String() string {
	return fmt.Sprintf("loss=%.4f accuracy=%.4f skipped=%d aborted=%v", r.FinalLoss, r.FinalAccuracy, r.SkippedInvalid, r.Aborted)
}
