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

package thompson

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/observability"
)

// posterior holds one tool's Beta(alphaSucc, alphaFail) state plus the
// running observation count used for UCB and decay.
type posterior struct {
	alphaSucc float64
	alphaFail float64
	n         int // observations since last decay application
}

// Arbiter is the Thompson-Sampling threshold arbiter (C7). It is safe
// for concurrent use: a single RWMutex guards the posterior map, which
// is small enough (one entry per tool) that per-key sharding buys
// nothing a single mutex doesn't already give.
type Arbiter struct {
	cfg  *config.ThompsonConfig
	obsv *observability.Manager

	mu         sync.RWMutex
	posteriors map[string]*posterior
	totalObs   int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds an Arbiter. seed fixes the sampling PRNG stream for
// reproducible decisions under the seeded-PRNG discipline the rest of
// this repo follows (Xavier init in pkg/levelparams, seed scenarios in
// spec.md §8).
func New(cfg *config.ThompsonConfig, seed uint64) *Arbiter {
	return &Arbiter{
		cfg:        cfg,
		obsv:       observability.Noop(),
		posteriors: make(map[string]*posterior),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// WithObservability attaches an observability manager for decision and
// UCB-bonus metrics.
func (a *Arbiter) WithObservability(obsv *observability.Manager) *Arbiter {
	if obsv != nil {
		a.obsv = obsv
	}
	return a
}

func (a *Arbiter) get(toolID string) *posterior {
	a.mu.RLock()
	p, ok := a.posteriors[toolID]
	a.mu.RUnlock()
	if ok {
		return p
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.posteriors[toolID]; ok {
		return p
	}
	p = &posterior{alphaSucc: priorAlphaSucc, alphaFail: priorAlphaFail}
	a.posteriors[toolID] = p
	return p
}

// Observations returns the total observation count recorded for toolID,
// satisfying pkg/localalpha.ObservationSource (alpha_succ + alpha_fail -
// 4 subtracts out the Beta(2,2) prior's pseudo-counts). The count shrinks
// with the posterior each time decay is applied.
func (a *Arbiter) Observations(toolID string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.posteriors[toolID]
	if !ok {
		return 0
	}
	n := p.alphaSucc + p.alphaFail - priorAlphaSucc - priorAlphaFail
	if n < 0 {
		return 0
	}
	return int(n)
}

// SampleThreshold draws a sample p ~ Beta(alpha_succ, alpha_fail) for
// toolID. Unseen ids use the Beta(2,2) prior.
func (a *Arbiter) SampleThreshold(toolID string) float64 {
	p := a.get(toolID)
	a.mu.RLock()
	succ, fail := p.alphaSucc, p.alphaFail
	a.mu.RUnlock()

	dist := distuv.Beta{Alpha: succ, Beta: fail, Src: a.lockedSource()}
	return dist.Rand()
}

// lockedSource wraps the Arbiter's PRNG so distuv.Beta.Rand (which draws
// from two independent Gamma distributions internally, making multiple
// calls into the source) never races with a concurrent draw for a
// different tool.
func (a *Arbiter) lockedSource() *lockedRand {
	return &lockedRand{a: a}
}

type lockedRand struct{ a *Arbiter }

func (l *lockedRand) Uint64() uint64 {
	l.a.rngMu.Lock()
	defer l.a.rngMu.Unlock()
	return l.a.rng.Uint64()
}

// RecordOutcome increments alpha_succ or alpha_fail by 1 and applies the
// configured decay once the tool's observation count crosses
// DecayWindow, per Open Question #2 (DESIGN.md): decay triggers on
// observation count, not elapsed time.
func (a *Arbiter) RecordOutcome(toolID string, success bool) {
	p := a.get(toolID)

	a.mu.Lock()
	if success {
		p.alphaSucc++
	} else {
		p.alphaFail++
	}
	p.n++
	a.totalObs++
	if p.n >= a.cfg.DecayWindow {
		p.alphaSucc = priorAlphaSucc + (p.alphaSucc-priorAlphaSucc)*a.cfg.DecayFactor
		p.alphaFail = priorAlphaFail + (p.alphaFail-priorAlphaFail)*a.cfg.DecayFactor
		p.n = 0
	}
	a.mu.Unlock()
}

// GetUCBBonus returns cfg.ExplorationBonus * sqrt(2*ln(N)/n_i) (plain
// sqrt(2*ln(N)/n_i) at the default factor of 1.0), capped at 1.0, where n_i is the
// observation count for toolID and N is the total observation count
// across all tools. Unseen tools (n_i == 0) get the maximal bonus: an
// arm with zero pulls is maximally worth exploring.
func (a *Arbiter) GetUCBBonus(toolID string) float64 {
	a.mu.RLock()
	n := a.totalObs
	var ni int
	if p, ok := a.posteriors[toolID]; ok {
		ni = int(p.alphaSucc + p.alphaFail - priorAlphaSucc - priorAlphaFail)
	}
	a.mu.RUnlock()

	if ni <= 0 {
		return 1.0
	}
	if n <= 0 {
		return 0
	}
	bonus := a.cfg.ExplorationBonus * math.Sqrt(2*math.Log(float64(n))/float64(ni))
	if bonus > 1.0 {
		bonus = 1.0
	}
	if bonus < 0 {
		bonus = 0
	}
	return bonus
}

// GetThreshold composes the mode-specific base, the risk multiplier, and
// the UCB exploration bonus into the final acceptance threshold tau,
// clipped to [0.05, 0.99].
func (a *Arbiter) GetThreshold(toolID string, risk Risk, mode Mode) float64 {
	base := a.cfg.Threshold(string(mode), string(risk))
	bonus := a.GetUCBBonus(toolID)
	return clip(base-bonus, minThreshold, maxThreshold)
}

// MakeDecision implements spec.md §4.7's makeDecision: accept iff
// candidateScore >= tau. It has no side effects — RecordOutcome is a
// separate call made once the real-world outcome is observed.
func (a *Arbiter) MakeDecision(toolID string, candidateScore float64, risk Risk, mode Mode) Decision {
	sampled := a.SampleThreshold(toolID)
	ucb := a.GetUCBBonus(toolID)
	tau := a.GetThreshold(toolID, risk, mode)
	accept := candidateScore >= tau

	reasoning := fmt.Sprintf("mode=%s risk=%s score=%.3f tau=%.3f (sampled=%.3f ucb=%.3f)", mode, risk, candidateScore, tau, sampled, ucb)
	decision := Decision{Accept: accept, Threshold: tau, Sampled: sampled, UCB: ucb, Reasoning: reasoning}

	a.obsv.Metrics().RecordThompsonDecision(accept, string(mode), string(risk), ucb)
	return decision
}
