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

// Package thompson implements the Thompson-Sampling threshold arbiter
// (C7): a per-tool Beta(alpha_succ, alpha_fail) posterior, a UCB
// exploration bonus, and a mode/risk-scaled acceptance threshold that
// decides whether the top-ranked candidate from the suggester should be
// surfaced or rejected.
package thompson

import "fmt"

// Mode mirrors pkg/localalpha.Mode's three operating modes; duplicated
// here (rather than imported) because pkg/thompson must not depend on
// pkg/localalpha — the two are independent collaborators the suggester
// wires together, not a dependency chain.
type Mode string

const (
	ModeActiveSearch Mode = "active_search"
	ModePassive      Mode = "passive_suggestion"
	ModeSpeculation  Mode = "speculation"
)

// Risk is the pure tool-risk classification (spec.md §4.7): safe,
// moderate or dangerous.
type Risk string

const (
	RiskSafe      Risk = "safe"
	RiskModerate  Risk = "moderate"
	RiskDangerous Risk = "dangerous"
)

// Decision is the result of makeDecision: accept iff candidateScore >= threshold.
type Decision struct {
	Accept    bool
	Threshold float64
	Sampled   float64
	UCB       float64
	Reasoning string
}

func (d Decision) String() string {
	return fmt.Sprintf("accept=%t threshold=%.3f sampled=%.3f ucb=%.3f (%s)", d.Accept, d.Threshold, d.Sampled, d.UCB, d.Reasoning)
}

const (
	priorAlphaSucc = 2.0
	priorAlphaFail = 2.0

	minThreshold = 0.05
	maxThreshold = 0.99
)

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
