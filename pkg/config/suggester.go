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

package config

import "fmt"

// SuggesterConfig configures suggestDAG (C8): how many semantic
// candidates to retrieve, how many to rank and return, the PageRank
// blend weight, the accept/reject confidence floors, the dependency-path
// hop cap, and the vector-store retry policy.
type SuggesterConfig struct {
	// SemanticTopK bounds the vector store's top-K semantic search.
	SemanticTopK int `yaml:"semanticTopK,omitempty"`

	// RankedTopR bounds how many candidates survive re-ranking into the
	// suggestion's alternatives list.
	RankedTopR int `yaml:"rankedTopR,omitempty"`

	// PageRankWeight (beta) is the PageRank term's weight in
	// final = alpha*semantic + (1-alpha)*graphAffinity + beta*PageRank.
	PageRankWeight float64 `yaml:"pageRankWeight,omitempty"`

	// MaxHops caps shortest dependency-path extraction between ranked
	// candidates; longer paths are dropped rather than truncated.
	MaxHops int `yaml:"maxHops,omitempty"`

	// SuggestionReject: no suggestion is returned (suggestDAG yields nil)
	// when the top candidate's blended score falls below this floor.
	SuggestionReject float64 `yaml:"suggestionReject,omitempty"`

	// SuggestionFloor: a suggestion below this confidence still returns,
	// but carries a cold-start/low-confidence warning.
	SuggestionFloor float64 `yaml:"suggestionFloor,omitempty"`

	Retry RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig bounds the suggester's retry of TransientBackendError from
// the vector store / embedder, exponential backoff with jitter, ported
// from the teacher's pkg/httpclient retry strategy.
type RetryConfig struct {
	MaxAttempts int     `yaml:"maxAttempts,omitempty"`
	BaseDelayMs int     `yaml:"baseDelayMs,omitempty"`
	MaxDelayMs  int     `yaml:"maxDelayMs,omitempty"`
	Jitter      float64 `yaml:"jitter,omitempty"`
}

const (
	DefaultSemanticTopK     = 20
	DefaultRankedTopR       = 5
	DefaultPageRankWeight   = 0.1
	DefaultMaxHops          = 4
	DefaultSuggestionReject = 0.15
	DefaultSuggestionFloor  = 0.4

	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelayMs = 100
	DefaultRetryMaxDelayMs  = 2000
	DefaultRetryJitter      = 0.1
)

func (c *SuggesterConfig) SetDefaults() {
	if c.SemanticTopK == 0 {
		c.SemanticTopK = DefaultSemanticTopK
	}
	if c.RankedTopR == 0 {
		c.RankedTopR = DefaultRankedTopR
	}
	if c.PageRankWeight == 0 {
		c.PageRankWeight = DefaultPageRankWeight
	}
	if c.MaxHops == 0 {
		c.MaxHops = DefaultMaxHops
	}
	if c.SuggestionReject == 0 {
		c.SuggestionReject = DefaultSuggestionReject
	}
	if c.SuggestionFloor == 0 {
		c.SuggestionFloor = DefaultSuggestionFloor
	}
	c.Retry.SetDefaults()
}

func (c *RetryConfig) SetDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultRetryMaxAttempts
	}
	if c.BaseDelayMs == 0 {
		c.BaseDelayMs = DefaultRetryBaseDelayMs
	}
	if c.MaxDelayMs == 0 {
		c.MaxDelayMs = DefaultRetryMaxDelayMs
	}
	if c.Jitter == 0 {
		c.Jitter = DefaultRetryJitter
	}
}

func (c *SuggesterConfig) Validate() error {
	if c.SemanticTopK < 1 {
		return fmt.Errorf("semanticTopK must be >= 1, got %d", c.SemanticTopK)
	}
	if c.RankedTopR < 1 {
		return fmt.Errorf("rankedTopR must be >= 1, got %d", c.RankedTopR)
	}
	if c.RankedTopR > c.SemanticTopK {
		return fmt.Errorf("rankedTopR (%d) must be <= semanticTopK (%d)", c.RankedTopR, c.SemanticTopK)
	}
	if c.PageRankWeight < 0 || c.PageRankWeight > 1 {
		return fmt.Errorf("pageRankWeight must lie within [0,1], got %f", c.PageRankWeight)
	}
	if c.MaxHops < 1 {
		return fmt.Errorf("maxHops must be >= 1, got %d", c.MaxHops)
	}
	if c.SuggestionReject < 0 || c.SuggestionReject > 1 {
		return fmt.Errorf("suggestionReject must lie within [0,1], got %f", c.SuggestionReject)
	}
	if c.SuggestionFloor < c.SuggestionReject || c.SuggestionFloor > 1 {
		return fmt.Errorf("suggestionFloor (%f) must lie within [suggestionReject, 1]", c.SuggestionFloor)
	}
	return c.Retry.Validate()
}

func (c *RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("maxAttempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelayMs < 0 || c.MaxDelayMs < c.BaseDelayMs {
		return fmt.Errorf("baseDelayMs/maxDelayMs must satisfy 0 <= baseDelayMs <= maxDelayMs")
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("jitter must lie within [0,1], got %f", c.Jitter)
	}
	return nil
}
