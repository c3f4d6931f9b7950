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

// Package suggester implements suggestDAG (C8): the orchestration layer
// that turns a free-text intent into a ranked, explained suggestion of
// which tools to invoke. It is the one component that talks to every
// other collaborator in this repo — the embedder and vector store
// (external), pkg/localalpha (C6), pkg/thompson (C7, optional), and
// pkg/confidence (C9) — plus the hypergraph itself for structural
// features.
package suggester

import "github.com/kadirpekel/shgat/pkg/localalpha"

// Query is one suggestDAG request.
type Query struct {
	// Text is the free-text intent to embed and search against.
	Text string

	// ContextTools are tool ids already known to be in play (e.g. the
	// tools used so far in the current session); they seed both the
	// Local Alpha context signature and the graph-affinity term.
	ContextTools []string

	// K overrides config.SuggesterConfig.SemanticTopK when positive.
	K int

	// Mode selects the Local Alpha / Thompson operating mode. Defaults
	// to localalpha.ModeActiveSearch when empty.
	Mode localalpha.Mode
}

// DependencyPath is one shortest path found between two ranked
// candidates, capped at the configured max hop count.
type DependencyPath struct {
	From       string
	To         string
	Path       []string
	Hops       int
	Confidence float64
}

// Alternative is a ranked candidate that was not chosen as the primary
// suggestion, carried alongside its own rationale.
type Alternative struct {
	ToolID    string
	Score     float64
	Rationale string
}

// Suggestion is suggestDAG's successful result (spec.md §4.8 step 7). A
// nil *Suggestion with a nil error means no semantic candidate passed the
// reject floor; Warning is non-empty exactly when the suggestion's
// confidence is below the suggestion floor or the Thompson arbiter
// rejected the top candidate, and the caller should surface it to the end
// user but never discard the suggestion.
type Suggestion struct {
	// QueryID correlates this suggestion with its tracing span and log
	// lines; a fresh uuid is minted per SuggestDAG call, so concurrent
	// duplicate queries that share one singleflight evaluation still each
	// get their own id.
	QueryID         string
	DAGStructure    []string
	Confidence      float64
	DependencyPaths []DependencyPath
	Alternatives    []Alternative
	Rationale       string
	Warning         string
}

// candidate is one semantically-retrieved tool, carried through ranking.
type candidate struct {
	toolID        string
	semantic      float64
	graphAffinity float64
	pageRank      float64
	alpha         float64
	final         float64
}
