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

package confidence

import (
	"fmt"
	"strings"
)

// RationaleInput carries the top candidate's component scores and
// dependency-path counts. SemanticScore, GraphScore, and PagerankScore
// are pointers rather than plain floats because "absent" (omit the
// segment) and "present with value 0" are different rationale outcomes;
// a plain float64 cannot distinguish them.
type RationaleInput struct {
	Score                 float64
	SemanticScore         *float64
	GraphScore            *float64
	PagerankScore         *float64
	DependencyCount       int
	DirectDependencyCount int
}

// Rationale composes the deterministic explanation string of spec.md
// §4.9: a base "hybrid search ({score}%)" clause, with optional
// ", semantic: {s}%", ", graph: {g}%", ", PageRank: {pr}%" (the PageRank
// clause omitted when the score is below PagerankThreshold), followed by
// ", N deps (M direct)" when any dependency was found.
func (c *Calculator) Rationale(in RationaleInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "hybrid search (%.0f%%)", in.Score*100)

	if in.SemanticScore != nil {
		fmt.Fprintf(&b, ", semantic: %.0f%%", *in.SemanticScore*100)
	}
	if in.GraphScore != nil {
		fmt.Fprintf(&b, ", graph: %.0f%%", *in.GraphScore*100)
	}
	if in.PagerankScore != nil && *in.PagerankScore >= c.cfg.PagerankThreshold {
		fmt.Fprintf(&b, ", PageRank: %.0f%%", *in.PagerankScore*100)
	}
	if in.DependencyCount > 0 {
		fmt.Fprintf(&b, ", %d deps (%d direct)", in.DependencyCount, in.DirectDependencyCount)
	}
	return b.String()
}

// PredictionSource names the origin of a predicted-next-tool suggestion
// surfaced outside the main hybrid-search rationale (e.g. a sidebar
// "you might also need" hint).
type PredictionSource string

const (
	SourceCommunity     PredictionSource = "community"
	SourceCooccurrence  PredictionSource = "cooccurrence"
	SourceCapability    PredictionSource = "capability"
	SourceAlternative   PredictionSource = "alternative"
	unknownRationaleMsg                  = "Unknown prediction source"
)

// PredictionInput carries the union of fields any prediction-rationale
// template may need; only the fields relevant to the selected
// PredictionSource are read.
type PredictionInput struct {
	ToolID             string
	CommunityID        int
	CooccurrenceWeight float64
	CapabilityID       string
	AlternativeRank    int
	Score              float64
}

// PredictionRationale formats one of the four named prediction-rationale
// variants (spec.md §4.9); an unrecognised source yields the fixed
// "Unknown prediction source" string rather than an error — rationale
// text is advisory and must never fail a suggestion.
func PredictionRationale(source PredictionSource, in PredictionInput) string {
	switch source {
	case SourceCommunity:
		return fmt.Sprintf("%s frequently used within community %d (%.0f%% match)", in.ToolID, in.CommunityID, in.Score*100)
	case SourceCooccurrence:
		return fmt.Sprintf("%s commonly co-occurs with the current context (weight %.2f)", in.ToolID, in.CooccurrenceWeight)
	case SourceCapability:
		return fmt.Sprintf("%s is a member of capability %q", in.ToolID, in.CapabilityID)
	case SourceAlternative:
		return fmt.Sprintf("%s is the #%d ranked alternative (%.0f%% match)", in.ToolID, in.AlternativeRank, in.Score*100)
	default:
		return unknownRationaleMsg
	}
}
