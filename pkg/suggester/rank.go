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

package suggester

import (
	"sort"

	"github.com/kadirpekel/shgat/pkg/config"
)

// graphAffinity estimates how structurally close a tool is to the
// query's context. With context tools given, it is the mean geometric
// hop-decay (config.DAGConfig.HopConfidence^hops) over the shortest path
// to each context tool, reusing the decay reading pkg/config/dag.go kept
// available for exactly this kind of caller. With no context, it falls
// back to the tool's degree centrality normalised against the most
// connected candidate among the semantic hits, a structural prior when nothing else is
// known about the query.
func graphAffinity(adj *adjacency, dag *config.DAGConfig, toolID string, contextTools []string, maxHops, maxDegree int) float64 {
	if len(contextTools) == 0 {
		if maxDegree == 0 {
			return 0
		}
		return float64(adj.degree(toolID)) / float64(maxDegree)
	}

	var sum float64
	var n int
	for _, ctx := range contextTools {
		if ctx == toolID {
			sum += 1.0
			n++
			continue
		}
		p := adj.shortestPath(ctx, toolID, maxHops)
		if p == nil {
			continue
		}
		hops := len(p) - 1
		sum += pow(dag.HopConfidence, hops)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// rankCandidates sorts candidates by final score descending and truncates
// to topR.
func rankCandidates(candidates []candidate, topR int) []candidate {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].final > candidates[j].final })
	if len(candidates) > topR {
		candidates = candidates[:topR]
	}
	return candidates
}
