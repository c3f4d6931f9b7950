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

	"github.com/kadirpekel/shgat/pkg/hypergraph"
)

// adjacency is an undirected adjacency list over the member relation,
// the same construction pkg/localalpha's adjacency uses for its
// heat-diffusion distance lookups — duplicated rather than imported
// because localalpha's type returns bare hop distances, while the
// suggester also needs the actual path (the dependency chain it reports
// to the caller), a different enough shape to not share the type.
type adjacency struct {
	adj map[string][]string
}

func buildAdjacency(snap *hypergraph.Snapshot) *adjacency {
	adj := make(map[string][]string)
	add := func(a, b string) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for _, li := range snap.Levels {
		for colIdx, col := range li.ColIDs {
			for _, rowIdx := range li.ParentChildren[colIdx] {
				add(col, li.RowIDs[rowIdx])
			}
		}
	}
	for id := range adj {
		sort.Strings(adj[id])
	}
	return &adjacency{adj: adj}
}

func (a *adjacency) degree(id string) int { return len(a.adj[id]) }

// shortestPath runs BFS over the undirected adjacency, capped at
// maxHops, and returns the full path from -> to inclusive of both ends.
// A nil path means no path exists within the cap (or from == to).
func (a *adjacency) shortestPath(from, to string, maxHops int) []string {
	if from == to {
		return nil
	}
	prev := map[string]string{from: ""}
	frontier := []string{from}
	for hop := 1; hop <= maxHops; hop++ {
		var next []string
		for _, id := range frontier {
			for _, n := range a.adj[id] {
				if _, seen := prev[n]; seen {
					continue
				}
				prev[n] = id
				if n == to {
					return reconstructPath(prev, from, to)
				}
				next = append(next, n)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return nil
}

func reconstructPath(prev map[string]string, from, to string) []string {
	var path []string
	for cur := to; ; {
		path = append(path, cur)
		if cur == from {
			break
		}
		cur = prev[cur]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// extractPaths finds the shortest path between every ordered pair of
// distinct ids in ids, dropping any pair whose shortest path exceeds
// maxHops (spec.md §4.8 step 4).
func extractPaths(a *adjacency, ids []string, maxHops int) []DependencyPath {
	var paths []DependencyPath
	for _, from := range ids {
		for _, to := range ids {
			if from == to {
				continue
			}
			p := a.shortestPath(from, to, maxHops)
			if p == nil {
				continue
			}
			paths = append(paths, DependencyPath{
				From: from,
				To:   to,
				Path: p,
				Hops: len(p) - 1,
			})
		}
	}
	return paths
}
