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

package localalpha

import (
	"sort"

	"github.com/kadirpekel/shgat/pkg/hypergraph"
)

// adjacency is a lazily-built, snapshot-scoped undirected adjacency list
// over the member relation (tool<->capability and capability<->capability
// edges), used by the heat-diffusion path-distance computation and by the
// Embeddings-Hybrides neighbourhood correlation. It is rebuilt whenever a
// new *hypergraph.Snapshot pointer is seen — snapshots are immutable and
// replaced wholesale on mutation, so a pointer-equality check is a correct
// and cheap invalidation signal.
type adjacency struct {
	snap *hypergraph.Snapshot
	adj  map[string][]string
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
	return &adjacency{snap: snap, adj: adj}
}

func (a *adjacency) neighbors(id string) []string {
	return a.adj[id]
}

// shortestDistance runs BFS over the undirected adjacency, capped at
// maxHops. It returns -1 when no path within the cap exists.
func (a *adjacency) shortestDistance(from, to string, maxHops int) int {
	if from == to {
		return 0
	}
	visited := map[string]bool{from: true}
	frontier := []string{from}
	for hop := 1; hop <= maxHops; hop++ {
		var next []string
		for _, id := range frontier {
			for _, n := range a.adj[id] {
				if n == to {
					return hop
				}
				if !visited[n] {
					visited[n] = true
					next = append(next, n)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return -1
}
