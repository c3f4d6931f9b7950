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

package hypergraph

import "sort"

type color uint8

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully explored, acyclic below it
)

// detectCycle runs a three-state-coloring DFS over the member relation
// (capability -> child capability; tools are terminal and never revisit a
// capability). It returns the first cycle found, including self-loops, as
// the ordered path of ids from the revisited node back to itself.
//
// Visiting capabilities in lexicographic id order makes the result
// deterministic across runs for a fixed graph.
func detectCycle(capabilities map[string]*Capability) []string {
	colors := make(map[string]color, len(capabilities))
	var stack []string

	ids := make([]string, 0, len(capabilities))
	for id := range capabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var visit func(id string) []string
	visit = func(id string) []string {
		colors[id] = gray
		stack = append(stack, id)

		cap := capabilities[id]
		if cap != nil {
			for _, m := range cap.Members {
				if m.Kind != MemberCapability {
					continue
				}
				switch colors[m.ID] {
				case white:
					if path := visit(m.ID); path != nil {
						return path
					}
				case gray:
					start := indexOf(stack, m.ID)
					path := append([]string{}, stack[start:]...)
					path = append(path, m.ID)
					return path
				case black:
					// already fully explored, no cycle through it
				}
			}
		}

		colors[id] = black
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, id := range ids {
		if colors[id] == white {
			if path := visit(id); path != nil {
				return path
			}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
