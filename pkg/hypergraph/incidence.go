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

// LevelIncidence is the sparse, CSR-like incidence matrix A[level]: rows
// are children at level-1 (tools, for level 0), columns are parent
// capabilities at level. Both directions are materialised as adjacency
// lists since the message-passing engine walks both the "per-parent,
// over children" (upward) and "per-child, over parents" (downward)
// direction on every forward pass.
type LevelIncidence struct {
	Level int

	// RowIDs are child ids in stable (lexicographic) order; RowIndex maps
	// an id back to its row.
	RowIDs   []string
	RowIndex map[string]int

	// ColIDs are parent capability ids in stable order; ColIndex maps an
	// id back to its column.
	ColIDs   []string
	ColIndex map[string]int

	// ParentChildren[col] lists the row indices incident to column col —
	// the adjacency the upward pass iterates (fan-in per parent).
	ParentChildren [][]int

	// ChildParents[row] lists the column indices incident to row row —
	// the adjacency the downward pass iterates (fan-out per child).
	ChildParents [][]int
}

// NNZ returns the number of nonzero incidence entries at this level.
func (li *LevelIncidence) NNZ() int {
	n := 0
	for _, children := range li.ParentChildren {
		n += len(children)
	}
	return n
}

// buildLevelIncidence constructs A[level] for a given level given the
// canonical capability levels already computed by computeLevels.
//
// For level 0, rows are tool ids that belong to at least one level-0
// capability (tools never participating in a level-0 capability are
// excluded from the level-0 matrix; they remain registered and are still
// passed through the forward pass as isolated rows). For level > 0, rows
// are capabilities whose computed level equals level-1.
//
// Diamond patterns — a child referenced by two parents at the same level
// — fall out naturally here: the child occupies a single row, and each
// distinct parent contributes its own column with an edge to that row.
// No child is ever duplicated in the row domain.
func buildLevelIncidence(level int, tools map[string]*Tool, capabilities map[string]*Capability, capLevels map[string]int) *LevelIncidence {
	var parentIDs []string
	for id, cap := range capabilities {
		if capLevels[id] == level {
			parentIDs = append(parentIDs, id)
			_ = cap
		}
	}
	sort.Strings(parentIDs)

	colIndex := make(map[string]int, len(parentIDs))
	for i, id := range parentIDs {
		colIndex[id] = i
	}

	rowSet := make(map[string]struct{})
	type edge struct{ row, col int }
	var edges []edge

	wantChildKind := MemberCapability
	if level == 0 {
		wantChildKind = MemberTool
	}

	for _, pid := range parentIDs {
		cap := capabilities[pid]
		for _, m := range cap.Members {
			if m.Kind != wantChildKind {
				continue
			}
			if level > 0 {
				if capLevels[m.ID] != level-1 {
					continue
				}
			} else {
				if _, ok := tools[m.ID]; !ok {
					continue
				}
			}
			rowSet[m.ID] = struct{}{}
		}
	}

	rowIDs := make([]string, 0, len(rowSet))
	for id := range rowSet {
		rowIDs = append(rowIDs, id)
	}
	sort.Strings(rowIDs)

	rowIndex := make(map[string]int, len(rowIDs))
	for i, id := range rowIDs {
		rowIndex[id] = i
	}

	for _, pid := range parentIDs {
		cap := capabilities[pid]
		col := colIndex[pid]
		for _, m := range cap.Members {
			if m.Kind != wantChildKind {
				continue
			}
			row, ok := rowIndex[m.ID]
			if !ok {
				continue
			}
			edges = append(edges, edge{row: row, col: col})
		}
	}

	parentChildren := make([][]int, len(parentIDs))
	childParents := make([][]int, len(rowIDs))
	for _, e := range edges {
		parentChildren[e.col] = append(parentChildren[e.col], e.row)
		childParents[e.row] = append(childParents[e.row], e.col)
	}
	for _, children := range parentChildren {
		sort.Ints(children)
	}
	for _, parents := range childParents {
		sort.Ints(parents)
	}

	return &LevelIncidence{
		Level:          level,
		RowIDs:         rowIDs,
		RowIndex:       rowIndex,
		ColIDs:         parentIDs,
		ColIndex:       colIndex,
		ParentChildren: parentChildren,
		ChildParents:   childParents,
	}
}
