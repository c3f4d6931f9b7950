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

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kadirpekel/shgat/pkg/shgaterrors"
)

// Stats summarises a successful commit().
type Stats struct {
	ToolCount       int
	CapabilityCount int
	MaxLevel        int
}

// Snapshot is the immutable, query-visible result of a successful commit():
// per-level incidence, canonical capability levels, and a stable tool
// order used to row-stack tool embeddings. It is shared by reference
// across concurrent queries and replaced wholesale on the next mutation —
// never mutated in place.
type Snapshot struct {
	MaxLevel         int
	Levels           []*LevelIncidence // index 0..MaxLevel
	CapabilityLevels map[string]int
	ToolOrder        []string
	CapabilityOrder  []string // all capability ids, lexicographic
	Stats            Stats
}

// Graph is the arena for tools and capabilities. Capabilities store
// member ids, never pointers; the member relation is validated acyclic at
// commit(). Graph mutation is exclusive; concurrent reads against an
// already-committed Snapshot require no lock since Snapshot is immutable.
type Graph struct {
	dim int // embedding dimension D, enforced on every registration

	mu           sync.RWMutex
	tools        map[string]*Tool
	capabilities map[string]*Capability

	dirty    bool
	snapshot *Snapshot
}

// New creates an empty Graph enforcing embedding dimension dim.
func New(dim int) *Graph {
	return &Graph{
		dim:          dim,
		tools:        make(map[string]*Tool),
		capabilities: make(map[string]*Capability),
	}
}

// RegisterTool adds or replaces a tool. It invalidates the committed
// snapshot; the caller must call Commit() before the new tool is visible
// to queries.
func (g *Graph) RegisterTool(id string, embedding []float32, features ToolFeatures) error {
	if id == "" {
		return &shgaterrors.GraphError{Reason: "tool id must not be empty"}
	}
	if len(embedding) != g.dim {
		return &shgaterrors.DimensionMismatch{Expected: g.dim, Actual: len(embedding), Context: fmt.Sprintf("tool %q embedding", id)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.tools[id] = &Tool{ID: id, Embedding: embedding, Features: features}
	g.dirty = true
	return nil
}

// RegisterCapability adds or replaces a capability. hierarchyLevel is
// recorded for bookkeeping only; Commit() recomputes and overrides it
// from the member relation.
func (g *Graph) RegisterCapability(id string, embedding []float32, members []MemberRef, hierarchyLevel int, successRate float64) error {
	if id == "" {
		return &shgaterrors.GraphError{Reason: "capability id must not be empty"}
	}
	if len(embedding) != g.dim {
		return &shgaterrors.DimensionMismatch{Expected: g.dim, Actual: len(embedding), Context: fmt.Sprintf("capability %q embedding", id)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.capabilities[id] = &Capability{
		ID:             id,
		Embedding:      embedding,
		Members:        members,
		SuccessRate:    successRate,
		hierarchyLevel: hierarchyLevel,
	}
	g.dirty = true
	return nil
}

// RemoveTool removes a tool and invalidates the committed snapshot.
func (g *Graph) RemoveTool(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.tools[id]; ok {
		delete(g.tools, id)
		g.dirty = true
	}
}

// RemoveCapability removes a capability and invalidates the committed
// snapshot.
func (g *Graph) RemoveCapability(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.capabilities[id]; ok {
		delete(g.capabilities, id)
		g.dirty = true
	}
}

// Commit validates the member relation and (re)builds the per-level
// incidence snapshot. A commit with no intervening mutation is a no-op:
// it returns the previous Snapshot pointer unchanged.
func (g *Graph) Commit() (*Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.dirty && g.snapshot != nil {
		return g.snapshot, nil
	}

	if err := g.validateMembers(); err != nil {
		return nil, err
	}
	if path := detectCycle(g.capabilities); path != nil {
		return nil, &shgaterrors.CycleDetected{Path: path}
	}

	capLevels := computeLevels(g.capabilities)
	top := maxLevel(capLevels)

	levels := make([]*LevelIncidence, top+1)
	for lvl := 0; lvl <= top; lvl++ {
		levels[lvl] = buildLevelIncidence(lvl, g.tools, g.capabilities, capLevels)
	}

	toolOrder := make([]string, 0, len(g.tools))
	for id := range g.tools {
		toolOrder = append(toolOrder, id)
	}
	sort.Strings(toolOrder)

	capOrder := make([]string, 0, len(g.capabilities))
	for id := range g.capabilities {
		capOrder = append(capOrder, id)
	}
	sort.Strings(capOrder)

	snap := &Snapshot{
		MaxLevel:         top,
		Levels:           levels,
		CapabilityLevels: capLevels,
		ToolOrder:        toolOrder,
		CapabilityOrder:  capOrder,
		Stats: Stats{
			ToolCount:       len(g.tools),
			CapabilityCount: len(g.capabilities),
			MaxLevel:        top,
		},
	}

	g.snapshot = snap
	g.dirty = false
	return snap, nil
}

// validateMembers checks every member reference resolves to a registered
// tool or capability.
func (g *Graph) validateMembers() error {
	for _, cap := range g.capabilities {
		for _, m := range cap.Members {
			switch m.Kind {
			case MemberTool:
				if _, ok := g.tools[m.ID]; !ok {
					return &shgaterrors.UnknownMember{ParentID: cap.ID, MemberID: m.ID}
				}
			case MemberCapability:
				if _, ok := g.capabilities[m.ID]; !ok {
					return &shgaterrors.UnknownMember{ParentID: cap.ID, MemberID: m.ID}
				}
			}
		}
	}
	return nil
}

// Tool returns a registered tool by id.
func (g *Graph) Tool(id string) (*Tool, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.tools[id]
	return t, ok
}

// Capability returns a registered capability by id.
func (g *Graph) Capability(id string) (*Capability, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.capabilities[id]
	return c, ok
}

// Dim returns the embedding dimension D this graph enforces.
func (g *Graph) Dim() int { return g.dim }
