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
	"math"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/hypergraph"
)

const maxPathHops = 6

// intrinsicHeatOf returns the node's own degree-normalised feature: a
// tool's PageRank (already monotone-normalised per the data model
// invariant), or a capability's successRate standing in for the same
// "how established is this node" signal.
func intrinsicHeatOf(graph *hypergraph.Graph, id string) float64 {
	if t, ok := graph.Tool(id); ok {
		return clip(t.Features.PageRank, 0, 1)
	}
	if c, ok := graph.Capability(id); ok {
		return clip(c.SuccessRate, 0, 1)
	}
	return 0
}

// neighborHeat averages intrinsicHeatOf over a node's 1-hop neighbours.
func neighborHeat(graph *hypergraph.Graph, adj *adjacency, id string) float64 {
	neighbors := adj.neighbors(id)
	if len(neighbors) == 0 {
		return intrinsicHeatOf(graph, id)
	}
	var sum float64
	for _, n := range neighbors {
		sum += intrinsicHeatOf(graph, n)
	}
	return sum / float64(len(neighbors))
}

// pathHeat returns the mean exponential-decay heat contributed by each
// context node's shortest distance to id: exp(-distance). Unreachable
// context nodes contribute zero heat, not an error — a user's context
// tools are frequently in an unrelated part of the graph.
func pathHeat(adj *adjacency, id string, contextIDs []string) float64 {
	if len(contextIDs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range contextIDs {
		d := adj.shortestDistance(c, id, maxPathHops)
		if d < 0 {
			continue
		}
		sum += math.Exp(-float64(d))
	}
	return sum / float64(len(contextIDs))
}

// heatDiffusion implements §4.6 branch (3) (passive mode, tool node):
// blend intrinsic and neighbour heat per heatDiffusion's two-weight
// config, then fold in path heat (when context tools are supplied) using
// the tool hierarchy triple's "hierarchy" weight as the path-heat share —
// the spec names only the tool/capability/meta hierarchy triple in its
// config table (§6), so that slot is reused here rather than inventing an
// unconfigured constant. High heat maps to low alpha (trust structure).
func heatDiffusion(cfg *config.AlphaConfig, graph *hypergraph.Graph, adj *adjacency, id string, contextIDs []string) float64 {
	intrinsic := intrinsicHeatOf(graph, id)
	neighbor := neighborHeat(graph, adj, id)
	base := cfg.HeatDiffusion.IntrinsicWeight*intrinsic + cfg.HeatDiffusion.NeighborWeight*neighbor

	heat := base
	if len(contextIDs) > 0 {
		pw := cfg.Hierarchy.Tool.Hierarchy
		heat = (1-pw)*base + pw*pathHeat(adj, id, contextIDs)
	}
	return clip(1-heat, 0, 1)
}

// heatHierarchical implements §4.6 branch (4) (capability or meta node):
// the same intrinsic/neighbour/path blend as heatDiffusion, computed with
// the node-type-specific hierarchy weight triple instead of the two-slot
// heatDiffusion config, plus an inheritance term pulling heat from the
// node's parent (for a capability) or averaging its children's heat (for
// a meta-capability).
func heatHierarchical(cfg *config.AlphaConfig, graph *hypergraph.Graph, snap *hypergraph.Snapshot, adj *adjacency, id string, nodeType NodeType, contextIDs []string) float64 {
	weights := cfg.Hierarchy.Capability
	if nodeType == NodeMeta {
		weights = cfg.Hierarchy.Meta
	}

	intrinsic := intrinsicHeatOf(graph, id)
	neighbor := neighborHeat(graph, adj, id)
	path := pathHeat(adj, id, contextIDs)

	heat := weights.Intrinsic*intrinsic + weights.Neighbor*neighbor + weights.Hierarchy*path

	if nodeType == NodeCapability {
		if parents := parentsOf(snap, id); len(parents) > 0 {
			var parentHeat float64
			for _, p := range parents {
				parentHeat += intrinsicHeatOf(graph, p)
			}
			parentHeat /= float64(len(parents))
			heat = 0.8*heat + 0.2*parentHeat
		}
	} else {
		if children := childrenOf(snap, id); len(children) > 0 {
			var childHeat float64
			for _, c := range children {
				childHeat += intrinsicHeatOf(graph, c)
			}
			childHeat /= float64(len(children))
			heat = 0.8*heat + 0.2*childHeat
		}
	}

	return clip(1-heat, 0, 1)
}

// parentsOf returns the capability ids owning id as a member, looked up
// one level above id's own computed level.
func parentsOf(snap *hypergraph.Snapshot, id string) []string {
	lvl, ok := snap.CapabilityLevels[id]
	if !ok || lvl+1 > snap.MaxLevel {
		return nil
	}
	li := snap.Levels[lvl+1]
	row, ok := li.RowIndex[id]
	if !ok {
		return nil
	}
	var parents []string
	for _, col := range li.ChildParents[row] {
		parents = append(parents, li.ColIDs[col])
	}
	return parents
}

// childrenOf returns the member ids of capability id at its own level.
func childrenOf(snap *hypergraph.Snapshot, id string) []string {
	lvl, ok := snap.CapabilityLevels[id]
	if !ok {
		return nil
	}
	li := snap.Levels[lvl]
	col, ok := li.ColIndex[id]
	if !ok {
		return nil
	}
	var children []string
	for _, row := range li.ParentChildren[col] {
		children = append(children, li.RowIDs[row])
	}
	return children
}
