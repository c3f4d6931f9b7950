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

package store

import (
	"context"
	"fmt"

	"github.com/kadirpekel/shgat/pkg/hypergraph"
)

// LoadGraph rebuilds an in-memory hypergraph.Graph from repos, in two
// passes: first every tool and bare capability row, then each
// capability's member edges (a capability may reference another
// capability registered later in iteration order, so members must be
// wired only after every id exists). The returned graph is already
// committed.
func LoadGraph(ctx context.Context, repos *Repositories, dim int) (*hypergraph.Graph, *hypergraph.Snapshot, error) {
	g := hypergraph.New(dim)

	tools, err := repos.Tools.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("store: listing tools: %w", err)
	}
	for _, t := range tools {
		features := hypergraph.ToolFeatures{
			PageRank:         t.PageRank,
			LouvainCommunity: t.LouvainCommunity,
			AdamicAdar:       t.AdamicAdar,
			Cooccurrence:     t.Cooccurrence,
			Recency:          t.Recency,
		}
		if err := g.RegisterTool(t.ID, t.Embedding, features); err != nil {
			return nil, nil, fmt.Errorf("store: registering tool %q: %w", t.ID, err)
		}
	}

	caps, err := repos.Capabilities.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("store: listing capabilities: %w", err)
	}
	for _, c := range caps {
		rows, err := repos.Capabilities.Members(ctx, c.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("store: loading members of %q: %w", c.ID, err)
		}
		members := make([]hypergraph.MemberRef, len(rows))
		for i, row := range rows {
			switch row.ChildKind {
			case ChildTool:
				members[i] = hypergraph.ToolMember(row.ChildID)
			case ChildCapability:
				members[i] = hypergraph.CapabilityMember(row.ChildID)
			default:
				return nil, nil, fmt.Errorf("store: capability %q member %q has unknown child kind %q", c.ID, row.ChildID, row.ChildKind)
			}
		}
		if err := g.RegisterCapability(c.ID, c.Embedding, members, c.HierarchyLevel, c.SuccessRate); err != nil {
			return nil, nil, fmt.Errorf("store: registering capability %q: %w", c.ID, err)
		}
	}

	snap, err := g.Commit()
	if err != nil {
		return nil, nil, fmt.Errorf("store: committing loaded graph: %w", err)
	}
	return g, snap, nil
}

// SaveGraph persists every tool and capability currently registered in g
// through repos, overwriting any existing rows with the same id. g must
// already be committed (the snapshot's stable ToolOrder/CapabilityOrder
// drives iteration; g has no other way to enumerate its members).
func SaveGraph(ctx context.Context, repos *Repositories, g *hypergraph.Graph, snap *hypergraph.Snapshot) error {
	for _, id := range snap.ToolOrder {
		tool, ok := g.Tool(id)
		if !ok {
			continue // removed between Commit() and Save; skip rather than fail
		}
		row := ToolRow{
			ID:               tool.ID,
			Embedding:        tool.Embedding,
			PageRank:         tool.Features.PageRank,
			LouvainCommunity: tool.Features.LouvainCommunity,
			AdamicAdar:       tool.Features.AdamicAdar,
			Cooccurrence:     tool.Features.Cooccurrence,
			Recency:          tool.Features.Recency,
		}
		if err := repos.Tools.Upsert(ctx, row); err != nil {
			return fmt.Errorf("store: upserting tool %q: %w", id, err)
		}
	}

	for _, id := range snap.CapabilityOrder {
		cap, ok := g.Capability(id)
		if !ok {
			continue
		}
		row := CapabilityRow{
			ID:             cap.ID,
			Embedding:      cap.Embedding,
			HierarchyLevel: snap.CapabilityLevels[id],
			SuccessRate:    cap.SuccessRate,
		}
		if err := repos.Capabilities.Upsert(ctx, row); err != nil {
			return fmt.Errorf("store: upserting capability %q: %w", id, err)
		}

		members := make([]MemberRow, len(cap.Members))
		for i, m := range cap.Members {
			kind := ChildTool
			if m.Kind == hypergraph.MemberCapability {
				kind = ChildCapability
			}
			members[i] = MemberRow{ParentID: cap.ID, ChildID: m.ID, ChildKind: kind, Ordinal: i}
		}
		if err := repos.Capabilities.SetMembers(ctx, cap.ID, members); err != nil {
			return fmt.Errorf("store: setting members of %q: %w", cap.ID, err)
		}
	}

	return nil
}
