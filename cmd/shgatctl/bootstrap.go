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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/embedder"
	"github.com/kadirpekel/shgat/pkg/hypergraph"
	"github.com/kadirpekel/shgat/pkg/store"
)

// BootstrapCmd seeds the hypergraph from a YAML description of tools and
// capabilities: text descriptions are embedded with the configured
// embedder, the resulting vectors and structural features are registered
// into a fresh hypergraph.Graph, and the committed graph is persisted
// through pkg/store so `serve`/`train` can rehydrate it.
type BootstrapCmd struct {
	File string `short:"f" required:"" help:"Path to the bootstrap YAML file." type:"path"`
}

// bootstrapDoc is the YAML shape BootstrapCmd reads.
type bootstrapDoc struct {
	Tools        []bootstrapTool       `yaml:"tools"`
	Capabilities []bootstrapCapability `yaml:"capabilities"`
}

type bootstrapTool struct {
	ID          string  `yaml:"id"`
	Description string  `yaml:"description"`
	PageRank    float64 `yaml:"pageRank,omitempty"`
	Louvain     int     `yaml:"louvainCommunity,omitempty"`
	AdamicAdar  float64 `yaml:"adamicAdar,omitempty"`
	Cooccur     float64 `yaml:"cooccurrence,omitempty"`
	Recency     float64 `yaml:"recency,omitempty"`
}

type bootstrapMember struct {
	Kind string `yaml:"kind"` // "tool" or "capability"
	ID   string `yaml:"id"`
}

type bootstrapCapability struct {
	ID             string            `yaml:"id"`
	Description    string            `yaml:"description"`
	HierarchyLevel int               `yaml:"hierarchyLevel,omitempty"`
	SuccessRate    float64           `yaml:"successRate,omitempty"`
	Members        []bootstrapMember `yaml:"members"`
}

func (c *BootstrapCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, loader, err := config.LoadConfigFile(ctx, cli.configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	defer loader.Close()

	raw, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("reading bootstrap file: %w", err)
	}
	var doc bootstrapDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing bootstrap file: %w", err)
	}

	emb, err := embedder.NewEmbedderFromConfig(&cfg.Embedder)
	if err != nil {
		return fmt.Errorf("building embedder: %w", err)
	}
	defer emb.Close()

	graph := hypergraph.New(emb.Dimension())

	for _, t := range doc.Tools {
		vec, err := emb.Embed(ctx, t.Description)
		if err != nil {
			return fmt.Errorf("embedding tool %q: %w", t.ID, err)
		}
		features := hypergraph.ToolFeatures{
			PageRank:         t.PageRank,
			LouvainCommunity: t.Louvain,
			AdamicAdar:       t.AdamicAdar,
			Cooccurrence:     t.Cooccur,
			Recency:          t.Recency,
		}
		if err := graph.RegisterTool(t.ID, vec, features); err != nil {
			return fmt.Errorf("registering tool %q: %w", t.ID, err)
		}
	}

	for _, capDoc := range doc.Capabilities {
		vec, err := emb.Embed(ctx, capDoc.Description)
		if err != nil {
			return fmt.Errorf("embedding capability %q: %w", capDoc.ID, err)
		}
		members := make([]hypergraph.MemberRef, len(capDoc.Members))
		for i, m := range capDoc.Members {
			switch m.Kind {
			case "tool":
				members[i] = hypergraph.ToolMember(m.ID)
			case "capability":
				members[i] = hypergraph.CapabilityMember(m.ID)
			default:
				return fmt.Errorf("capability %q member %q has unknown kind %q (want tool|capability)", capDoc.ID, m.ID, m.Kind)
			}
		}
		if err := graph.RegisterCapability(capDoc.ID, vec, members, capDoc.HierarchyLevel, capDoc.SuccessRate); err != nil {
			return fmt.Errorf("registering capability %q: %w", capDoc.ID, err)
		}
	}

	snap, err := graph.Commit()
	if err != nil {
		return fmt.Errorf("committing hypergraph: %w", err)
	}

	repos, err := store.New(&cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer repos.Close()

	if err := store.SaveGraph(ctx, repos, graph, snap); err != nil {
		return fmt.Errorf("saving hypergraph: %w", err)
	}

	slog.Info("bootstrap complete",
		"tools", snap.Stats.ToolCount,
		"capabilities", snap.Stats.CapabilityCount,
		"maxLevel", snap.Stats.MaxLevel,
	)
	return nil
}
