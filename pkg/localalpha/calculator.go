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
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/hypergraph"
	"github.com/kadirpekel/shgat/pkg/observability"
)

// Calculator is the Local Alpha calculator (C6). It is pure with respect
// to its config: the same (graph snapshot, mode, node, context) always
// selects the same algorithm and produces the same alpha. Results are
// memoised in a size-bounded LRU cache keyed by
// (mode,nodeId,nodeType,contextSignature), invalidated wholesale on any
// graph mutation by swapping the cache when a new *hypergraph.Snapshot
// pointer is observed.
type Calculator struct {
	cfg *config.AlphaConfig
	obs ObservationSource
	obsv *observability.Manager

	mu    sync.Mutex
	cache *lru.Cache

	adj *adjacency
}

// New builds a Calculator. obs may be nil (treated as ZeroObservations,
// forcing every node through the Bayesian cold-start branch). Metrics go
// to a no-op observability manager until WithObservability attaches one.
func New(cfg *config.AlphaConfig, obs ObservationSource) *Calculator {
	if obs == nil {
		obs = ZeroObservations{}
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = config.DefaultCacheSize
	}
	cache, _ := lru.New(size)
	return &Calculator{cfg: cfg, obs: obs, obsv: observability.Noop(), cache: cache}
}

// WithObservability attaches an observability manager for alpha-value and
// cache-hit metrics.
func (c *Calculator) WithObservability(obsv *observability.Manager) *Calculator {
	if obsv != nil {
		c.obsv = obsv
	}
	return c
}

// GetLocalAlpha implements the four-branch algorithm selection of §4.6.
// graph/snap must be a committed, consistent pair (the caller's query
// snapshot); contextIDs is the optional set of context-tool ids supplied
// with the query.
func (c *Calculator) GetLocalAlpha(graph *hypergraph.Graph, snap *hypergraph.Snapshot, mode Mode, nodeID string, nodeType NodeType, contextIDs []string) Result {
	key := cacheKey{mode: mode, nodeID: nodeID, nodeType: nodeType, context: contextSignature(contextIDs)}

	c.mu.Lock()
	if c.adj == nil || c.adj.snap != snap {
		c.adj = buildAdjacency(snap)
		c.cache.Purge() // graph mutated: the prior snapshot's memoised alphas no longer apply
	}
	adj := c.adj
	c.mu.Unlock()

	if v, ok := c.cache.Get(key); ok {
		r := v.(Result)
		r.CacheHit = true
		c.obsv.Metrics().RecordAlpha(string(r.Algorithm), r.Alpha, true)
		return r
	}

	alpha, algorithm := c.compute(graph, snap, adj, mode, nodeID, nodeType, contextIDs)
	alpha = clip(alpha, c.cfg.AlphaMin, c.cfg.AlphaMax)

	result := Result{Alpha: alpha, Algorithm: algorithm}
	c.cache.Add(key, result)
	c.obsv.Metrics().RecordAlpha(string(algorithm), alpha, false)
	return result
}

func (c *Calculator) compute(graph *hypergraph.Graph, snap *hypergraph.Snapshot, adj *adjacency, mode Mode, nodeID string, nodeType NodeType, contextIDs []string) (float64, Algorithm) {
	observations := c.obs.Observations(nodeID)
	if observations < c.cfg.ColdStart.Threshold {
		return bayesianColdStart(c.cfg, observations), AlgorithmBayesianColdStart
	}

	if mode == ModeActiveSearch {
		return embeddingsHybrides(graph, adj, nodeID), AlgorithmEmbeddingsHybrides
	}

	if mode == ModePassive && nodeType == NodeTool {
		return heatDiffusion(c.cfg, graph, adj, nodeID, contextIDs), AlgorithmHeatDiffusion
	}

	if nodeType == NodeCapability || nodeType == NodeMeta {
		return heatHierarchical(c.cfg, graph, snap, adj, nodeID, nodeType, contextIDs), AlgorithmHeatHierarchical
	}

	// Speculation mode over a tool with no cold-start fallback and no
	// capability/meta branch to take: default to the heat-diffusion
	// reading, the closest structural signal available for a tool.
	return heatDiffusion(c.cfg, graph, adj, nodeID, contextIDs), AlgorithmHeatDiffusion
}
