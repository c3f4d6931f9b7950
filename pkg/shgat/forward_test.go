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

package shgat

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/hypergraph"
	"github.com/kadirpekel/shgat/pkg/levelparams"
)

func unitVec(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func testModelConfig(dim int) *config.ModelConfig {
	return &config.ModelConfig{
		NumHeads:     4,
		HiddenDim:    16,
		EmbeddingDim: dim,
		Seed:         7,
	}
}

// single capability containing a single tool, tool embedding [1,0,...,0],
// query [1,0,...,0]: capability score should exceed 0.5 and every parent's
// per-head attention weights should sum to 1.
func TestForward_SingleToolSingleCapability(t *testing.T) {
	const dim = 8
	g := hypergraph.New(dim)
	require.NoError(t, g.RegisterTool("t1", unitVec(dim, 0), hypergraph.ToolFeatures{}))
	require.NoError(t, g.RegisterCapability("c1", unitVec(dim, 0), []hypergraph.MemberRef{hypergraph.ToolMember("t1")}, 0, 1.0))

	snap, err := g.Commit()
	require.NoError(t, err)

	cfg := testModelConfig(dim)
	params := levelparams.Initialize(cfg, snap.MaxLevel)
	engine := NewEngine(params, nil)

	cache, err := engine.Forward(context.Background(), g, snap, nil)
	require.NoError(t, err)

	requireRowSumsToOne(t, cache.UpwardAttention)
	requireUnitNorm(t, cache.H)
	requireUnitNorm(t, cache.E)

	qk := InitQK(cfg)
	rawEmbeddings := map[string][]float32{"c1": unitVec(dim, 0)}
	sc, err := Score(unitVec(dim, 0), "c1", rawEmbeddings["c1"], cache, cfg, qk)
	require.NoError(t, err)
	require.Greater(t, sc.Score, 0.5)
}

func TestForward_Deterministic(t *testing.T) {
	const dim = 8
	g := hypergraph.New(dim)
	require.NoError(t, g.RegisterTool("t1", unitVec(dim, 0), hypergraph.ToolFeatures{}))
	require.NoError(t, g.RegisterTool("t2", unitVec(dim, 1), hypergraph.ToolFeatures{}))
	require.NoError(t, g.RegisterCapability("c1", unitVec(dim, 0), []hypergraph.MemberRef{
		hypergraph.ToolMember("t1"), hypergraph.ToolMember("t2"),
	}, 0, 0.5))

	snap, err := g.Commit()
	require.NoError(t, err)

	cfg := testModelConfig(dim)
	params := levelparams.Initialize(cfg, snap.MaxLevel)

	run := func() *Cache {
		engine := NewEngine(params, nil)
		cache, err := engine.Forward(context.Background(), g, snap, nil)
		require.NoError(t, err)
		return cache
	}

	c1, c2 := run(), run()
	require.Equal(t, c1.H["t1"], c2.H["t1"])
	require.Equal(t, c1.E["c1"], c2.E["c1"])
}

func TestForward_IsolatedToolPassedThroughNormalised(t *testing.T) {
	const dim = 4
	g := hypergraph.New(dim)
	require.NoError(t, g.RegisterTool("orphan", []float32{3, 4, 0, 0}, hypergraph.ToolFeatures{}))
	require.NoError(t, g.RegisterTool("member", unitVec(dim, 0), hypergraph.ToolFeatures{}))
	require.NoError(t, g.RegisterCapability("c1", unitVec(dim, 0), []hypergraph.MemberRef{hypergraph.ToolMember("member")}, 0, 1.0))

	snap, err := g.Commit()
	require.NoError(t, err)

	cfg := testModelConfig(dim)
	params := levelparams.Initialize(cfg, snap.MaxLevel)
	engine := NewEngine(params, nil)

	cache, err := engine.Forward(context.Background(), g, snap, nil)
	require.NoError(t, err)

	n := l2Norm(cache.H["orphan"])
	require.InDelta(t, 1.0, n, 1e-4)
}

func TestForward_EmptyGraphReturnsEmptyCache(t *testing.T) {
	g := hypergraph.New(4)
	snap, err := g.Commit()
	require.NoError(t, err)

	cfg := testModelConfig(4)
	params := levelparams.Initialize(cfg, snap.MaxLevel)
	engine := NewEngine(params, nil)

	cache, err := engine.Forward(context.Background(), g, snap, nil)
	require.NoError(t, err)
	require.Empty(t, cache.H)
	require.Empty(t, cache.E)

	qk := InitQK(cfg)
	results, err := ScoreAllCapabilities(unitVec(4, 0), nil, cache, cfg, qk)
	require.NoError(t, err)
	require.Empty(t, results)
}

func requireRowSumsToOne(t *testing.T, attn map[int]map[string][][]float64) {
	t.Helper()
	for _, byID := range attn {
		for _, perHead := range byID {
			for _, weights := range perHead {
				if len(weights) == 0 {
					continue
				}
				sum := 0.0
				for _, w := range weights {
					sum += w
				}
				require.InDelta(t, 1.0, sum, 1e-4)
			}
		}
	}
}

func requireUnitNorm(t *testing.T, vecs map[string][]float64) {
	t.Helper()
	for id, v := range vecs {
		n := math.Sqrt(dot(v, v))
		require.InDeltaf(t, 1.0, n, 1e-4, "id=%s", id)
	}
}
