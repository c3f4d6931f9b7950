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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/hypergraph"
	"github.com/kadirpekel/shgat/pkg/localalpha"
	"github.com/kadirpekel/shgat/pkg/shgaterrors"
	"github.com/kadirpekel/shgat/pkg/vector"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return f.vec, f.err }
func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, f.err
}
func (f *fakeEmbedder) Dimension() int { return len(f.vec) }
func (f *fakeEmbedder) Model() string  { return "fake" }
func (f *fakeEmbedder) Close() error   { return nil }

type fakeVectorStore struct {
	results    []vector.Result
	err        error
	failCount  int // number of calls to fail with a transient error before succeeding
	callCount  int
}

func (f *fakeVectorStore) Upsert(context.Context, string, string, []float32, map[string]any) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, collection string, v []float32, topK int) ([]vector.Result, error) {
	f.callCount++
	if f.callCount <= f.failCount {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeVectorStore) SearchWithFilter(ctx context.Context, collection string, v []float32, topK int, filter map[string]any) ([]vector.Result, error) {
	return f.Search(ctx, collection, v, topK)
}
func (f *fakeVectorStore) Delete(context.Context, string, string) error                { return nil }
func (f *fakeVectorStore) DeleteByFilter(context.Context, string, map[string]any) error { return nil }
func (f *fakeVectorStore) DeleteCollection(context.Context, string) error               { return nil }
func (f *fakeVectorStore) Close() error                                                 { return nil }

func testGraphAndSnapshot(t *testing.T, dim int) (*hypergraph.Graph, *hypergraph.Snapshot) {
	t.Helper()
	g := hypergraph.New(dim)
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = 0.1
	}
	require.NoError(t, g.RegisterTool("toolA", vec, hypergraph.ToolFeatures{PageRank: 0.5}))
	require.NoError(t, g.RegisterTool("toolB", vec, hypergraph.ToolFeatures{PageRank: 0.2}))
	require.NoError(t, g.RegisterCapability("capX", vec, []hypergraph.MemberRef{
		hypergraph.ToolMember("toolA"),
		hypergraph.ToolMember("toolB"),
	}, 1, 0.9))
	snap, err := g.Commit()
	require.NoError(t, err)
	return g, snap
}

func testEngine(t *testing.T, emb *fakeEmbedder, vs *fakeVectorStore) *Engine {
	t.Helper()
	cfg := &config.SuggesterConfig{}
	cfg.SetDefaults()
	dagCfg := &config.DAGConfig{}
	dagCfg.SetDefaults()
	alphaCfg := &config.AlphaConfig{}
	alphaCfg.SetDefaults()

	alpha := localalpha.New(alphaCfg, localalpha.ZeroObservations{})
	return New(cfg, dagCfg, emb, vs, alpha, nil)
}

func TestSuggestDAG_ReturnsRankedSuggestion(t *testing.T) {
	g, snap := testGraphAndSnapshot(t, 4)
	emb := &fakeEmbedder{vec: []float32{0.1, 0.1, 0.1, 0.1}}
	vs := &fakeVectorStore{results: []vector.Result{
		{ID: "toolA", Score: 0.9},
		{ID: "toolB", Score: 0.6},
	}}
	engine := testEngine(t, emb, vs)

	suggestion, err := engine.SuggestDAG(context.Background(), g, snap, Query{Text: "do something"})
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.NotEmpty(t, suggestion.DAGStructure)
	assert.NotEmpty(t, suggestion.Rationale)
}

func TestSuggestDAG_NoCandidatesReturnsNil(t *testing.T) {
	g, snap := testGraphAndSnapshot(t, 4)
	emb := &fakeEmbedder{vec: []float32{0.1, 0.1, 0.1, 0.1}}
	vs := &fakeVectorStore{results: nil}
	engine := testEngine(t, emb, vs)

	suggestion, err := engine.SuggestDAG(context.Background(), g, snap, Query{Text: "unrelated"})
	require.NoError(t, err)
	assert.Nil(t, suggestion)
}

func TestSuggestDAG_BelowRejectFloorReturnsNil(t *testing.T) {
	g, snap := testGraphAndSnapshot(t, 4)
	emb := &fakeEmbedder{vec: []float32{0.1, 0.1, 0.1, 0.1}}
	vs := &fakeVectorStore{results: []vector.Result{{ID: "toolA", Score: 0.01}}}
	engine := testEngine(t, emb, vs)
	engine.cfg.SuggestionReject = 0.99 // force rejection regardless of blend

	suggestion, err := engine.SuggestDAG(context.Background(), g, snap, Query{Text: "x"})
	require.NoError(t, err)
	assert.Nil(t, suggestion)
}

func TestSuggestDAG_LowConfidenceCarriesWarning(t *testing.T) {
	g, snap := testGraphAndSnapshot(t, 4)
	emb := &fakeEmbedder{vec: []float32{0.1, 0.1, 0.1, 0.1}}
	vs := &fakeVectorStore{results: []vector.Result{{ID: "toolA", Score: 0.3}}}
	engine := testEngine(t, emb, vs)
	engine.cfg.SuggestionReject = 0
	engine.cfg.SuggestionFloor = 0.99 // force everything below floor

	suggestion, err := engine.SuggestDAG(context.Background(), g, snap, Query{Text: "x"})
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.NotEmpty(t, suggestion.Warning)
}

func TestSuggestDAG_MissingToolSkippedNotFatal(t *testing.T) {
	g, snap := testGraphAndSnapshot(t, 4)
	emb := &fakeEmbedder{vec: []float32{0.1, 0.1, 0.1, 0.1}}
	vs := &fakeVectorStore{results: []vector.Result{
		{ID: "toolGhost", Score: 0.9},
		{ID: "toolA", Score: 0.8},
	}}
	engine := testEngine(t, emb, vs)

	suggestion, err := engine.SuggestDAG(context.Background(), g, snap, Query{Text: "x"})
	require.NoError(t, err)
	require.NotNil(t, suggestion)
}

func TestSuggestDAG_RetriesTransientVectorStoreError(t *testing.T) {
	g, snap := testGraphAndSnapshot(t, 4)
	emb := &fakeEmbedder{vec: []float32{0.1, 0.1, 0.1, 0.1}}
	vs := &fakeVectorStore{
		results:   []vector.Result{{ID: "toolA", Score: 0.9}},
		err:       &shgaterrors.TransientBackendError{Backend: "vectorstore", Err: assertErr{}},
		failCount: 2,
	}
	engine := testEngine(t, emb, vs)

	suggestion, err := engine.SuggestDAG(context.Background(), g, snap, Query{Text: "x"})
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, 3, vs.callCount)
}

func TestSuggestDAG_NonTransientErrorNotRetried(t *testing.T) {
	g, snap := testGraphAndSnapshot(t, 4)
	emb := &fakeEmbedder{vec: []float32{0.1, 0.1, 0.1, 0.1}}
	vs := &fakeVectorStore{err: assertErr{}, failCount: 10}
	engine := testEngine(t, emb, vs)

	_, err := engine.SuggestDAG(context.Background(), g, snap, Query{Text: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, vs.callCount)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
