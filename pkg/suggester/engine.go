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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kadirpekel/shgat/pkg/confidence"
	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/embedder"
	"github.com/kadirpekel/shgat/pkg/hypergraph"
	"github.com/kadirpekel/shgat/pkg/localalpha"
	"github.com/kadirpekel/shgat/pkg/observability"
	"github.com/kadirpekel/shgat/pkg/shgaterrors"
	"github.com/kadirpekel/shgat/pkg/thompson"
	"github.com/kadirpekel/shgat/pkg/vector"
)

// toolsCollection is the fixed vector-store collection suggestDAG
// searches against; capabilities are retrieved structurally through the
// hypergraph rather than via a second semantic search.
const toolsCollection = "tools"

// Engine orchestrates suggestDAG (C8): embed -> semantic search -> rank
// -> path extraction -> confidence/rationale -> optional Thompson accept.
//
// Engine itself holds no mutable query state; the writer/many-reader
// discipline spec.md §5 asks for lives one level up, on the
// *hypergraph.Graph/*hypergraph.Snapshot pair the caller hands to every
// SuggestDAG call — a query's entire evaluation (forward cache, scoring,
// path extraction, confidence) runs against one immutable snapshot, so a
// concurrent mutation never produces a mixed read.
type Engine struct {
	cfg        *config.SuggesterConfig
	dagCfg     *config.DAGConfig
	embedder   embedder.Embedder
	vectors    vector.Provider
	alpha      *localalpha.Calculator
	confidence *confidence.Calculator
	arbiter    *thompson.Arbiter // nil disables C7 accept/reject

	obsv  *observability.Manager
	group singleflight.Group
}

// New builds a suggester Engine. arbiter may be nil to skip the optional
// Thompson-Sampling accept/reject step.
func New(cfg *config.SuggesterConfig, dagCfg *config.DAGConfig, emb embedder.Embedder, vectors vector.Provider, alpha *localalpha.Calculator, arbiter *thompson.Arbiter) *Engine {
	return &Engine{
		cfg:        cfg,
		dagCfg:     dagCfg,
		embedder:   emb,
		vectors:    vectors,
		alpha:      alpha,
		confidence: confidence.New(dagCfg),
		arbiter:    arbiter,
		obsv:       observability.Noop(),
	}
}

// WithObservability attaches an observability manager for stage latency
// and outcome metrics plus suggestDAG tracing spans.
func (e *Engine) WithObservability(obsv *observability.Manager) *Engine {
	if obsv != nil {
		e.obsv = obsv
	}
	return e
}

// SuggestDAG implements spec.md §4.8. A nil *Suggestion with a nil error
// means no semantic candidate passed the suggestionReject floor.
func (e *Engine) SuggestDAG(ctx context.Context, graph *hypergraph.Graph, snap *hypergraph.Snapshot, q Query) (*Suggestion, error) {
	queryID := uuid.New().String()
	ctx, span := e.obsv.Tracer().Start(ctx, "suggestDAG", attribute.String("query.id", queryID))
	defer span.End()

	if q.Mode == "" {
		q.Mode = localalpha.ModeActiveSearch
	}

	result, err, shared := e.group.Do(dedupeKey(q), func() (any, error) {
		return e.suggestDAG(ctx, graph, snap, q)
	})
	log := slog.With("queryId", queryID, "dedupeShared", shared)
	if err != nil {
		e.obsv.Metrics().RecordSuggestRequest("error")
		log.Warn("suggestDAG failed", "err", err)
		return nil, err
	}
	suggestion, _ := result.(*Suggestion)
	if suggestion == nil {
		e.obsv.Metrics().RecordSuggestRequest("no_candidate")
		log.Info("suggestDAG found no candidate above the reject floor")
		return nil, nil
	}
	// Each singleflight-shared caller gets its own copy so mutating
	// QueryID never races with another waiter reading the same result.
	out := *suggestion
	out.QueryID = queryID
	e.obsv.Metrics().RecordSuggestRequest("ok")
	log.Info("suggestDAG ok", "confidence", out.Confidence, "topTool", firstOrEmpty(out.DAGStructure))
	return &out, nil
}

func firstOrEmpty(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func (e *Engine) suggestDAG(ctx context.Context, graph *hypergraph.Graph, snap *hypergraph.Snapshot, q Query) (*Suggestion, error) {
	start := time.Now()
	defer func() { e.obsv.Metrics().RecordSuggestStage("total", time.Since(start)) }()

	intentVec, err := e.embedIntent(ctx, q.Text)
	if err != nil {
		return nil, err
	}

	results, err := e.searchCandidates(ctx, intentVec, q.K)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	adj := buildAdjacency(snap)
	maxDegree := maxAdjDegree(adj, results)

	candidates, err := e.scoreCandidates(ctx, graph, snap, adj, q, results, maxDegree)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ranked := rankCandidates(candidates, e.cfg.RankedTopR)
	if ranked[0].final < e.cfg.SuggestionReject {
		return nil, nil
	}

	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.toolID
	}
	paths := extractPaths(adj, ids, e.cfg.MaxHops)

	suggestion := e.buildSuggestion(ranked, paths, q)

	if e.arbiter != nil {
		top := ranked[0]
		risk := thompson.ClassifyRisk(top.toolID, top.toolID)
		decision := e.arbiter.MakeDecision(top.toolID, top.final, risk, thompson.Mode(q.Mode))
		if !decision.Accept {
			suggestion.Warning = appendWarning(suggestion.Warning, fmt.Sprintf("Thompson-Sampling arbiter rejected the top candidate (%s)", decision.Reasoning))
		}
	}

	return suggestion, nil
}

func (e *Engine) embedIntent(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := withRetry(ctx, e.cfg.Retry, "embedder", func() error {
		v, err := e.embedder.Embed(ctx, text)
		if err != nil {
			return &shgaterrors.TransientBackendError{Backend: "embedder", Err: err}
		}
		vec = v
		return nil
	})
	return vec, err
}

func (e *Engine) searchCandidates(ctx context.Context, intentVec []float32, k int) ([]vector.Result, error) {
	if k <= 0 {
		k = e.cfg.SemanticTopK
	}
	var results []vector.Result
	err := withRetry(ctx, e.cfg.Retry, "vectorstore", func() error {
		r, err := e.vectors.Search(ctx, toolsCollection, intentVec, k)
		if err != nil {
			return err
		}
		results = r
		return nil
	})
	return results, err
}

// scoreCandidates computes, per semantic hit, the adaptive alpha (C6),
// graph affinity, and the blended final score of spec.md §4.8 step 3.
// Each candidate's score is independent of every other's, so the fan-out
// runs concurrently via errgroup — Graph.Tool is RLock-protected and
// localalpha.Calculator guards its own cache, so this is safe. Candidates
// whose tool id is not (yet) registered in the committed graph are
// skipped with a logged warning rather than failing the whole request —
// the vector store and the hypergraph are independently-updated
// collaborators and can drift briefly out of sync.
func (e *Engine) scoreCandidates(ctx context.Context, graph *hypergraph.Graph, snap *hypergraph.Snapshot, adj *adjacency, q Query, results []vector.Result, maxDegree int) ([]candidate, error) {
	scored := make([]*candidate, len(results))

	g, gCtx := errgroup.WithContext(ctx)
	for i, r := range results {
		i, r := i, r
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return &shgaterrors.Cancelled{Stage: "suggest:score"}
			}
			tool, ok := graph.Tool(r.ID)
			if !ok {
				slog.Warn("suggestDAG: semantic candidate missing from graph", "toolId", r.ID)
				return nil
			}

			alphaResult := e.alpha.GetLocalAlpha(graph, snap, q.Mode, r.ID, localalpha.NodeTool, q.ContextTools)
			affinity := graphAffinity(adj, e.dagCfg, r.ID, q.ContextTools, e.cfg.MaxHops, maxDegree)
			semantic := float64(r.Score)
			final := alphaResult.Alpha*semantic + (1-alphaResult.Alpha)*affinity + e.cfg.PageRankWeight*tool.Features.PageRank

			scored[i] = &candidate{
				toolID:        r.ID,
				semantic:      semantic,
				graphAffinity: affinity,
				pageRank:      tool.Features.PageRank,
				alpha:         alphaResult.Alpha,
				final:         final,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(results))
	for _, c := range scored {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	return candidates, nil
}

func (e *Engine) buildSuggestion(ranked []candidate, paths []DependencyPath, q Query) *Suggestion {
	top := ranked[0]

	weights := e.confidence.AdaptiveWeights(top.alpha)
	meanTop3PageRank := meanPageRank(ranked, 3)
	meanPathConf := meanPathConfidence(e.confidence, paths)
	hybridConfidence := e.confidence.HybridConfidence(top.final, meanTop3PageRank, meanPathConf, weights)

	directDeps, totalDeps := countDependencies(paths, top.toolID)

	semantic, graphScore, pageRank := top.semantic, top.graphAffinity, top.pageRank
	rationale := e.confidence.Rationale(confidence.RationaleInput{
		Score:                 hybridConfidence,
		SemanticScore:         &semantic,
		GraphScore:            &graphScore,
		PagerankScore:         &pageRank,
		DependencyCount:       totalDeps,
		DirectDependencyCount: directDeps,
	})

	var alternatives []Alternative
	for i, c := range ranked[1:] {
		alternatives = append(alternatives, Alternative{
			ToolID: c.toolID,
			Score:  c.final,
			Rationale: confidence.PredictionRationale(confidence.SourceAlternative, confidence.PredictionInput{
				ToolID:          c.toolID,
				AlternativeRank: i + 2,
				Score:           c.final,
			}),
		})
	}

	suggestion := &Suggestion{
		DAGStructure:    dagStructure(ranked, paths),
		Confidence:      hybridConfidence,
		DependencyPaths: paths,
		Alternatives:    alternatives,
		Rationale:       rationale,
	}
	if hybridConfidence < e.cfg.SuggestionFloor {
		suggestion.Warning = appendWarning(suggestion.Warning, "cold start / low confidence: few observations back this ranking")
	}
	return suggestion
}

// dagStructure orders the ranked tool ids by the dependency chain the
// extracted paths imply, falling back to ranked order alone when no
// paths connect them (an isolated top candidate with no known
// dependencies is still a valid, single-step suggestion).
func dagStructure(ranked []candidate, paths []DependencyPath) []string {
	seen := make(map[string]bool, len(ranked))
	var out []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Hops < paths[j].Hops })
	for _, p := range paths {
		add(p.From)
		add(p.To)
	}
	for _, c := range ranked {
		add(c.toolID)
	}
	return out
}

func countDependencies(paths []DependencyPath, topID string) (direct, total int) {
	for _, p := range paths {
		total++
		if p.From == topID && p.Hops == 1 {
			direct++
		}
	}
	return direct, total
}

func meanPageRank(ranked []candidate, topN int) float64 {
	if len(ranked) < topN {
		topN = len(ranked)
	}
	if topN == 0 {
		return 0
	}
	var sum float64
	for _, c := range ranked[:topN] {
		sum += c.pageRank
	}
	return sum / float64(topN)
}

func meanPathConfidence(calc *confidence.Calculator, paths []DependencyPath) float64 {
	if len(paths) == 0 {
		return 0
	}
	var sum float64
	for i := range paths {
		c := calc.PathConfidence(paths[i].Hops)
		paths[i].Confidence = c
		sum += c
	}
	return sum / float64(len(paths))
}

func maxAdjDegree(adj *adjacency, results []vector.Result) int {
	max := 0
	for _, r := range results {
		if d := adj.degree(r.ID); d > max {
			max = d
		}
	}
	return max
}

func appendWarning(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + "; " + next
}

func dedupeKey(q Query) string {
	var b strings.Builder
	b.WriteString(q.Text)
	b.WriteByte('|')
	b.WriteString(string(q.Mode))
	b.WriteByte('|')
	ctx := append([]string(nil), q.ContextTools...)
	sort.Strings(ctx)
	b.WriteString(strings.Join(ctx, ","))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
