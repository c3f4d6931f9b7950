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

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/kadirpekel/shgat/pkg/hypergraph"
	"github.com/kadirpekel/shgat/pkg/levelparams"
	"github.com/kadirpekel/shgat/pkg/observability"
	"github.com/kadirpekel/shgat/pkg/shgaterrors"
)

// DefaultResidualAlpha blends the downward pass's pre-update representation
// against the newly propagated one: alphaRes*original + (1-alphaRes)*propagated.
const DefaultResidualAlpha = 0.3

// CoOccurrence is one (i, j, weight) edge for the optional vertex-to-vertex
// enrichment step on H. Out-of-range tool indices are silently ignored.
type CoOccurrence struct {
	ToolA       string
	ToolB       string
	Weight      float64
	Temperature float64
}

// Engine runs the message-passing forward pass over a committed graph
// snapshot using a fixed set of level parameters.
type Engine struct {
	params *levelparams.Params
	obs    *observability.Manager
}

// NewEngine builds an Engine bound to params. obs may be nil, in which
// case a no-op observability manager is used.
func NewEngine(params *levelparams.Params, obs *observability.Manager) *Engine {
	if obs == nil {
		obs = observability.Noop()
	}
	return &Engine{params: params, obs: obs}
}

// Forward runs the full upward/downward sweep described for C3 and
// returns the resulting cache. It fails with GraphNotBuilt if snap is nil,
// and with DimensionMismatch if any embedding does not match D.
func (e *Engine) Forward(ctx context.Context, graph *hypergraph.Graph, snap *hypergraph.Snapshot, coOcc []CoOccurrence) (*Cache, error) {
	ctx, span := e.obs.Tracer().Start(ctx, observability.SpanForwardPass)
	defer span.End()

	if snap == nil {
		return nil, &shgaterrors.GraphNotBuilt{}
	}

	cache := &Cache{
		Snapshot:          snap,
		H:                 make(map[string][]float64),
		E:                 make(map[string][]float64),
		UpwardAttention:   make(map[int]map[string][][]float64),
		DownwardAttention: make(map[int]map[string][][]float64),
	}

	// cur holds the "current" working representation of every node, keyed
	// by id: D-dim for tools and unprocessed capabilities, hiddenDim once a
	// capability has been aggregated as a parent.
	cur := make(map[string][]float64, snap.Stats.ToolCount+snap.Stats.CapabilityCount)

	for _, id := range snap.ToolOrder {
		t, ok := graph.Tool(id)
		if !ok {
			continue
		}
		if len(t.Embedding) != e.params.EmbeddingDim {
			return nil, &shgaterrors.DimensionMismatch{Expected: e.params.EmbeddingDim, Actual: len(t.Embedding), Context: "tool " + id}
		}
		cur[id] = toFloat64(t.Embedding)
	}
	capOriginal := make(map[string][]float64, len(snap.CapabilityOrder))
	for _, id := range snap.CapabilityOrder {
		c, ok := graph.Capability(id)
		if !ok {
			continue
		}
		if len(c.Embedding) != e.params.EmbeddingDim {
			return nil, &shgaterrors.DimensionMismatch{Expected: e.params.EmbeddingDim, Actual: len(c.Embedding), Context: "capability " + id}
		}
		capOriginal[id] = toFloat64(c.Embedding)
		cur[id] = toFloat64(c.Embedding)
	}

	// Upward pass: level 0..L.
	for lvl := 0; lvl <= snap.MaxLevel; lvl++ {
		if err := checkDeadline(ctx, "upward"); err != nil {
			return nil, err
		}
		li := snap.Levels[lvl]
		inputDim := e.params.InputDim(lvl)
		lp := e.params.Levels[lvl]

		childVecs := make([][]float64, len(li.RowIDs))
		for i, id := range li.RowIDs {
			childVecs[i] = ensureDim(cur[id], inputDim)
		}
		parentVecs := make([][]float64, len(li.ColIDs))
		for j, id := range li.ColIDs {
			if v, ok := cur[id]; ok && len(v) == inputDim {
				parentVecs[j] = v
			} else {
				parentVecs[j] = resizeVector(capOriginal[id], inputDim)
			}
		}

		headOut, attn, err := e.aggregateLevel(ctx, li.ParentChildren, parentVecs, childVecs, lp.WParent, lp.WChild, lp.AUpward)
		if err != nil {
			return nil, err
		}
		cache.UpwardAttention[lvl] = attnByID(attn, li.ColIDs)

		for j, id := range li.ColIDs {
			if len(li.ParentChildren[j]) == 0 {
				cur[id] = resizeVector(capOriginal[id], e.params.HiddenDim)
				continue
			}
			cur[id] = concatHeads(headOut, j)
		}
	}

	// Downward pass: level L..0.
	for lvl := snap.MaxLevel; lvl >= 0; lvl-- {
		if err := checkDeadline(ctx, "downward"); err != nil {
			return nil, err
		}
		li := snap.Levels[lvl]
		inputDim := e.params.InputDim(lvl)
		lp := e.params.Levels[lvl]

		childVecs := make([][]float64, len(li.RowIDs))
		for i, id := range li.RowIDs {
			childVecs[i] = ensureDim(cur[id], inputDim)
		}
		parentVecs := make([][]float64, len(li.ColIDs))
		for j, id := range li.ColIDs {
			parentVecs[j] = ensureDim(cur[id], e.params.HiddenDim)
		}

		headOut, attn, err := e.aggregateLevel(ctx, li.ChildParents, childVecs, parentVecs, lp.WChild, lp.WParent, lp.ADownward)
		if err != nil {
			return nil, err
		}
		cache.DownwardAttention[lvl] = attnByID(attn, li.RowIDs)

		for i, id := range li.RowIDs {
			if len(li.ChildParents[i]) == 0 {
				continue // isolated row: passed through unchanged
			}
			propagated := concatHeads(headOut, i)
			original := ensureDim(cur[id], len(propagated))
			blended := make([]float64, len(propagated))
			for k := range blended {
				blended[k] = DefaultResidualAlpha*original[k] + (1-DefaultResidualAlpha)*propagated[k]
			}
			cur[id] = blended
		}
	}

	if len(coOcc) > 0 {
		applyCoOccurrence(cur, coOcc)
	}

	for _, id := range snap.ToolOrder {
		if v, ok := cur[id]; ok {
			cache.H[id] = l2Normalize(v)
		}
	}
	for _, id := range snap.CapabilityOrder {
		if v, ok := cur[id]; ok {
			cache.E[id] = l2Normalize(v)
		}
	}

	return cache, nil
}

// aggregateLevel fans a group-wise attention aggregation out over heads.
// groups[g] lists the member indices belonging to group g; memberVecs are
// projected with wMember, groupVecs with wGroup, and the attention vector
// a scores the concatenation [memberProj || groupProj]. The same routine
// serves both the upward pass (group=parent, member=child) and the
// downward pass (group=child, member=parent) by symmetry; only the very
// final Forward output is L2-normalised, so both passes use ELU here.
func (e *Engine) aggregateLevel(ctx context.Context, groups [][]int, groupVecs, memberVecs [][]float64, wGroup, wMember []*mat.Dense, a [][]float64) ([][][]float64, [][][]float64, error) {
	numHeads := e.params.NumHeads
	headOut := make([][][]float64, numHeads)
	attn := make([][][]float64, numHeads)

	g, ctx := errgroup.WithContext(ctx)
	for h := 0; h < numHeads; h++ {
		h := h
		g.Go(func() error {
			if err := checkDeadline(ctx, "head"); err != nil {
				return err
			}
			memberProj := make([][]float64, len(memberVecs))
			for i, v := range memberVecs {
				memberProj[i] = matVec(wMember[h], v)
			}
			groupProj := make([][]float64, len(groupVecs))
			for i, v := range groupVecs {
				groupProj[i] = matVec(wGroup[h], v)
			}

			out := make([][]float64, len(groups))
			weights := make([][]float64, len(groups))
			for gi, members := range groups {
				if len(members) == 0 {
					continue
				}
				scores := make([]float64, len(members))
				for k, m := range members {
					concat := append(append([]float64{}, memberProj[m]...), groupProj[gi]...)
					scores[k] = leakyReLU(dot(a[h], concat))
				}
				w := softmax(scores)
				weights[gi] = w
				agg := make([]float64, headDimOf(memberProj))
				for k, m := range members {
					addScaled(agg, memberProj[m], w[k])
				}
				for i := range agg {
					agg[i] = elu(agg[i])
				}
				out[gi] = agg
			}
			headOut[h] = out
			attn[h] = weights
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return headOut, attn, nil
}

// matVec computes w*v for a dense headDim x inputDim weight matrix and an
// inputDim-wide vector, returning a headDim-wide vector.
func matVec(w *mat.Dense, v []float64) []float64 {
	rows, cols := w.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		s := 0.0
		for j := 0; j < cols && j < len(v); j++ {
			s += w.At(i, j) * v[j]
		}
		out[i] = s
	}
	return out
}

func headDimOf(vecs [][]float64) int {
	for _, v := range vecs {
		if len(v) > 0 {
			return len(v)
		}
	}
	return 0
}

// concatHeads builds the hiddenDim vector for group index gi by
// concatenating every head's output, in head order.
func concatHeads(headOut [][][]float64, gi int) []float64 {
	var out []float64
	for h := range headOut {
		out = append(out, headOut[h][gi]...)
	}
	return out
}

// attnByID re-indexes a per-head, per-group-index weight matrix by id for
// the Cache's public, id-keyed attention maps.
func attnByID(attn [][][]float64, ids []string) map[string][][]float64 {
	out := make(map[string][][]float64, len(ids))
	for gi, id := range ids {
		perHead := make([][]float64, len(attn))
		for h := range attn {
			if gi < len(attn[h]) {
				perHead[h] = attn[h][gi]
			}
		}
		out[id] = perHead
	}
	return out
}

func ensureDim(v []float64, dim int) []float64 {
	if len(v) == dim {
		return v
	}
	return resizeVector(v, dim)
}

func checkDeadline(ctx context.Context, stage string) error {
	select {
	case <-ctx.Done():
		return &shgaterrors.Cancelled{Stage: stage}
	default:
		return nil
	}
}

func applyCoOccurrence(cur map[string][]float64, edges []CoOccurrence) {
	for _, e := range edges {
		a, okA := cur[e.ToolA]
		b, okB := cur[e.ToolB]
		if !okA || !okB || len(a) != len(b) {
			continue // out-of-range/unknown ids are silently ignored
		}
		temp := e.Temperature
		if temp <= 0 {
			temp = 1.0
		}
		w := sigmoid(e.Weight / temp)
		blended := make([]float64, len(a))
		for i := range blended {
			blended[i] = (1-w)*a[i] + w*b[i]
		}
		cur[e.ToolA] = blended
	}
}
