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

	"gonum.org/v1/gonum/stat"

	"github.com/kadirpekel/shgat/pkg/hypergraph"
)

// embeddingsHybrides implements §4.6 branch (2) (active_search, warm
// node): correlate, across the node's 1-hop neighbourhood, how close each
// neighbour is semantically (cosine over stored embeddings) against how
// close it is structurally. "Structurally close" here is degree-weighted
// adjacency: each neighbour scores 1/(1+its own degree), so weakly
// connected neighbours count as closer — the spectral embedding the spec alludes to is a heavier
// construction than a single correlation needs; this pairwise-correlation
// reading of "semantic vs. structural agreement over the neighbourhood"
// is the simplification recorded in DESIGN.md.
//
// Coherent structure (high correlation) lowers alpha, trusting the graph
// more; an incoherent or too-small neighbourhood returns alpha = 1.0
// (fall back to pure semantic trust).
func embeddingsHybrides(graph *hypergraph.Graph, adj *adjacency, nodeID string) float64 {
	neighbors := adj.neighbors(nodeID)
	if len(neighbors) < 2 {
		return 1.0
	}

	nodeEmbedding, ok := embeddingOf(graph, nodeID)
	if !ok {
		return 1.0
	}

	var structural, semantic []float64
	for _, n := range neighbors {
		nEmbedding, ok := embeddingOf(graph, n)
		if !ok {
			continue
		}
		structural = append(structural, 1.0/float64(1+len(adj.neighbors(n))))
		semantic = append(semantic, cosineSimilarity(nodeEmbedding, nEmbedding))
	}
	if len(structural) < 2 {
		return 1.0
	}

	corr := stat.Correlation(structural, semantic, nil)
	if math.IsNaN(corr) {
		return 1.0
	}
	if corr < 0 {
		corr = 0
	}
	return 1 - 0.5*corr
}

func embeddingOf(graph *hypergraph.Graph, id string) ([]float64, bool) {
	if t, ok := graph.Tool(id); ok {
		return toFloat64(t.Embedding), true
	}
	if c, ok := graph.Capability(id); ok {
		return toFloat64(c.Embedding), true
	}
	return nil, false
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
