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

import "github.com/kadirpekel/shgat/pkg/hypergraph"

// Cache is the forward cache: tool and capability embeddings produced by
// one forward pass, plus the per-level, per-head attention weights used
// to check the row-sum-to-one invariant. Its lifetime is one query or one
// training minibatch; it is invalidated the moment the graph or the level
// parameters mutate, and is otherwise immutable and safe to share by
// reference across concurrent readers.
type Cache struct {
	Snapshot *hypergraph.Snapshot

	// H maps tool id to its final, L2-normalised embedding.
	H map[string][]float64

	// E maps capability id to its final, L2-normalised embedding.
	E map[string][]float64

	// UpwardAttention[level][parentID] holds, per head, the softmax
	// weights over that parent's children (aligned with
	// LevelIncidence.ParentChildren[col]). Indexed
	// UpwardAttention[level][parentID][head] for invariant checks.
	UpwardAttention map[int]map[string][][]float64

	// DownwardAttention[level][childID] holds, per head, the softmax
	// weights over that child's parents.
	DownwardAttention map[int]map[string][][]float64
}
