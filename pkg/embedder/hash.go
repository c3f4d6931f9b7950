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

package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// HashEmbedder deterministically maps text to a unit-norm vector by hashing
// the text and filling the embedding from a seeded stream of the digest.
// It makes no network calls and never errors, so tests and seed scenarios
// can exercise the full pipeline without a live embedding provider.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a HashEmbedder producing vectors of dimension dim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dim}
}

// DefaultHashDimension is used when no dimension is configured.
const DefaultHashDimension = 1024

// Embed deterministically derives a unit-norm vector from text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return hashVector(text, e.dimension), nil
}

// EmbedBatch embeds each text independently.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *HashEmbedder) Dimension() int { return e.dimension }
func (e *HashEmbedder) Model() string  { return "hash-embedder-v1" }
func (e *HashEmbedder) Close() error   { return nil }

// hashVector expands a SHA-256 digest of text into a dim-length unit-norm
// vector via repeated re-hashing (counter mode), so dim can exceed 32 bytes.
func hashVector(text string, dim int) []float32 {
	v := make([]float32, dim)
	seed := sha256.Sum256([]byte(text))

	block := seed
	idx := 0
	for idx < dim {
		for i := 0; i+4 <= len(block) && idx < dim; i += 4 {
			u := binary.LittleEndian.Uint32(block[i : i+4])
			// Map to [-1, 1).
			v[idx] = float32(int32(u))/float32(1<<31)
			idx++
		}
		block = sha256.Sum256(block[:])
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1.0 / sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func sqrt(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for range 20 {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

var _ Embedder = (*HashEmbedder)(nil)
