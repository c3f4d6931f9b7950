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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/shgat/pkg/config"
)

func testQKModelConfig() *config.ModelConfig {
	return &config.ModelConfig{
		NumHeads:     4,
		HiddenDim:    16,
		EmbeddingDim: 8,
		Seed:         7,
	}
}

func TestQKExportImport_RoundTrip(t *testing.T) {
	cfg := testQKModelConfig()
	qk := InitQK(cfg)
	qk.FusionB = 0.25

	data := qk.Export()
	qk2, err := ImportQK(data)
	require.NoError(t, err)

	require.Equal(t, qk.NumHeads, qk2.NumHeads)
	require.Equal(t, qk.HeadDim, qk2.HeadDim)
	require.Equal(t, qk.EmbeddingDim, qk2.EmbeddingDim)
	require.Equal(t, qk.HiddenDim, qk2.HiddenDim)
	require.Equal(t, qk.FusionB, qk2.FusionB)

	for h := 0; h < cfg.NumHeads; h++ {
		require.Equal(t, qk.WQ[h].RawMatrix().Data, qk2.WQ[h].RawMatrix().Data)
		require.Equal(t, qk.WK[h].RawMatrix().Data, qk2.WK[h].RawMatrix().Data)
		require.Equal(t, qk.FusionW[h], qk2.FusionW[h])
	}
}

func TestQKImport_VersionMismatch(t *testing.T) {
	cfg := testQKModelConfig()
	qk := InitQK(cfg)
	data := qk.Export()
	data[0] = 0xFF // corrupt the version header

	_, err := ImportQK(data)
	require.Error(t, err)
}
