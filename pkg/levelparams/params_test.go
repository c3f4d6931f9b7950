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

package levelparams

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/shgat/pkg/config"
)

func testModelConfig() *config.ModelConfig {
	return &config.ModelConfig{
		NumHeads:     4,
		HiddenDim:    16,
		EmbeddingDim: 8,
		Seed:         42,
	}
}

func TestInitialize_ParamCount(t *testing.T) {
	cfg := testModelConfig()
	p := Initialize(cfg, 1)

	headDim := p.HeadDim()
	expected := 0
	for lvl := 0; lvl <= 1; lvl++ {
		inputDim := p.InputDim(lvl)
		expected += cfg.NumHeads * (2*headDim*inputDim + 4*headDim)
	}
	require.Equal(t, expected, p.ParamCount())
}

func TestInitialize_Deterministic(t *testing.T) {
	cfg := testModelConfig()
	p1 := Initialize(cfg, 0)
	p2 := Initialize(cfg, 0)

	require.Equal(t, p1.Levels[0].WChild[0].RawMatrix().Data, p2.Levels[0].WChild[0].RawMatrix().Data)
}

func TestExportImport_RoundTrip(t *testing.T) {
	cfg := testModelConfig()
	p := Initialize(cfg, 1)

	data := p.Export()
	p2, err := Import(data)
	require.NoError(t, err)

	require.Equal(t, p.NumHeads, p2.NumHeads)
	require.Equal(t, p.HiddenDim, p2.HiddenDim)
	require.Equal(t, p.EmbeddingDim, p2.EmbeddingDim)
	require.Equal(t, p.MaxLevel, p2.MaxLevel)

	for lvl := range p.Levels {
		for h := 0; h < cfg.NumHeads; h++ {
			require.Equal(t, p.Levels[lvl].WChild[h].RawMatrix().Data, p2.Levels[lvl].WChild[h].RawMatrix().Data)
			require.Equal(t, p.Levels[lvl].WParent[h].RawMatrix().Data, p2.Levels[lvl].WParent[h].RawMatrix().Data)
			require.Equal(t, p.Levels[lvl].AUpward[h], p2.Levels[lvl].AUpward[h])
			require.Equal(t, p.Levels[lvl].ADownward[h], p2.Levels[lvl].ADownward[h])
		}
	}
}

func TestImport_VersionMismatch(t *testing.T) {
	cfg := testModelConfig()
	p := Initialize(cfg, 0)
	data := p.Export()
	data[0] = 0xFF // corrupt version field

	_, err := Import(data)
	require.Error(t, err)
}
