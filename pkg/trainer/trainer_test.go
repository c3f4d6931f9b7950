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

package trainer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/hypergraph"
	"github.com/kadirpekel/shgat/pkg/levelparams"
	"github.com/kadirpekel/shgat/pkg/shgat"
)

func unitVec(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func buildCache(t *testing.T, dim int) (*shgat.Cache, *config.ModelConfig) {
	t.Helper()
	g := hypergraph.New(dim)
	require.NoError(t, g.RegisterTool("t1", unitVec(dim, 0), hypergraph.ToolFeatures{}))
	require.NoError(t, g.RegisterCapability("c1", unitVec(dim, 0), []hypergraph.MemberRef{hypergraph.ToolMember("t1")}, 0, 1.0))
	require.NoError(t, g.RegisterTool("t2", unitVec(dim, 1), hypergraph.ToolFeatures{}))
	require.NoError(t, g.RegisterCapability("c2", unitVec(dim, 1), []hypergraph.MemberRef{hypergraph.ToolMember("t2")}, 0, 0.1))

	snap, err := g.Commit()
	require.NoError(t, err)

	cfg := &config.ModelConfig{NumHeads: 4, HiddenDim: 16, EmbeddingDim: dim, Seed: 3}
	params := levelparams.Initialize(cfg, snap.MaxLevel)
	engine := shgat.NewEngine(params, nil)

	cache, err := engine.Forward(context.Background(), g, snap, nil)
	require.NoError(t, err)
	return cache, cfg
}

func TestTrainEpoch_ReducesLossOverEpochs(t *testing.T) {
	const dim = 8
	cache, modelCfg := buildCache(t, dim)
	qk := shgat.InitQK(modelCfg)

	trainerCfg := &config.TrainerConfig{
		LearningRate:       0.5,
		Epochs:             1,
		BatchSize:          4,
		Momentum:           0.0,
		MaxInvalidFraction: 0.5,
		GradientClip:       5.0,
	}
	tr := New(trainerCfg, qk)

	episodes := []Episode{
		{Query: unitVec(dim, 0), CapabilityID: "c1", Label: 1.0},
		{Query: unitVec(dim, 1), CapabilityID: "c2", Label: 0.0},
	}

	var firstLoss, lastLoss float64
	for i := 0; i < 20; i++ {
		result, err := tr.TrainEpoch(context.Background(), cache, modelCfg, episodes)
		require.NoError(t, err)
		if i == 0 {
			firstLoss = result.FinalLoss
		}
		lastLoss = result.FinalLoss
	}
	require.Less(t, lastLoss, firstLoss)
}

func TestTrainEpoch_SkipsInvalidExamples(t *testing.T) {
	const dim = 8
	cache, modelCfg := buildCache(t, dim)
	qk := shgat.InitQK(modelCfg)

	trainerCfg := &config.TrainerConfig{
		LearningRate:       0.1,
		BatchSize:          4,
		MaxInvalidFraction: 1.0,
		GradientClip:       5.0,
	}
	tr := New(trainerCfg, qk)

	episodes := []Episode{
		{Query: unitVec(dim, 0), CapabilityID: "unknown-capability", Label: 1.0},
		{Query: unitVec(dim, 0), CapabilityID: "c1", Label: 1.0},
	}

	result, err := tr.TrainEpoch(context.Background(), cache, modelCfg, episodes)
	require.NoError(t, err)
	require.Equal(t, 1, result.SkippedInvalid)
	require.False(t, result.Aborted)
}

func TestTrainEpoch_AbortsOnExcessiveInvalidFraction(t *testing.T) {
	const dim = 8
	cache, modelCfg := buildCache(t, dim)
	qk := shgat.InitQK(modelCfg)

	trainerCfg := &config.TrainerConfig{
		LearningRate:       0.1,
		BatchSize:          1,
		MaxInvalidFraction: 0.1,
		GradientClip:       5.0,
	}
	tr := New(trainerCfg, qk)

	episodes := []Episode{
		{Query: unitVec(dim, 0), CapabilityID: "unknown-1", Label: 1.0},
		{Query: unitVec(dim, 0), CapabilityID: "unknown-2", Label: 1.0},
	}

	result, err := tr.TrainEpoch(context.Background(), cache, modelCfg, episodes)
	require.NoError(t, err)
	require.True(t, result.Aborted)
}
