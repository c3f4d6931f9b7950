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

package hypergraph

import (
	"testing"

	"github.com/kadirpekel/shgat/pkg/shgaterrors"
	"github.com/stretchr/testify/require"
)

func unitVec(dim int, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func TestCommit_CycleDetected(t *testing.T) {
	g := New(4)
	require.NoError(t, g.RegisterCapability("A", unitVec(4, 0), []MemberRef{CapabilityMember("B")}, 0, 0))
	require.NoError(t, g.RegisterCapability("B", unitVec(4, 0), []MemberRef{CapabilityMember("C")}, 0, 0))
	require.NoError(t, g.RegisterCapability("C", unitVec(4, 0), []MemberRef{CapabilityMember("A")}, 0, 0))

	_, err := g.Commit()
	require.Error(t, err)
	var cyc *shgaterrors.CycleDetected
	require.ErrorAs(t, err, &cyc)
	require.Equal(t, []string{"A", "B", "C", "A"}, cyc.Path)
}

func TestCommit_SelfLoop(t *testing.T) {
	g := New(4)
	require.NoError(t, g.RegisterCapability("A", unitVec(4, 0), []MemberRef{CapabilityMember("A")}, 0, 0))

	_, err := g.Commit()
	require.Error(t, err)
	var cyc *shgaterrors.CycleDetected
	require.ErrorAs(t, err, &cyc)
	require.Equal(t, []string{"A", "A"}, cyc.Path)
}

func TestCommit_UnknownMember(t *testing.T) {
	g := New(4)
	require.NoError(t, g.RegisterCapability("A", unitVec(4, 0), []MemberRef{ToolMember("ghost")}, 0, 0))

	_, err := g.Commit()
	require.Error(t, err)
	var unk *shgaterrors.UnknownMember
	require.ErrorAs(t, err, &unk)
}

func TestCommit_SingleToolSingleCapability(t *testing.T) {
	g := New(4)
	require.NoError(t, g.RegisterTool("t1", unitVec(4, 0), ToolFeatures{}))
	require.NoError(t, g.RegisterCapability("c1", unitVec(4, 0), []MemberRef{ToolMember("t1")}, 0, 0))

	snap, err := g.Commit()
	require.NoError(t, err)
	require.Equal(t, 0, snap.MaxLevel)
	require.Len(t, snap.Levels, 1)

	lvl0 := snap.Levels[0]
	require.Equal(t, []string{"t1"}, lvl0.RowIDs)
	require.Equal(t, []string{"c1"}, lvl0.ColIDs)
	require.Equal(t, [][]int{{0}}, lvl0.ParentChildren)
}

func TestCommit_IdempotentNoMutation(t *testing.T) {
	g := New(4)
	require.NoError(t, g.RegisterTool("t1", unitVec(4, 0), ToolFeatures{}))
	require.NoError(t, g.RegisterCapability("c1", unitVec(4, 0), []MemberRef{ToolMember("t1")}, 0, 0))

	snap1, err := g.Commit()
	require.NoError(t, err)
	snap2, err := g.Commit()
	require.NoError(t, err)
	require.Same(t, snap1, snap2)
}

func TestCommit_DiamondPattern(t *testing.T) {
	g := New(4)
	require.NoError(t, g.RegisterTool("t1", unitVec(4, 0), ToolFeatures{}))
	require.NoError(t, g.RegisterCapability("leaf", unitVec(4, 0), []MemberRef{ToolMember("t1")}, 0, 0))
	require.NoError(t, g.RegisterCapability("parentA", unitVec(4, 0), []MemberRef{CapabilityMember("leaf")}, 0, 0))
	require.NoError(t, g.RegisterCapability("parentB", unitVec(4, 0), []MemberRef{CapabilityMember("leaf")}, 0, 0))

	snap, err := g.Commit()
	require.NoError(t, err)
	require.Equal(t, 1, snap.MaxLevel)

	lvl1 := snap.Levels[1]
	require.Equal(t, []string{"leaf"}, lvl1.RowIDs)
	require.Equal(t, []string{"parentA", "parentB"}, lvl1.ColIDs)
	require.Equal(t, []int{0}, lvl1.ParentChildren[0])
	require.Equal(t, []int{0}, lvl1.ParentChildren[1])
	require.ElementsMatch(t, []int{0, 1}, lvl1.ChildParents[0])
}

func TestCommit_DimensionMismatch(t *testing.T) {
	g := New(4)
	err := g.RegisterTool("t1", unitVec(3, 0), ToolFeatures{})
	require.Error(t, err)
	var dm *shgaterrors.DimensionMismatch
	require.ErrorAs(t, err, &dm)
}
