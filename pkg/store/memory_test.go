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

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/shgat/pkg/config"
)

func TestMemoryToolRepository_UpsertGetList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryToolRepository()

	require.NoError(t, repo.Upsert(ctx, ToolRow{ID: "b", PageRank: 0.2}))
	require.NoError(t, repo.Upsert(ctx, ToolRow{ID: "a", PageRank: 0.1}))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0.1, got.PageRank)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestMemoryToolRepository_GetMissing(t *testing.T) {
	repo := NewMemoryToolRepository()
	_, err := repo.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestMemoryToolRepository_UpsertRejectsEmptyID(t *testing.T) {
	repo := NewMemoryToolRepository()
	err := repo.Upsert(context.Background(), ToolRow{})
	assert.Error(t, err)
}

func TestMemoryToolRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryToolRepository()
	require.NoError(t, repo.Upsert(ctx, ToolRow{ID: "a"}))
	require.NoError(t, repo.Delete(ctx, "a"))
	_, err := repo.Get(ctx, "a")
	assert.Error(t, err)
}

func TestMemoryCapabilityRepository_MembersOrderedByOrdinal(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCapabilityRepository()
	require.NoError(t, repo.Upsert(ctx, CapabilityRow{ID: "cap1"}))

	members := []MemberRow{
		{ParentID: "cap1", ChildID: "toolZ", ChildKind: ChildTool, Ordinal: 1},
		{ParentID: "cap1", ChildID: "toolA", ChildKind: ChildTool, Ordinal: 0},
	}
	require.NoError(t, repo.SetMembers(ctx, "cap1", members))

	got, err := repo.Members(ctx, "cap1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "toolA", got[0].ChildID)
	assert.Equal(t, "toolZ", got[1].ChildID)
}

func TestMemoryCapabilityRepository_DeleteClearsMembers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCapabilityRepository()
	require.NoError(t, repo.Upsert(ctx, CapabilityRow{ID: "cap1"}))
	require.NoError(t, repo.SetMembers(ctx, "cap1", []MemberRow{{ParentID: "cap1", ChildID: "t", ChildKind: ChildTool}}))
	require.NoError(t, repo.Delete(ctx, "cap1"))

	got, err := repo.Members(ctx, "cap1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncodeDecodeEmbedding_RoundTrips(t *testing.T) {
	v := []float32{0.1, -2.5, 3.25, 0}
	blob := encodeEmbedding(v)
	require.NotNil(t, blob)
	require.Len(t, blob, 16)

	got := decodeEmbedding(blob)
	assert.Equal(t, v, got)
}

func TestEncodeDecodeEmbedding_EmptyAndCorrupt(t *testing.T) {
	assert.Nil(t, encodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding([]byte{1, 2, 3}))
}

func TestNewFactory_DefaultsToMemory(t *testing.T) {
	// An empty driver selects the in-memory repositories; the sql-backed
	// driver paths require a live database and are not exercised here.
	repos, err := New(&config.StoreConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryToolRepository{}, repos.Tools)
	assert.IsType(t, &MemoryCapabilityRepository{}, repos.Capabilities)
}
