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

import "context"

// ToolRepository persists tool rows.
type ToolRepository interface {
	Get(ctx context.Context, id string) (ToolRow, error)
	List(ctx context.Context) ([]ToolRow, error)
	Upsert(ctx context.Context, row ToolRow) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// CapabilityRepository persists capability rows and their member edges.
type CapabilityRepository interface {
	Get(ctx context.Context, id string) (CapabilityRow, error)
	List(ctx context.Context) ([]CapabilityRow, error)
	Upsert(ctx context.Context, row CapabilityRow) error
	Delete(ctx context.Context, id string) error

	Members(ctx context.Context, parentID string) ([]MemberRow, error)
	SetMembers(ctx context.Context, parentID string, members []MemberRow) error

	Close() error
}
