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
	"fmt"

	"github.com/kadirpekel/shgat/pkg/config"
)

// Repositories bundles the tool/capability repository pair plus a Close
// hook for whatever connection they share.
type Repositories struct {
	Tools        ToolRepository
	Capabilities CapabilityRepository
	Close        func() error
}

// New constructs the repository pair named by cfg.Driver. "memory" (the
// default) needs no connection and always succeeds; "sqlite3",
// "postgres", and "mysql" open cfg.DSN via database/sql and apply the
// shgat schema.
func New(cfg *config.StoreConfig) (*Repositories, error) {
	switch cfg.Driver {
	case "", "memory":
		return &Repositories{
			Tools:        NewMemoryToolRepository(),
			Capabilities: NewMemoryCapabilityRepository(),
			Close:        func() error { return nil },
		}, nil
	case "sqlite3", "postgres", "mysql":
		tools, caps, closeFn, err := Open(cfg.Driver, cfg.DSN, cfg.MaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
		}
		return &Repositories{Tools: tools, Capabilities: caps, Close: closeFn}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
