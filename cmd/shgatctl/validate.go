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

package main

import (
	"context"
	"fmt"

	"github.com/kadirpekel/shgat/pkg/config"
)

// ValidateCmd loads a config file and reports whether it is well-formed.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, loader, err := config.LoadConfigFile(ctx, cli.configPath())
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	defer loader.Close()

	fmt.Printf("%s: valid\n", cli.configPath())
	fmt.Printf("  model: %d heads x %d hidden, %d layers\n", cfg.Model.NumHeads, cfg.Model.HiddenDim, cfg.Model.NumLayers)
	fmt.Printf("  store: driver=%s\n", cfg.Store.Driver)
	fmt.Printf("  vector store: type=%s\n", cfg.VectorStore.Type)
	fmt.Printf("  embedder: provider=%s model=%s\n", cfg.Embedder.Provider, cfg.Embedder.Model)
	fmt.Printf("  server: %s\n", cfg.Server.Address())
	return nil
}
