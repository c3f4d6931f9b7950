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
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/embedder"
	"github.com/kadirpekel/shgat/pkg/localalpha"
	"github.com/kadirpekel/shgat/pkg/observability"
	"github.com/kadirpekel/shgat/pkg/server"
	"github.com/kadirpekel/shgat/pkg/store"
	"github.com/kadirpekel/shgat/pkg/suggester"
	"github.com/kadirpekel/shgat/pkg/thompson"
	"github.com/kadirpekel/shgat/pkg/vector"
)

// ServeCmd assembles every collaborator (store, embedder, vector
// provider, Local Alpha, Thompson Sampling, suggester, observability)
// from config and runs the query HTTP API until interrupted.
type ServeCmd struct {
	Port int `help:"Override the configured HTTP port (0 = use config)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	cfg, loader, err := config.LoadConfigFile(ctx, cli.configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	defer loader.Close()

	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	obsv, err := observability.NewManager(ctx, cfg.Observability.ToObservability())
	if err != nil {
		return fmt.Errorf("building observability manager: %w", err)
	}
	defer obsv.Shutdown(context.Background())

	repos, err := store.New(&cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer repos.Close()

	graph, snap, err := store.LoadGraph(ctx, repos, cfg.Embedder.Dimension)
	if err != nil {
		return fmt.Errorf("loading hypergraph: %w", err)
	}
	slog.Info("hypergraph loaded", "tools", snap.Stats.ToolCount, "capabilities", snap.Stats.CapabilityCount)

	emb, err := embedder.NewEmbedderFromConfig(&cfg.Embedder)
	if err != nil {
		return fmt.Errorf("building embedder: %w", err)
	}
	defer emb.Close()

	vecCfg := cfg.VectorStore.ToProviderConfig()
	vecCfg.SetDefaults()
	vectors, err := vector.NewProvider(vecCfg)
	if err != nil {
		return fmt.Errorf("building vector provider: %w", err)
	}
	defer vectors.Close()

	arbiter := thompson.New(&cfg.Thompson, uint64(cfg.Model.Seed))
	alpha := localalpha.New(&cfg.Alpha, arbiter)

	engine := suggester.New(&cfg.Suggester, &cfg.DAG, emb, vectors, alpha, arbiter).WithObservability(obsv)

	srv := server.New(&cfg.Server, engine, graph, snap, obsv)

	reloadCallback := func(newCfg *config.Config) {
		newRepos, err := store.New(&newCfg.Store)
		if err != nil {
			slog.Error("config reload: failed to open store", "err", err)
			return
		}
		defer newRepos.Close()
		newGraph, newSnap, err := store.LoadGraph(ctx, newRepos, cfg.Embedder.Dimension)
		if err != nil {
			slog.Error("config reload: failed to load hypergraph", "err", err)
			return
		}
		srv.Reload(newGraph, newSnap)
		slog.Info("hypergraph reloaded", "tools", newSnap.Stats.ToolCount)
	}
	watchLoader := config.NewLoader(loader.Provider(), config.WithOnChange(reloadCallback))
	go func() {
		if err := watchLoader.Watch(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("config watch ended", "err", err)
		}
	}()

	return srv.Start(ctx)
}
