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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kadirpekel/shgat/pkg/config"
	"github.com/kadirpekel/shgat/pkg/levelparams"
	"github.com/kadirpekel/shgat/pkg/shgat"
	"github.com/kadirpekel/shgat/pkg/store"
	"github.com/kadirpekel/shgat/pkg/trainer"
)

// TrainCmd runs mini-batch SGD (C5) over a JSONL file of labelled
// episodes, starting from either fresh (Xavier-initialised) or
// previously exported level/scorer parameters, and writes the trained
// parameters back out.
type TrainCmd struct {
	Episodes string `short:"e" required:"" help:"Path to a JSONL file of training episodes." type:"path"`

	LevelParamsIn  string `help:"Path to an existing exported levelparams.Params file (omit to initialise fresh)." type:"path"`
	LevelParamsOut string `help:"Path to write the trained levelparams.Params." type:"path" default:".shgat/params/level.bin"`
	ScorerParamsIn string `help:"Path to an existing exported shgat.QKParams file (omit to initialise fresh)." type:"path"`
	ScorerParamsOut string `help:"Path to write the trained shgat.QKParams." type:"path" default:".shgat/params/scorer.bin"`
}

// trainEpisode is the JSONL record shape read from Episodes.
type trainEpisode struct {
	Query        []float32 `json:"query"`
	CapabilityID string    `json:"capabilityId"`
	Label        float64   `json:"label"`
}

func (c *TrainCmd) Run(cli *CLI) error {
	ctx := context.Background()

	cfg, loader, err := config.LoadConfigFile(ctx, cli.configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	defer loader.Close()

	repos, err := store.New(&cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer repos.Close()

	graph, snap, err := store.LoadGraph(ctx, repos, cfg.Embedder.Dimension)
	if err != nil {
		return fmt.Errorf("loading hypergraph: %w", err)
	}
	if snap.Stats.ToolCount == 0 {
		return fmt.Errorf("hypergraph is empty; run bootstrap first")
	}

	levelParams, err := c.loadOrInitLevelParams(&cfg.Model, snap.Stats.MaxLevel)
	if err != nil {
		return err
	}

	qk, err := c.loadOrInitQK(&cfg.Model)
	if err != nil {
		return err
	}

	engine := shgat.NewEngine(levelParams, nil)
	cache, err := engine.Forward(ctx, graph, snap, nil)
	if err != nil {
		return fmt.Errorf("forward pass: %w", err)
	}

	episodes, err := readEpisodes(c.Episodes)
	if err != nil {
		return err
	}
	slog.Info("training episodes loaded", "count", len(episodes))

	t := trainer.New(&cfg.Trainer, qk)
	for epoch := 0; epoch < cfg.Trainer.Epochs; epoch++ {
		result, err := t.TrainEpoch(ctx, cache, &cfg.Model, episodes)
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		slog.Info("epoch complete",
			"epoch", epoch+1,
			"loss", result.FinalLoss,
			"accuracy", result.FinalAccuracy,
			"skippedInvalid", result.SkippedInvalid,
		)
		if result.Aborted {
			slog.Warn("epoch aborted: too many invalid examples", "epoch", epoch+1)
			break
		}
	}

	if err := writeFile(c.LevelParamsOut, levelParams.Export()); err != nil {
		return fmt.Errorf("writing level params: %w", err)
	}
	if err := writeFile(c.ScorerParamsOut, qk.Export()); err != nil {
		return fmt.Errorf("writing scorer params: %w", err)
	}
	slog.Info("training complete", "levelParams", c.LevelParamsOut, "scorerParams", c.ScorerParamsOut)
	return nil
}

func (c *TrainCmd) loadOrInitLevelParams(modelCfg *config.ModelConfig, maxLevel int) (*levelparams.Params, error) {
	if c.LevelParamsIn == "" {
		return levelparams.Initialize(modelCfg, maxLevel), nil
	}
	data, err := os.ReadFile(c.LevelParamsIn)
	if err != nil {
		return nil, fmt.Errorf("reading level params: %w", err)
	}
	p, err := levelparams.Import(data)
	if err != nil {
		return nil, fmt.Errorf("importing level params: %w", err)
	}
	return p, nil
}

func (c *TrainCmd) loadOrInitQK(modelCfg *config.ModelConfig) (*shgat.QKParams, error) {
	if c.ScorerParamsIn == "" {
		return shgat.InitQK(modelCfg), nil
	}
	data, err := os.ReadFile(c.ScorerParamsIn)
	if err != nil {
		return nil, fmt.Errorf("reading scorer params: %w", err)
	}
	qk, err := shgat.ImportQK(data)
	if err != nil {
		return nil, fmt.Errorf("importing scorer params: %w", err)
	}
	return qk, nil
}

func readEpisodes(path string) ([]trainer.Episode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening episodes file: %w", err)
	}
	defer f.Close()

	var episodes []trainer.Episode
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec trainEpisode
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing episode line: %w", err)
		}
		episodes = append(episodes, trainer.Episode{
			Query:        rec.Query,
			CapabilityID: rec.CapabilityID,
			Label:        rec.Label,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading episodes file: %w", err)
	}
	return episodes, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %q: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
