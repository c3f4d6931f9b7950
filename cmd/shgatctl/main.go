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

// Command shgatctl operates a SHGAT capability-retrieval deployment.
//
// Usage:
//
//	shgatctl bootstrap --file tools.yaml --config shgat.yaml
//	shgatctl serve --config shgat.yaml
//	shgatctl train --episodes episodes.jsonl --config shgat.yaml
//	shgatctl validate --config shgat.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/shgat/pkg/logger"
	"github.com/kadirpekel/shgat/pkg/utils"
)

// CLI defines the command-line interface.
type CLI struct {
	Version   VersionCmd   `cmd:"" help:"Show version information."`
	Validate  ValidateCmd  `cmd:"" help:"Validate a configuration file."`
	Bootstrap BootstrapCmd `cmd:"" help:"Load tools/capabilities from YAML and commit the hypergraph."`
	Serve     ServeCmd     `cmd:"" help:"Start the suggestDAG query HTTP API."`
	Train     TrainCmd     `cmd:"" help:"Run mini-batch SGD over a labelled episode file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)." type:"path"`
	LogFormat string `help:"Log format (simple or verbose; any other value uses slog's plain text format)." default:"text"`
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("shgatctl version %s\n", version)
	return nil
}

func (cli *CLI) configPath() string {
	if cli.Config != "" {
		return cli.Config
	}
	return utils.DefaultConfigPath()
}

func initLoggerFromCLI(cli *CLI) (func(), error) {
	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cli.LogLevel, err)
	}

	output := os.Stderr
	cleanup := func() {}
	if cli.LogFile != "" {
		f, closeFn, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		output = f
		cleanup = closeFn
	}

	logger.Init(level, output, cli.LogFormat)
	return cleanup, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("shgatctl"),
		kong.Description("Operate a SHGAT capability-retrieval deployment."),
		kong.UsageOnError(),
	)

	cleanup, err := initLoggerFromCLI(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	if err := ctx.Run(&cli); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
