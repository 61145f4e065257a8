// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/copysnip/cmd/copysnip/commands"
	"github.com/walteh/copysnip/cmd/copysnip/opts"
	"github.com/walteh/copysnip/pkg/config"
	"github.com/walteh/copysnip/pkg/log"
	"github.com/walteh/copysnip/pkg/storage"
)

var (
	configFile string
	debug      bool
)

func main() {
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "copysnip",
		Short: "Snippet rendering and catalog management for the copysnip extension",
		Long: `copysnip hosts the snippet-rendering pipeline outside the browser:
a daemon bridging the page context over WebSocket, plus import/export
tooling for snippet and transform-rule catalogs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initRootOpts(cmd, rootOpts)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".copysnip.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(
		commands.NewServeCmd(rootOpts),
		commands.NewImportCmd(rootOpts),
		commands.NewExportCmd(rootOpts),
		commands.NewRenderCmd(rootOpts),
		commands.NewVersionCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if rootOpts.UserLogger != nil {
			rootOpts.UserLogger.Errorf("command failed: %v", err)
		}
		os.Exit(1)
	}
}

// initRootOpts runs after flag parsing: it sets up logging on the command
// context, loads config and opens the catalog store shared by all commands.
func initRootOpts(cmd *cobra.Command, rootOpts *opts.RootOpts) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logLevel := zerolog.InfoLevel
	if debug || cfg.Debug {
		logLevel = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(logLevel).With().Timestamp().Logger()

	userLogger := log.New(os.Stdout, logLevel)
	ctx := log.NewContext(logger.WithContext(cmd.Context()), userLogger)
	cmd.SetContext(ctx)

	var store storage.Store
	if cfg.StorePath != "" {
		fileStore, err := storage.NewFile(cfg.StorePath)
		if err != nil {
			return err
		}
		store = fileStore
	} else {
		store = storage.NewMemory()
	}

	rootOpts.Config = cfg
	rootOpts.Store = store
	rootOpts.UserLogger = userLogger
	return nil
}
