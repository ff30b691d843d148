/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"murmur/internal/config"
	"murmur/internal/logger"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "murmur",
		Short: "murmur analyzes YouTube music video comments.",
		Long: `murmur fetches the public comments of one or more YouTube videos, labels each
comment with language, sentiment, emotion, context and keywords using an LLM,
and writes per-video JSON artifacts plus a Portuguese Markdown/HTML report.

Examples:
  murmur analyze dQw4w9WgXcQ
  murmur analyze https://youtu.be/dQw4w9WgXcQ --max-comments 100 --order time
  murmur report dQw4w9WgXcQ
  murmur serve --port 8080`,
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.murmur.yaml)")

	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewReportCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewCacheCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if cfg.App.Debug {
		level = "debug"
	}
	logger.Configure(logger.Options{Level: level, Format: cfg.Logging.Format})

	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
}
