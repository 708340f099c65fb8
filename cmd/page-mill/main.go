// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the page-mill CLI: batch conversion
// of URL lists into Markdown and JSON artifacts, with domain-grouped
// webhook reporting.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/page-mill/internal/logging"
	"github.com/pdiddy/page-mill/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is the process logger, built in the root PersistentPreRunE before
// any subcommand runs.
var logger zerolog.Logger

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the page-mill CLI.
var rootCmd = &cobra.Command{
	Use:   "page-mill",
	Short: "Batch-convert URL lists into Markdown and JSON artifacts",
	Long: `page-mill converts a list of URLs into Markdown and JSON files, one
isolated worker process per URL with a hard wall-clock deadline, then
reports per-URL outcomes grouped by primary domain to an optional webhook.

The work list lives in a line-delimited file (urls.txt by default).
Configuration comes from flags, page-mill.yaml, PAGE_MILL_* environment
variables, and a local .env file, in that order of precedence.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		file, _ := cmd.Flags().GetString("log-file")
		logger = logging.New(level, format, file)

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./page-mill.yaml or ~/.config/page-mill/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", logging.FormatConsole, "log format: console or json")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file (rotated)")
}

func initConfig() {
	// Deployment settings live in a local .env file; merge it into the
	// environment before viper reads anything.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("page-mill")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "page-mill"))
		}
	}

	viper.SetEnvPrefix("PAGE_MILL")
	viper.AutomaticEnv()

	// Legacy .env keys from the deployment this tool replaced.
	viper.BindEnv("dest_dir", "PAGE_MILL_DEST_DIR", "dir_save")
	viper.BindEnv("webhook_url", "PAGE_MILL_WEBHOOK_URL", "webhook_notification")
	viper.BindEnv("mode", "PAGE_MILL_MODE", "mode")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
