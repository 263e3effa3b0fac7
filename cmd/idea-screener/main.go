// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the idea-screener CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/idea-screener/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// screenerSecrets holds optional screener credentials loaded from
// .secrets/ at startup.
var screenerSecrets secrets.Screener

// rootCmd is the base command for the idea-screener CLI.
var rootCmd = &cobra.Command{
	Use:   "idea-screener",
	Short: "Candidate-to-queue reconciliation for equity investment ideas",
	Long: `idea-screener fetches a broad US candidate universe from the external
stock screener, applies quality and preference gates, reconciles an
externally supplied selection against it, and appends the surviving
idea records to an append-only per-run queue file
(screener-results.jsonl) for downstream research tooling.

Each stage is a subcommand: fetch retrieves candidates only, screen
runs the full pipeline, append reconciles a selection against an
existing run, and history queries past runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		screenerSecrets = s
		if s.AuthToken != "" {
			fmt.Fprintln(os.Stderr, "Loaded screener auth token")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./idea-screener.yaml or ~/.config/idea-screener/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("idea-screener")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "idea-screener"))
		}
	}

	viper.SetDefault("screens_dir", "idea-screens")
	viper.SetDefault("preferences_path", "")

	viper.SetEnvPrefix("IDEA_SCREENER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
