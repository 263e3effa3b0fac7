// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/idea-screener/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultDelay     = 200 * time.Millisecond
	defaultUserAgent = "idea-screener/0.1"
)

// addFetchFlags registers the candidate source flags.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().String("exchanges", "", "comma-separated exchange scope (default NASDAQ,NYSE,AMEX)")
	cmd.Flags().Int("max-pages", 4, "screener pages to scan per exchange")
	cmd.Flags().Duration("request-delay", defaultDelay, "minimum delay between screener requests")
	cmd.Flags().Int("limit", 150, "maximum candidates to keep")
	cmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
}

// addThresholdFlags registers the quality/value gate flags. A flag left
// unset leaves that threshold unenforced.
func addThresholdFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("min-market-cap-b", 0, "keep rows with market cap >= this many billions USD")
	cmd.Flags().Float64("max-pe", 0, "keep rows with positive trailing P/E <= this value")
	cmd.Flags().Float64("min-roe", 0, "keep rows with ROE percent >= this value")
	cmd.Flags().Float64("min-roic", 0, "keep rows with ROIC percent >= this value")
	cmd.Flags().Float64("min-operating-margin", 0, "keep rows with operating margin percent >= this value")
	cmd.Flags().Float64("min-profit-margin", 0, "keep rows with profit margin percent >= this value")
	cmd.Flags().Float64("max-debt-to-equity", 0, "keep rows with debt-to-equity <= this value")
}

// addRunFlags registers the run-scope and preference flags.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("screens-dir", "", "root directory for per-run artifacts (default idea-screens)")
	cmd.Flags().String("run-id", "", "run id in strict format YYYY-MM-DD-HHMMSS (default: minted)")
	cmd.Flags().String("preferences", "", "path to the user preferences document")
	cmd.Flags().Bool("ignore-preferences", false, "bypass the preference enforcer entirely")
	cmd.Flags().Bool("no-history", false, "skip recording the run in the history index")
}

// floatPtr returns the flag value when the user set it, nil otherwise.
func floatPtr(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

// pipelineConfig assembles a PipelineConfig from flags, the config
// file, and loaded secrets.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("request-delay")
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	limit, _ := cmd.Flags().GetInt("limit")
	ideaLimit, _ := cmd.Flags().GetInt("idea-limit")

	var exchanges []string
	if raw, _ := cmd.Flags().GetString("exchanges"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				exchanges = append(exchanges, name)
			}
		}
	}

	userAgent := defaultUserAgent
	if screenerSecrets.UserAgent != "" {
		userAgent = screenerSecrets.UserAgent
	}

	screensDir, _ := cmd.Flags().GetString("screens-dir")
	if screensDir == "" {
		screensDir = viper.GetString("screens_dir")
	}
	prefsPath, _ := cmd.Flags().GetString("preferences")
	if prefsPath == "" {
		prefsPath = viper.GetString("preferences_path")
	}
	ignorePrefs, _ := cmd.Flags().GetBool("ignore-preferences")
	keep, _ := cmd.Flags().GetBool("keep-artifacts")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	return types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: userAgent,
				AuthToken: screenerSecrets.AuthToken,
			},
			Exchanges:           exchanges,
			MaxPagesPerExchange: maxPages,
			RequestDelay:        delay,
			CandidateLimit:      limit,
		},
		Thresholds: types.Thresholds{
			MinMarketCapB:      floatPtr(cmd, "min-market-cap-b"),
			MaxPE:              floatPtr(cmd, "max-pe"),
			MinROE:             floatPtr(cmd, "min-roe"),
			MinROIC:            floatPtr(cmd, "min-roic"),
			MinOperatingMargin: floatPtr(cmd, "min-operating-margin"),
			MinProfitMargin:    floatPtr(cmd, "min-profit-margin"),
			MaxDebtToEquity:    floatPtr(cmd, "max-debt-to-equity"),
		},
		ScreensDir:        screensDir,
		IdeaLimit:         ideaLimit,
		PreferencesPath:   prefsPath,
		IgnorePreferences: ignorePrefs,
		KeepArtifacts:     keep,
		History:           types.HistoryConfig{Disabled: noHistory},
	}
}
