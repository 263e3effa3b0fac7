// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that talk to the
// external screener source.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with screener requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// AuthToken, when set, is sent as a screener session cookie for
	// elevated access. Loaded from .secrets/, never from config files.
	AuthToken string `json:"-" yaml:"-"`
}

// FetchConfig holds settings for the candidate source adapter.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Exchanges is the exchange scope (default NASDAQ, NYSE, AMEX).
	Exchanges []string `json:"exchanges" yaml:"exchanges"`

	// MaxPagesPerExchange bounds pagination per exchange (default 4).
	MaxPagesPerExchange int `json:"max_pages_per_exchange" yaml:"max_pages_per_exchange"`

	// RequestDelay is the minimum pause between consecutive HTTP
	// requests to the source (default 200ms).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// CandidateLimit caps the merged candidate universe (default 150).
	CandidateLimit int `json:"candidate_limit" yaml:"candidate_limit"`

	// MaxPageRetries bounds per-page retry attempts (default 3).
	MaxPageRetries int `json:"max_page_retries" yaml:"max_page_retries"`
}

// Thresholds is the quality/value gate configuration. A nil field means
// that threshold is not enforced.
type Thresholds struct {
	// MinMarketCapB keeps rows with market cap >= this many billions USD.
	MinMarketCapB *float64 `json:"min_market_cap_b,omitempty" yaml:"min_market_cap_b,omitempty"`

	// MaxPE keeps rows whose trailing P/E is present, positive, and
	// <= this value. Negative or missing P/E fails the gate.
	MaxPE *float64 `json:"max_pe,omitempty" yaml:"max_pe,omitempty"`

	// MinROE keeps rows with ROE (percent) >= this value.
	MinROE *float64 `json:"min_roe,omitempty" yaml:"min_roe,omitempty"`

	// MinROIC keeps rows with ROIC (percent) >= this value.
	MinROIC *float64 `json:"min_roic,omitempty" yaml:"min_roic,omitempty"`

	// MinOperatingMargin keeps rows with operating margin (percent) >= this value.
	MinOperatingMargin *float64 `json:"min_operating_margin,omitempty" yaml:"min_operating_margin,omitempty"`

	// MinProfitMargin keeps rows with profit margin (percent) >= this value.
	MinProfitMargin *float64 `json:"min_profit_margin,omitempty" yaml:"min_profit_margin,omitempty"`

	// MaxDebtToEquity keeps rows with debt-to-equity <= this value.
	MaxDebtToEquity *float64 `json:"max_debt_to_equity,omitempty" yaml:"max_debt_to_equity,omitempty"`
}

// Active reports whether any threshold is enforced.
func (t Thresholds) Active() bool {
	return t.MinMarketCapB != nil || t.MaxPE != nil || t.MinROE != nil ||
		t.MinROIC != nil || t.MinOperatingMargin != nil ||
		t.MinProfitMargin != nil || t.MaxDebtToEquity != nil
}

// HistoryConfig holds settings for the screen-history index.
type HistoryConfig struct {
	// Disabled skips history recording entirely.
	Disabled bool `json:"disabled" yaml:"disabled"`

	// MaxResults is the default cap for history queries (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups the settings for one screening run.
type PipelineConfig struct {
	Fetch      FetchConfig `json:"fetch" yaml:"fetch"`
	Thresholds Thresholds  `json:"thresholds" yaml:"thresholds"`

	// ScreensDir is the root directory under which per-run artifact
	// directories live (default "idea-screens").
	ScreensDir string `json:"screens_dir" yaml:"screens_dir"`

	// IdeaLimit caps reconciled ideas per run (default 25).
	IdeaLimit int `json:"idea_limit" yaml:"idea_limit"`

	// PreferencesPath locates the preferences document. Empty means no
	// document; a missing file at a set path is a configuration error.
	PreferencesPath string `json:"preferences_path" yaml:"preferences_path"`

	// IgnorePreferences bypasses the preference enforcer entirely.
	IgnorePreferences bool `json:"ignore_preferences" yaml:"ignore_preferences"`

	// KeepArtifacts retains sidecar artifacts after a successful run.
	KeepArtifacts bool `json:"keep_artifacts" yaml:"keep_artifacts"`

	History HistoryConfig `json:"history" yaml:"history"`
}
