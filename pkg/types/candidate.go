// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the idea-screener pipeline.
package types

// Metric keys produced by the candidate source adapter. Absence of a key
// in CandidateRow.Metrics means the screener did not report that value.
const (
	MetricMarketCapUSD    = "market_cap_usd"
	MetricPE              = "pe"
	MetricForwardPE       = "forward_pe"
	MetricPriceToBook     = "price_to_book"
	MetricROEPct          = "roe_pct"
	MetricROICPct         = "roic_pct"
	MetricOperatingMargin = "operating_margin_pct"
	MetricProfitMargin    = "profit_margin_pct"
	MetricDebtToEquity    = "debt_to_equity"
	MetricEPSNext5YPct    = "eps_next_5y_pct"
)

// CandidateRow is one raw screener result. Rows are immutable once
// produced by the source adapter.
type CandidateRow struct {
	Ticker   string             `json:"ticker" yaml:"ticker"`
	Company  string             `json:"company,omitempty" yaml:"company,omitempty"`
	Exchange string             `json:"exchange,omitempty" yaml:"exchange,omitempty"`
	Sector   string             `json:"sector,omitempty" yaml:"sector,omitempty"`
	Industry string             `json:"industry,omitempty" yaml:"industry,omitempty"`
	Market   string             `json:"market,omitempty" yaml:"market,omitempty"`
	Metrics  map[string]float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Metric returns the named metric and whether the screener reported it.
func (r CandidateRow) Metric(key string) (float64, bool) {
	v, ok := r.Metrics[key]
	return v, ok
}

// CandidatePayload is the ephemeral sidecar written after a fetch. It is
// an intermediate artifact, not a durable contract.
type CandidatePayload struct {
	Meta       CandidateMeta  `json:"meta"`
	Candidates []CandidateRow `json:"candidates"`
}

// CandidateMeta describes how the candidate universe was assembled.
type CandidateMeta struct {
	RunID          string         `json:"run_id"`
	Exchanges      []string       `json:"exchanges"`
	PagesRequested int            `json:"pages_requested"`
	PagesFetched   int            `json:"pages_fetched"`
	DroppedPages   map[string]int `json:"dropped_pages,omitempty"`
	RequestedAt    string         `json:"requested_at"`
}
