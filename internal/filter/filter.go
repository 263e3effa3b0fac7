// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter applies numeric quality/value threshold gates to
// candidate rows. Filtering is pure: the same rows and thresholds
// always yield the same output, in input order.
package filter

import "github.com/pdiddy/idea-screener/pkg/types"

// Apply returns the rows passing every active threshold. A row missing
// a metric referenced by an active threshold is excluded: absence of
// data is not evidence of quality.
func Apply(rows []types.CandidateRow, t types.Thresholds) []types.CandidateRow {
	if !t.Active() {
		return rows
	}

	kept := make([]types.CandidateRow, 0, len(rows))
	for _, row := range rows {
		if passes(row, t) {
			kept = append(kept, row)
		}
	}
	return kept
}

func passes(row types.CandidateRow, t types.Thresholds) bool {
	if t.MinMarketCapB != nil {
		cap, ok := row.Metric(types.MetricMarketCapUSD)
		if !ok || cap < *t.MinMarketCapB*1e9 {
			return false
		}
	}
	if t.MaxPE != nil {
		// Negative or missing P/E fails a max-PE gate: "cheap because
		// unprofitable" is not a value signal.
		pe, ok := row.Metric(types.MetricPE)
		if !ok || pe <= 0 || pe > *t.MaxPE {
			return false
		}
	}
	if !atLeast(row, types.MetricROEPct, t.MinROE) {
		return false
	}
	if !atLeast(row, types.MetricROICPct, t.MinROIC) {
		return false
	}
	if !atLeast(row, types.MetricOperatingMargin, t.MinOperatingMargin) {
		return false
	}
	if !atLeast(row, types.MetricProfitMargin, t.MinProfitMargin) {
		return false
	}
	if t.MaxDebtToEquity != nil {
		de, ok := row.Metric(types.MetricDebtToEquity)
		if !ok || de > *t.MaxDebtToEquity {
			return false
		}
	}
	return true
}

// atLeast checks a metric >= min gate; a nil min is not enforced.
func atLeast(row types.CandidateRow, key string, min *float64) bool {
	if min == nil {
		return true
	}
	v, ok := row.Metric(key)
	return ok && v >= *min
}
