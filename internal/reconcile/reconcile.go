// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile merges an externally supplied selection against
// the fetched candidate set, producing queue-ready idea records.
package reconcile

import (
	"strings"

	"github.com/pdiddy/idea-screener/pkg/types"
)

// Result holds the reconciled ideas and the row-level drop counts.
// Zero or partial matches are still a success; the counts let the
// caller report degradation.
type Result struct {
	Ideas []types.IdeaRecord

	// Unmatched counts selection entries whose ticker is not in the
	// candidate set.
	Unmatched int

	// DuplicateSelection counts repeated selection tickers; the first
	// occurrence wins, by analogy with queue dedup.
	DuplicateSelection int

	// EmptyThesis counts entries dropped for a missing thesis.
	EmptyThesis int
}

// Reconcile looks up each selection entry against the candidates by
// uppercase ticker and merges matches into IdeaRecords. The selection's
// thesis and ticker take precedence; descriptive fields are backfilled
// from the matched candidate. Results keep the selection's original
// order and are truncated to limit without re-sorting; the selector's
// ordering may encode judgment the reconciler cannot compute.
func Reconcile(candidates []types.CandidateRow, entries []types.SelectionEntry, limit int) Result {
	byTicker := make(map[string]types.CandidateRow, len(candidates))
	for _, c := range candidates {
		byTicker[strings.ToUpper(c.Ticker)] = c
	}

	var res Result
	seen := make(map[string]bool)

	for _, entry := range entries {
		ticker := strings.ToUpper(strings.TrimSpace(entry.Ticker))
		if ticker == "" {
			res.Unmatched++
			continue
		}
		if seen[ticker] {
			res.DuplicateSelection++
			continue
		}

		candidate, ok := byTicker[ticker]
		if !ok {
			res.Unmatched++
			continue
		}

		thesis := strings.TrimSpace(entry.Thesis)
		if thesis == "" {
			res.EmptyThesis++
			continue
		}
		seen[ticker] = true

		if limit > 0 && len(res.Ideas) >= limit {
			// Stable truncation: count the match, keep the first N.
			continue
		}

		res.Ideas = append(res.Ideas, types.IdeaRecord{
			Ticker:          ticker,
			ExchangeCountry: types.ExchangeCountryUS,
			Company:         firstNonEmpty(entry.Company, candidate.Company),
			Exchange:        firstNonEmpty(entry.Exchange, candidate.Exchange),
			Sector:          firstNonEmpty(entry.Sector, candidate.Sector),
			Industry:        firstNonEmpty(entry.Industry, candidate.Industry),
			Market:          firstNonEmpty(candidate.Market, "us"),
			Thesis:          thesis,
			Extra:           entry.Extra,
		})
	}
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
