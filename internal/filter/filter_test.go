// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"testing"

	"github.com/pdiddy/idea-screener/pkg/types"
)

func fptr(v float64) *float64 { return &v }

func row(ticker string, metrics map[string]float64) types.CandidateRow {
	return types.CandidateRow{Ticker: ticker, Metrics: metrics}
}

func tickers(rows []types.CandidateRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Ticker)
	}
	return out
}

func TestApplyInactiveThresholdsPassEverything(t *testing.T) {
	rows := []types.CandidateRow{
		row("AAA", nil),
		row("BBB", map[string]float64{types.MetricPE: -3}),
	}
	got := Apply(rows, types.Thresholds{})
	if len(got) != 2 {
		t.Fatalf("got %d rows, want all 2", len(got))
	}
}

func TestApplyThresholds(t *testing.T) {
	rows := []types.CandidateRow{
		row("GOOD", map[string]float64{
			types.MetricMarketCapUSD: 50e9,
			types.MetricPE:           18,
			types.MetricROEPct:       22,
			types.MetricDebtToEquity: 0.4,
		}),
		row("PRICY", map[string]float64{
			types.MetricMarketCapUSD: 80e9,
			types.MetricPE:           35,
			types.MetricROEPct:       30,
			types.MetricDebtToEquity: 0.2,
		}),
		row("LOSSY", map[string]float64{
			types.MetricMarketCapUSD: 60e9,
			types.MetricPE:           -12,
			types.MetricROEPct:       25,
			types.MetricDebtToEquity: 0.3,
		}),
		row("SMALL", map[string]float64{
			types.MetricMarketCapUSD: 2e9,
			types.MetricPE:           15,
			types.MetricROEPct:       20,
			types.MetricDebtToEquity: 0.1,
		}),
		row("NODATA", map[string]float64{
			types.MetricMarketCapUSD: 90e9,
			types.MetricPE:           12,
		}),
	}

	tests := []struct {
		name string
		t    types.Thresholds
		want []string
	}{
		{
			name: "max pe excludes expensive and unprofitable",
			t:    types.Thresholds{MaxPE: fptr(20)},
			want: []string{"GOOD", "SMALL", "NODATA"},
		},
		{
			name: "min roe excludes rows missing the metric",
			t:    types.Thresholds{MinROE: fptr(15)},
			want: []string{"GOOD", "PRICY", "LOSSY", "SMALL"},
		},
		{
			name: "min market cap in billions",
			t:    types.Thresholds{MinMarketCapB: fptr(10)},
			want: []string{"GOOD", "PRICY", "LOSSY", "NODATA"},
		},
		{
			name: "combined gates intersect",
			t:    types.Thresholds{MinMarketCapB: fptr(10), MaxPE: fptr(20), MinROE: fptr(15)},
			want: []string{"GOOD"},
		},
		{
			name: "max debt to equity",
			t:    types.Thresholds{MaxDebtToEquity: fptr(0.35)},
			want: []string{"PRICY", "LOSSY", "SMALL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tickers(Apply(rows, tt.t))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	rows := []types.CandidateRow{
		row("C", map[string]float64{types.MetricROEPct: 30}),
		row("A", map[string]float64{types.MetricROEPct: 25}),
		row("B", map[string]float64{types.MetricROEPct: 5}),
		row("D", map[string]float64{types.MetricROEPct: 40}),
	}
	got := tickers(Apply(rows, types.Thresholds{MinROE: fptr(10)}))
	want := []string{"C", "A", "D"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want input-order %v", got, want)
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	rows := []types.CandidateRow{
		row("A", map[string]float64{types.MetricPE: 10}),
		row("B", map[string]float64{types.MetricPE: 50}),
	}
	Apply(rows, types.Thresholds{MaxPE: fptr(20)})
	if rows[0].Ticker != "A" || rows[1].Ticker != "B" {
		t.Error("input slice mutated")
	}
}

func TestApplyMarginGates(t *testing.T) {
	rows := []types.CandidateRow{
		row("WIDE", map[string]float64{
			types.MetricOperatingMargin: 28,
			types.MetricProfitMargin:    19,
			types.MetricROICPct:         14,
		}),
		row("THIN", map[string]float64{
			types.MetricOperatingMargin: 6,
			types.MetricProfitMargin:    2,
			types.MetricROICPct:         4,
		}),
	}
	got := tickers(Apply(rows, types.Thresholds{
		MinOperatingMargin: fptr(10),
		MinProfitMargin:    fptr(5),
		MinROIC:            fptr(8),
	}))
	if len(got) != 1 || got[0] != "WIDE" {
		t.Fatalf("got %v, want [WIDE]", got)
	}
}
