// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/idea-screener/internal/history"
	"github.com/pdiddy/idea-screener/internal/prefs"
	"github.com/pdiddy/idea-screener/pkg/types"
)

const testRunID = "2026-08-25-143000"

func fixedNow() time.Time {
	return time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
}

// writeSidecar seeds a run directory with a fetched-candidate sidecar,
// as a prior fetch-only run would have left it.
func writeSidecar(t *testing.T, screensDir, runID string, rows []types.CandidateRow) string {
	t.Helper()
	dir := filepath.Join(screensDir, runID)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	payload := types.CandidatePayload{
		Meta: types.CandidateMeta{
			RunID:          runID,
			Exchanges:      []string{"NASDAQ", "NYSE", "AMEX"},
			PagesRequested: 2,
			PagesFetched:   2,
			RequestedAt:    fixedNow().Format(time.RFC3339),
		},
		Candidates: rows,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, CandidatesFilename)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeSelection(t *testing.T, dir string, entries string) string {
	t.Helper()
	path := filepath.Join(dir, "selection.json")
	require.NoError(t, os.WriteFile(path, []byte(entries), 0o644))
	return path
}

func sampleRows() []types.CandidateRow {
	return []types.CandidateRow{
		{Ticker: "AAPL", Company: "Apple Inc.", Exchange: "NASDAQ", Sector: "Technology", Industry: "Consumer Electronics", Market: "us"},
		{Ticker: "JPM", Company: "JPMorgan Chase", Exchange: "NYSE", Sector: "Financial", Industry: "Banks - Diversified", Market: "us"},
	}
}

func TestRunAppend(t *testing.T) {
	screensDir := t.TempDir()
	sidecar := writeSidecar(t, screensDir, testRunID, sampleRows())
	selection := writeSelection(t, t.TempDir(), `{"ideas": [
		{"ticker": "AAPL", "thesis": "Ecosystem moat."},
		{"ticker": "ZZZZ", "thesis": "Not in the universe."}
	]}`)

	var buf bytes.Buffer
	summary, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
		Config:        types.PipelineConfig{ScreensDir: screensDir},
		RunID:         testRunID,
		SelectionPath: selection,
		SkipFetch:     true,
	}, &buf)
	require.NoError(t, err)

	assert.Equal(t, testRunID, summary.RunID)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Reconciled)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, 1, summary.UnmatchedSelection)
	assert.Zero(t, summary.SkippedDuplicate)

	data, err := os.ReadFile(summary.QueuePath)
	require.NoError(t, err)
	var rec types.IdeaRecord
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "AAPL", rec.Ticker)
	assert.Equal(t, "US", rec.ExchangeCountry)
	assert.Equal(t, "Apple Inc.", rec.Company)
	assert.Equal(t, "Ecosystem moat.", rec.Thesis)

	// The sidecar is an ephemeral artifact on a successful run.
	_, statErr := os.Stat(sidecar)
	assert.True(t, os.IsNotExist(statErr), "sidecar should be cleaned up")
	// The selection file lives outside the run directory and is never
	// touched.
	_, statErr = os.Stat(selection)
	assert.NoError(t, statErr)

	assert.Contains(t, buf.String(), "did not match any candidate")
}

func TestRunAppendIsIdempotent(t *testing.T) {
	screensDir := t.TempDir()
	writeSidecar(t, screensDir, testRunID, sampleRows())
	selection := writeSelection(t, t.TempDir(), `[{"ticker": "AAPL", "thesis": "t"}]`)

	req := Request{
		Config:        types.PipelineConfig{ScreensDir: screensDir, KeepArtifacts: true},
		RunID:         testRunID,
		SelectionPath: selection,
		SkipFetch:     true,
	}

	var buf bytes.Buffer
	first, err := Run(context.Background(), Deps{Now: fixedNow}, req, &buf)
	require.NoError(t, err)
	require.Equal(t, 1, first.Written)

	second, err := Run(context.Background(), Deps{Now: fixedNow}, req, &buf)
	require.NoError(t, err)
	assert.Zero(t, second.Written)
	assert.Equal(t, 1, second.SkippedDuplicate)

	data, err := os.ReadFile(second.QueuePath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"), "queue must hold a single line")
}

func TestRunKeepArtifacts(t *testing.T) {
	screensDir := t.TempDir()
	sidecar := writeSidecar(t, screensDir, testRunID, sampleRows())
	selection := writeSelection(t, t.TempDir(), `[{"ticker": "JPM", "thesis": "t"}]`)

	var buf bytes.Buffer
	_, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
		Config:        types.PipelineConfig{ScreensDir: screensDir, KeepArtifacts: true},
		RunID:         testRunID,
		SelectionPath: selection,
		SkipFetch:     true,
	}, &buf)
	require.NoError(t, err)

	_, statErr := os.Stat(sidecar)
	assert.NoError(t, statErr, "keep-artifacts retains the sidecar")
}

func TestRunSelectionFromStdin(t *testing.T) {
	screensDir := t.TempDir()
	writeSidecar(t, screensDir, testRunID, sampleRows())

	var buf bytes.Buffer
	summary, err := Run(context.Background(), Deps{
		Now:   fixedNow,
		Stdin: strings.NewReader(`[{"ticker": "AAPL", "thesis": "t"}]`),
	}, Request{
		Config:        types.PipelineConfig{ScreensDir: screensDir},
		RunID:         testRunID,
		SelectionPath: "-",
		SkipFetch:     true,
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Written)
}

func TestRunIdeaLimit(t *testing.T) {
	screensDir := t.TempDir()
	writeSidecar(t, screensDir, testRunID, sampleRows())
	selection := writeSelection(t, t.TempDir(), `[
		{"ticker": "JPM", "thesis": "a"},
		{"ticker": "AAPL", "thesis": "b"}
	]`)

	var buf bytes.Buffer
	summary, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
		Config:        types.PipelineConfig{ScreensDir: screensDir, IdeaLimit: 1},
		RunID:         testRunID,
		SelectionPath: selection,
		SkipFetch:     true,
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Reconciled)
	assert.Equal(t, 1, summary.Written)
}

func TestRunConfigurationErrors(t *testing.T) {
	t.Run("invalid run id", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
			Config: types.PipelineConfig{ScreensDir: t.TempDir()},
			RunID:  "not-a-run-id",
		}, &buf)
		require.Error(t, err)
	})

	t.Run("append without run id", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
			Config:    types.PipelineConfig{ScreensDir: t.TempDir()},
			SkipFetch: true,
		}, &buf)
		require.Error(t, err)
	})

	t.Run("append without a prior fetch", func(t *testing.T) {
		var buf bytes.Buffer
		deps := Deps{Now: fixedNow, Stdin: strings.NewReader(`[{"ticker": "AAPL", "thesis": "t"}]`)}
		_, err := Run(context.Background(), deps, Request{
			Config:        types.PipelineConfig{ScreensDir: t.TempDir()},
			RunID:         testRunID,
			SelectionPath: "-",
			SkipFetch:     true,
		}, &buf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run the fetch first")
	})

	t.Run("malformed selection surfaces before any write", func(t *testing.T) {
		screensDir := t.TempDir()
		writeSidecar(t, screensDir, testRunID, sampleRows())
		selection := writeSelection(t, t.TempDir(), `not json`)

		var buf bytes.Buffer
		summary, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
			Config:        types.PipelineConfig{ScreensDir: screensDir},
			RunID:         testRunID,
			SelectionPath: selection,
			SkipFetch:     true,
		}, &buf)
		require.Error(t, err)
		_, statErr := os.Stat(filepath.Join(screensDir, testRunID, "screener-results.jsonl"))
		assert.True(t, os.IsNotExist(statErr), "no queue file after a config error")
		assert.Equal(t, testRunID, summary.RunID)
	})
}

func TestRunMarketExcluded(t *testing.T) {
	screensDir := t.TempDir()
	writeSidecar(t, screensDir, testRunID, sampleRows())
	prefsPath := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(prefsPath, []byte("market_guardrail:\n  deny: [US]\n"), 0o644))
	selection := writeSelection(t, t.TempDir(), `[{"ticker": "AAPL", "thesis": "t"}]`)

	var buf bytes.Buffer
	_, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
		Config: types.PipelineConfig{
			ScreensDir:      screensDir,
			PreferencesPath: prefsPath,
		},
		RunID:         testRunID,
		SelectionPath: selection,
		SkipFetch:     true,
	}, &buf)
	var mex *prefs.MarketExcludedError
	require.ErrorAs(t, err, &mex)

	// The bypass turns the policy stop into a normal run.
	summary, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
		Config: types.PipelineConfig{
			ScreensDir:        screensDir,
			PreferencesPath:   prefsPath,
			IgnorePreferences: true,
		},
		RunID:         testRunID,
		SelectionPath: selection,
		SkipFetch:     true,
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Written)
}

func TestRunSectorPreferenceGatesIdeas(t *testing.T) {
	screensDir := t.TempDir()
	writeSidecar(t, screensDir, testRunID, sampleRows())
	prefsPath := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(prefsPath, []byte("sector_filters:\n  deny: [Financial]\n"), 0o644))
	selection := writeSelection(t, t.TempDir(), `[
		{"ticker": "AAPL", "thesis": "a"},
		{"ticker": "JPM", "thesis": "b"}
	]`)

	var buf bytes.Buffer
	summary, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
		Config: types.PipelineConfig{
			ScreensDir:      screensDir,
			PreferencesPath: prefsPath,
		},
		RunID:         testRunID,
		SelectionPath: selection,
		SkipFetch:     true,
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Reconciled)
	assert.Equal(t, 1, summary.Written, "denied sector must not reach the queue")
}

func TestRunRecordsHistory(t *testing.T) {
	screensDir := t.TempDir()
	writeSidecar(t, screensDir, testRunID, sampleRows())
	selection := writeSelection(t, t.TempDir(), `[{"ticker": "AAPL", "thesis": "Ecosystem moat."}]`)

	store, err := history.Open(screensDir, types.HistoryConfig{})
	require.NoError(t, err)
	defer store.Close()

	var buf bytes.Buffer
	_, err = Run(context.Background(), Deps{Now: fixedNow, History: store}, Request{
		Config:        types.PipelineConfig{ScreensDir: screensDir},
		RunID:         testRunID,
		SelectionPath: selection,
		SkipFetch:     true,
	}, &buf)
	require.NoError(t, err)

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, testRunID, runs[0].ID)
	assert.Equal(t, 1, runs[0].Written)
}

func TestRunFetchOnlyRetainsSidecar(t *testing.T) {
	// Fetch-only is exercised through the skip-fetch read path: a run
	// with no selection returns after the candidate stage and leaves
	// the sidecar in place for a later append.
	screensDir := t.TempDir()
	sidecar := writeSidecar(t, screensDir, testRunID, sampleRows())

	var buf bytes.Buffer
	summary, err := Run(context.Background(), Deps{Now: fixedNow}, Request{
		Config:    types.PipelineConfig{ScreensDir: screensDir},
		RunID:     testRunID,
		SkipFetch: true,
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Fetched)
	assert.Zero(t, summary.Written)

	_, statErr := os.Stat(sidecar)
	assert.NoError(t, statErr, "fetch-only keeps the sidecar")
	_, statErr = os.Stat(summary.QueuePath)
	assert.True(t, os.IsNotExist(statErr), "fetch-only writes no queue")
}
