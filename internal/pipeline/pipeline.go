// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one screening run: fetch, quality filter,
// preference gates, selection reconciliation, queue append, history
// recording, and artifact cleanup. Stages run strictly in sequence;
// only the fetch may pause for externally bounded time.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/idea-screener/internal/filter"
	"github.com/pdiddy/idea-screener/internal/history"
	"github.com/pdiddy/idea-screener/internal/prefs"
	"github.com/pdiddy/idea-screener/internal/queue"
	"github.com/pdiddy/idea-screener/internal/reconcile"
	"github.com/pdiddy/idea-screener/internal/run"
	"github.com/pdiddy/idea-screener/internal/source"
	"github.com/pdiddy/idea-screener/pkg/types"
)

// CandidatesFilename is the fetched-candidate sidecar name inside a
// run directory.
const CandidatesFilename = "finviz-candidates.json"

// Deps are the pipeline's collaborators. History may be nil when the
// index is disabled.
type Deps struct {
	Source  *source.Client
	History *history.Store
	Stdin   io.Reader
	Now     func() time.Time
}

// Request describes one invocation.
type Request struct {
	Config types.PipelineConfig

	// RunID pins the run scope; empty mints a fresh id.
	RunID string

	// SelectionPath is the selection payload file, or "-" for stdin.
	// Empty means fetch-only.
	SelectionPath string

	// SkipFetch reconciles against an existing run's candidate sidecar
	// instead of fetching. Requires RunID.
	SkipFetch bool
}

// Run executes one screening run and returns its summary. All
// configuration errors (run id, preferences, selection) surface before
// any fetch or write occurs. On failure sidecar artifacts are retained
// for debugging.
func Run(ctx context.Context, deps Deps, req Request, w io.Writer) (types.RunSummary, error) {
	cfg := req.Config
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	runID := req.RunID
	if runID == "" {
		if req.SkipFetch {
			return types.RunSummary{}, fmt.Errorf("a run id is required when appending to an existing run")
		}
		runID = run.NewID(now())
	}
	scope, err := run.Validate(cfg.ScreensDir, runID)
	if err != nil {
		return types.RunSummary{}, err
	}
	summary := types.RunSummary{RunID: scope.ID}

	doc, err := prefs.LoadOptional(cfg.PreferencesPath)
	if err != nil {
		return summary, err
	}
	// Policy stop happens before any fetch: a loud failure, never a
	// silently empty queue.
	if err := prefs.CheckMarket(doc, cfg.IgnorePreferences); err != nil {
		return summary, err
	}

	var entries []types.SelectionEntry
	if req.SelectionPath != "" {
		entries, err = reconcile.ReadSelectionFile(req.SelectionPath, deps.Stdin)
		if err != nil {
			return summary, err
		}
	}

	candidatePath, err := scope.Resolve(CandidatesFilename)
	if err != nil {
		return summary, err
	}
	queuePath, err := scope.Resolve(queue.ResultsFilename)
	if err != nil {
		return summary, err
	}
	summary.QueuePath = queuePath
	summary.CandidatePath = candidatePath

	artifacts := run.NewArtifacts(scope)

	var candidates []types.CandidateRow
	if req.SkipFetch {
		payload, err := readCandidatePayload(candidatePath)
		if err != nil {
			return summary, err
		}
		candidates = payload.Candidates
		summary.Fetched = len(candidates)
		summary.PagesRequested = payload.Meta.PagesRequested
		summary.PagesFetched = payload.Meta.PagesFetched
	} else {
		out, err := deps.Source.Fetch(ctx, cfg.Fetch, w)
		if err != nil {
			return summary, err
		}
		summary.Fetched = len(out.Rows)
		summary.PagesRequested = out.Report.PagesRequested()
		summary.PagesFetched = out.Report.PagesFetched()
		if summary.Degraded() {
			fmt.Fprintf(w, "warning: partial universe: fetched %d of %d pages\n",
				summary.PagesFetched, summary.PagesRequested)
		}

		candidates = filter.Apply(out.Rows, cfg.Thresholds)
		candidates, err = prefs.ApplyRows(candidates, doc, cfg.IgnorePreferences)
		if err != nil {
			return summary, err
		}

		payload := types.CandidatePayload{
			Meta: types.CandidateMeta{
				RunID:          scope.ID,
				Exchanges:      exchangesOrDefault(cfg.Fetch.Exchanges),
				PagesRequested: summary.PagesRequested,
				PagesFetched:   summary.PagesFetched,
				DroppedPages:   out.Report.DroppedPages(),
				RequestedAt:    now().UTC().Format(time.RFC3339),
			},
			Candidates: candidates,
		}
		if err := writeCandidatePayload(candidatePath, payload); err != nil {
			return summary, err
		}
	}
	summary.Filtered = len(candidates)
	artifacts.Register(candidatePath)

	if req.SelectionPath == "" {
		// Fetch-only: the sidecar stays for a later append.
		return summary, nil
	}
	if req.SelectionPath != "-" {
		artifacts.Register(req.SelectionPath)
	}

	res := reconcile.Reconcile(candidates, entries, cfg.IdeaLimit)
	summary.Reconciled = len(res.Ideas)
	summary.UnmatchedSelection = res.Unmatched
	summary.ValidationRejected += res.EmptyThesis
	if res.DuplicateSelection > 0 {
		fmt.Fprintf(w, "warning: %d duplicate selection entr(ies) ignored\n", res.DuplicateSelection)
	}
	if res.Unmatched > 0 {
		fmt.Fprintf(w, "warning: %d selection entr(ies) did not match any candidate\n", res.Unmatched)
	}

	ideas, err := prefs.ApplyIdeas(res.Ideas, doc, cfg.IgnorePreferences)
	if err != nil {
		return summary, err
	}

	appendRes, err := queue.Append(queuePath, ideas)
	if err != nil {
		return summary, err
	}
	summary.Written = appendRes.Written
	summary.SkippedDuplicate = appendRes.SkippedDuplicate
	summary.ValidationRejected += len(appendRes.Rejected)
	for _, rej := range appendRes.Rejected {
		fmt.Fprintf(w, "warning: rejected record %q: %s\n", rej.Ticker, rej.Reason)
	}

	if deps.History != nil && !cfg.History.Disabled {
		if err := deps.History.RecordRun(ctx, scope.ID, queuePath, summary, ideas); err != nil {
			fmt.Fprintf(w, "warning: history recording failed: %v\n", err)
		}
	}

	cleaned := artifacts.Cleanup(cfg.KeepArtifacts, false, w)
	for _, path := range cleaned {
		fmt.Fprintf(w, "cleaned %s\n", path)
	}

	return summary, nil
}

func exchangesOrDefault(exchanges []string) []string {
	if len(exchanges) == 0 {
		return source.DefaultExchanges
	}
	return exchanges
}

// writeCandidatePayload writes the ephemeral candidate sidecar.
func writeCandidatePayload(path string, payload types.CandidatePayload) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding candidate payload: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing candidate payload: %w", err)
	}
	return nil
}

// readCandidatePayload loads a prior fetch's sidecar for an append run.
func readCandidatePayload(path string) (types.CandidatePayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.CandidatePayload{}, fmt.Errorf("reading candidate payload %s (run the fetch first): %w", path, err)
	}
	var payload types.CandidatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return types.CandidatePayload{}, fmt.Errorf("parsing candidate payload %s: %w", path, err)
	}
	return payload, nil
}
