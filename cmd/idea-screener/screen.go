// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/idea-screener/internal/history"
	"github.com/pdiddy/idea-screener/internal/pipeline"
	"github.com/pdiddy/idea-screener/internal/source"
	"github.com/pdiddy/idea-screener/pkg/types"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run the full pipeline: fetch, filter, reconcile, append",
	Long: `Screen fetches the candidate universe, applies quality and preference
gates, reconciles the supplied selection against it, and appends the
surviving idea records to the run's screener-results.jsonl queue.
Sidecar artifacts are cleaned up on success unless --keep-artifacts
is set. Without --selection the command behaves like fetch.`,
	RunE: runScreen,
}

func init() {
	addFetchFlags(screenCmd)
	addThresholdFlags(screenCmd)
	addRunFlags(screenCmd)
	screenCmd.Flags().String("selection", "", "selection payload JSON path, or - for stdin")
	screenCmd.Flags().Int("idea-limit", 25, "maximum selected ideas to append")
	screenCmd.Flags().Bool("keep-artifacts", false, "keep sidecar artifacts after a successful append")

	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	selection, _ := cmd.Flags().GetString("selection")
	runID, _ := cmd.Flags().GetString("run-id")

	return executePipeline(cmd.Context(), cfg, pipeline.Request{
		Config:        cfg,
		RunID:         runID,
		SelectionPath: selection,
	})
}

// executePipeline wires the collaborators, runs the pipeline, and
// prints the run summary as a JSON line on stdout.
func executePipeline(ctx context.Context, cfg types.PipelineConfig, req pipeline.Request) error {
	if ctx == nil {
		ctx = context.Background()
	}

	deps := pipeline.Deps{
		Source: &source.Client{HTTP: &http.Client{Timeout: cfg.Fetch.Timeout}},
		Stdin:  os.Stdin,
	}

	if !cfg.History.Disabled {
		store, err := history.Open(cfg.ScreensDir, cfg.History)
		if err != nil {
			// History is derived state; a broken index must not block a run.
			fmt.Fprintf(os.Stderr, "warning: history index unavailable: %v\n", err)
		} else {
			deps.History = store
			defer store.Close()
		}
	}

	summary, err := pipeline.Run(ctx, deps, req, os.Stderr)
	if err != nil {
		return err
	}

	line, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}
