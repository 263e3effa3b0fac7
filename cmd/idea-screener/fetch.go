// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/idea-screener/internal/pipeline"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and filter the candidate universe only",
	Long: `Fetch retrieves screener candidates for the configured exchanges,
applies quality and preference gates, and writes the candidate payload
sidecar (finviz-candidates.json) into the run directory. Nothing is
appended to the queue; use append later to reconcile a selection
against this run.`,
	RunE: runFetch,
}

func init() {
	addFetchFlags(fetchCmd)
	addThresholdFlags(fetchCmd)
	addRunFlags(fetchCmd)

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	runID, _ := cmd.Flags().GetString("run-id")

	return executePipeline(cmd.Context(), cfg, pipeline.Request{
		Config: cfg,
		RunID:  runID,
	})
}
