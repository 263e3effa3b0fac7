// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/idea-screener/internal/pipeline"
)

var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Reconcile a selection against an existing run and append",
	Long: `Append reads the candidate sidecar of an existing run (created by
fetch), reconciles the supplied selection payload against it, and
appends the surviving idea records to that run's queue file. Running
the same selection twice never produces duplicate lines.`,
	RunE: runAppend,
}

func init() {
	addRunFlags(appendCmd)
	appendCmd.Flags().String("selection", "", "selection payload JSON path, or - for stdin (required)")
	appendCmd.Flags().Int("idea-limit", 25, "maximum selected ideas to append")
	appendCmd.Flags().Bool("keep-artifacts", false, "keep sidecar artifacts after a successful append")

	rootCmd.AddCommand(appendCmd)
}

func runAppend(cmd *cobra.Command, args []string) error {
	selection, _ := cmd.Flags().GetString("selection")
	if selection == "" {
		return fmt.Errorf("provide --selection with the selection payload path (or - for stdin)")
	}
	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		return fmt.Errorf("provide --run-id of the run to append to")
	}

	cfg := pipelineConfig(cmd)
	return executePipeline(cmd.Context(), cfg, pipeline.Request{
		Config:        cfg,
		RunID:         runID,
		SelectionPath: selection,
		SkipFetch:     true,
	})
}
