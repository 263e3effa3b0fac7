// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/idea-screener/internal/history"
	"github.com/pdiddy/idea-screener/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the screen-history index (list, search)",
	Long: `History queries the SQLite index of past screening runs. The index is
derived state rebuilt from successful appends; the per-run queue files
remain the durable record.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent screening runs",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("%-19s  %-10s  %-8s  %-10s  %s\n", "Run", "Candidates", "Written", "Duplicates", "Queue")
	fmt.Println(strings.Repeat("-", 80))
	for _, r := range runs {
		fmt.Printf("%-19s  %-10d  %-8d  %-10d  %s\n", r.ID, r.CandidateCount, r.Written, r.Duplicates, r.QueuePath)
	}
	return nil
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search committed ideas by thesis and company",
	RunE:  runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	query := strings.Join(args, " ")
	ticker, _ := cmd.Flags().GetString("ticker")
	limit, _ := cmd.Flags().GetInt("limit")

	ideas, err := store.Search(context.Background(), query, ticker, limit)
	if err != nil {
		return err
	}
	if len(ideas) == 0 {
		fmt.Println("No matching ideas.")
		return nil
	}

	for _, idea := range ideas {
		thesis := idea.Thesis
		if len(thesis) > 100 {
			thesis = thesis[:97] + "..."
		}
		fmt.Printf("%-6s  %s  %s\n        %s\n", idea.Ticker, idea.RunID, idea.Company, thesis)
	}
	return nil
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	screensDir, _ := cmd.Flags().GetString("screens-dir")
	if screensDir == "" {
		screensDir = viper.GetString("screens_dir")
	}
	maxResults, _ := cmd.Flags().GetInt("limit")
	return history.Open(screensDir, types.HistoryConfig{MaxResults: maxResults})
}

func init() {
	for _, cmd := range []*cobra.Command{historyListCmd, historySearchCmd} {
		cmd.Flags().String("screens-dir", "", "root directory for per-run artifacts (default idea-screens)")
		cmd.Flags().Int("limit", 20, "maximum results")
	}
	historySearchCmd.Flags().String("ticker", "", "filter by ticker")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historySearchCmd)
	rootCmd.AddCommand(historyCmd)
}
