package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covmark/covmark/pkg/history"
)

// History command flags
var (
	histDB    string
	histLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List coverage runs recorded in the history database",
	Example: `  # Show the ten most recent runs
  covmark history --db covmark.db --limit 10`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&histDB, "db", "covmark.db", "History database path")
	historyCmd.Flags().IntVar(&histLimit, "limit", 0, "Maximum number of runs to show (0 = all)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(histDB); err != nil {
		return fmt.Errorf("history database not found at %s — run 'report --record-db' first", histDB)
	}

	store, err := history.OpenReadOnly(histDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(histLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-5s %-22s %-20s %10s %10s %10s %10s\n",
		"ID", "LABEL", "RECORDED", "STMTS", "BRANCH", "FUNCS", "LINES")
	for _, r := range runs {
		fmt.Fprintf(w, "%-5d %-22s %-20s %9.2f%% %9.2f%% %9.2f%% %9.2f%%\n",
			r.ID, r.Label, r.RecordedAt.Format("2006-01-02 15:04:05"),
			r.Statements.Pct, r.Branches.Pct, r.Functions.Pct, r.Lines.Pct)
	}
	return nil
}
