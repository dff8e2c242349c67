package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/covmark/covmark/pkg/history"
	"github.com/covmark/covmark/pkg/lcov"
	"github.com/covmark/covmark/pkg/report"
	"github.com/covmark/covmark/pkg/summary"
)

// Report command flags
var (
	reportSummary string
	reportTrace   string
	reportRoot    string
	reportOutput  string
	reportTitle   string
	reportDB      string
	reportLabel   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the markdown coverage report",
	Long: `Generate a markdown coverage report from a coverage-summary JSON
document and an LCOV trace.

A missing or unparseable summary is recoverable: the report is built from
the trace alone. A missing trace aborts the run and no report is written.`,
	Example: `  # Report from the default coverage/ artifact locations
  covmark report

  # Explicit inputs, report written to a file
  covmark report --summary cov/coverage-summary.json --lcov cov/lcov.info -o comment.md

  # Record the run in the local history database as well
  covmark report --record-db covmark.db --label nightly`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportSummary, "summary", "s", "", "Coverage summary JSON path (default $COVMARK_SUMMARY or coverage/coverage-summary.json)")
	reportCmd.Flags().StringVarP(&reportTrace, "lcov", "l", "", "LCOV trace path (default $COVMARK_LCOV or coverage/lcov.info)")
	reportCmd.Flags().StringVar(&reportRoot, "root", "", "Project root stripped from summary keys (default $COVMARK_ROOT or the working directory)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file (default $COVMARK_OUTPUT or stdout)")
	reportCmd.Flags().StringVar(&reportTitle, "title", "", "Title of the collapsible report section")
	reportCmd.Flags().StringVar(&reportDB, "record-db", "", "Record this run in the given history database")
	reportCmd.Flags().StringVar(&reportLabel, "label", "", "Label for the recorded run (default: timestamp)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	lg := ensureLogger()

	summaryPath := resolvePath(reportSummary, "COVMARK_SUMMARY", filepath.Join("coverage", "coverage-summary.json"))
	tracePath := resolvePath(reportTrace, "COVMARK_LCOV", filepath.Join("coverage", "lcov.info"))
	root := reportRoot
	if root == "" {
		root = os.Getenv("COVMARK_ROOT")
	}
	if root == "" {
		root, _ = os.Getwd()
	}
	output := reportOutput
	if output == "" {
		output = os.Getenv("COVMARK_OUTPUT")
	}

	sum, err := summary.LoadFile(summaryPath)
	if err != nil {
		lg.Warning("proceeding with an empty summary: %v", err)
	} else {
		lg.Debug("loaded %d file entries from %s", sum.Len(), summaryPath)
	}
	sum.Relativize(root)

	res, err := lcov.ParseFile(tracePath)
	if res == nil {
		lg.Error("coverage trace unavailable, no report generated: %v", err)
		return fmt.Errorf("parse trace: %w", err)
	}
	if err != nil {
		// Stream broke mid-parse; report whatever was read up to that point.
		lg.Warning("trace ended early: %v", err)
	}
	sum.MergeUncovered(res)

	tree, total := summary.BuildTree(sum)
	doc := report.Render(total, tree, report.Options{Title: reportTitle})

	if output == "" {
		fmt.Fprint(cmd.OutOrStdout(), doc)
	} else {
		if err := os.WriteFile(output, []byte(doc), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		lg.Success("report written to %s", output)
	}

	if reportDB != "" {
		if err := recordRun(sum, total); err != nil {
			return err
		}
	}
	return nil
}

func recordRun(sum *summary.ProjectSummary, total *summary.FileSummary) error {
	lg := ensureLogger()

	store, err := history.Open(reportDB)
	if err != nil {
		return err
	}
	defer store.Close()

	label := reportLabel
	if label == "" {
		label = time.Now().UTC().Format("2006-01-02 15:04:05")
	}
	runID, err := store.RecordRun(label, sum, total)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	lg.Info("recorded run %d (%s) in %s", runID, label, reportDB)
	return nil
}
