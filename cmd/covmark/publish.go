package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/spf13/cobra"

	"github.com/covmark/covmark/pkg/history"
)

// Publish command flags
var (
	pubProject string
	pubDataset string
	pubDB      string
	pubRunID   int64
)

// BigQuery row types

type CoverageRunRow struct {
	PublishedAt       time.Time `bigquery:"published_at"`
	RunID             int64     `bigquery:"run_id"`
	Label             string    `bigquery:"label"`
	RecordedAt        time.Time `bigquery:"recorded_at"`
	StatementsTotal   int       `bigquery:"statements_total"`
	StatementsCovered int       `bigquery:"statements_covered"`
	StatementsPct     float64   `bigquery:"statements_pct"`
	BranchesTotal     int       `bigquery:"branches_total"`
	BranchesCovered   int       `bigquery:"branches_covered"`
	BranchesPct       float64   `bigquery:"branches_pct"`
	FunctionsTotal    int       `bigquery:"functions_total"`
	FunctionsCovered  int       `bigquery:"functions_covered"`
	FunctionsPct      float64   `bigquery:"functions_pct"`
	LinesTotal        int       `bigquery:"lines_total"`
	LinesCovered      int       `bigquery:"lines_covered"`
	LinesPct          float64   `bigquery:"lines_pct"`
}

type CoverageFileRow struct {
	PublishedAt   time.Time `bigquery:"published_at"`
	RunID         int64     `bigquery:"run_id"`
	Path          string    `bigquery:"path"`
	StatementsPct float64   `bigquery:"statements_pct"`
	BranchesPct   float64   `bigquery:"branches_pct"`
	FunctionsPct  float64   `bigquery:"functions_pct"`
	LinesTotal    int       `bigquery:"lines_total"`
	LinesCovered  int       `bigquery:"lines_covered"`
	LinesPct      float64   `bigquery:"lines_pct"`
	Uncovered     string    `bigquery:"uncovered"`
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish recorded coverage runs to BigQuery",
	Long: `Publish runs from the local history database to BigQuery for
cross-run analysis.

Creates two tables in the specified dataset:
  - coverage_runs:  One row per recorded report run
  - coverage_files: Per-file statistics and uncovered ranges

The dataset and tables are created if they don't exist.`,
	Example: `  # Publish every recorded run
  covmark publish --project my-project --dataset coverage --db covmark.db

  # Publish a single run
  covmark publish --project my-project --dataset coverage --run 42`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&pubProject, "project", "", "GCP project ID (required)")
	publishCmd.Flags().StringVar(&pubDataset, "dataset", "", "BigQuery dataset name (required)")
	publishCmd.Flags().StringVar(&pubDB, "db", "covmark.db", "History database path")
	publishCmd.Flags().Int64Var(&pubRunID, "run", 0, "Publish only this run id (0 = all)")
	publishCmd.MarkFlagRequired("project")
	publishCmd.MarkFlagRequired("dataset")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	lg := ensureLogger()
	ctx := context.Background()
	publishedAt := time.Now().UTC()

	store, err := history.OpenReadOnly(pubDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(0)
	if err != nil {
		return fmt.Errorf("load runs: %w", err)
	}
	if pubRunID != 0 {
		var filtered []history.Run
		for _, r := range runs {
			if r.ID == pubRunID {
				filtered = append(filtered, r)
			}
		}
		runs = filtered
	}
	if len(runs) == 0 {
		lg.Warning("no runs to publish")
		return nil
	}
	lg.Info("publishing %d run(s) to %s.%s", len(runs), pubProject, pubDataset)

	client, err := bigquery.NewClient(ctx, pubProject)
	if err != nil {
		return fmt.Errorf("create BigQuery client: %w", err)
	}
	defer client.Close()

	if err := ensureDatasetAndTables(ctx, client); err != nil {
		return fmt.Errorf("setup BigQuery: %w", err)
	}

	dataset := client.Dataset(pubDataset)
	runInserter := dataset.Table("coverage_runs").Inserter()
	fileInserter := dataset.Table("coverage_files").Inserter()

	var totalFileRows int
	for i, r := range runs {
		lg.Info("[%d/%d] run %d (%s)", i+1, len(runs), r.ID, r.Label)

		runRow := CoverageRunRow{
			PublishedAt:       publishedAt,
			RunID:             r.ID,
			Label:             r.Label,
			RecordedAt:        r.RecordedAt,
			StatementsTotal:   r.Statements.Total,
			StatementsCovered: r.Statements.Covered,
			StatementsPct:     r.Statements.Pct,
			BranchesTotal:     r.Branches.Total,
			BranchesCovered:   r.Branches.Covered,
			BranchesPct:       r.Branches.Pct,
			FunctionsTotal:    r.Functions.Total,
			FunctionsCovered:  r.Functions.Covered,
			FunctionsPct:      r.Functions.Pct,
			LinesTotal:        r.Lines.Total,
			LinesCovered:      r.Lines.Covered,
			LinesPct:          r.Lines.Pct,
		}
		if err := runInserter.Put(ctx, &runRow); err != nil {
			return fmt.Errorf("insert run %d: %w", r.ID, err)
		}

		files, err := store.Files(r.ID)
		if err != nil {
			return fmt.Errorf("load files for run %d: %w", r.ID, err)
		}
		fileRows := make([]*CoverageFileRow, 0, len(files))
		for _, f := range files {
			fileRows = append(fileRows, &CoverageFileRow{
				PublishedAt:   publishedAt,
				RunID:         r.ID,
				Path:          f.Path,
				StatementsPct: f.Statements.Pct,
				BranchesPct:   f.Branches.Pct,
				FunctionsPct:  f.Functions.Pct,
				LinesTotal:    f.Lines.Total,
				LinesCovered:  f.Lines.Covered,
				LinesPct:      f.Lines.Pct,
				Uncovered:     strings.Join(f.Uncovered, ","),
			})
		}

		const batchSize = 500
		for start := 0; start < len(fileRows); start += batchSize {
			end := start + batchSize
			if end > len(fileRows) {
				end = len(fileRows)
			}
			if err := fileInserter.Put(ctx, fileRows[start:end]); err != nil {
				return fmt.Errorf("insert files for run %d at offset %d: %w", r.ID, start, err)
			}
		}
		totalFileRows += len(fileRows)
	}

	lg.Success("published %d run row(s) and %d file row(s)", len(runs), totalFileRows)
	return nil
}

// ensureDatasetAndTables creates the dataset and tables if they don't exist.
func ensureDatasetAndTables(ctx context.Context, client *bigquery.Client) error {
	dataset := client.Dataset(pubDataset)

	if err := dataset.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
		if !isAlreadyExists(err) {
			return fmt.Errorf("create dataset: %w", err)
		}
	}

	runsSchema := bigquery.Schema{
		{Name: "published_at", Type: bigquery.TimestampFieldType, Required: true},
		{Name: "run_id", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "label", Type: bigquery.StringFieldType},
		{Name: "recorded_at", Type: bigquery.TimestampFieldType},
		{Name: "statements_total", Type: bigquery.IntegerFieldType},
		{Name: "statements_covered", Type: bigquery.IntegerFieldType},
		{Name: "statements_pct", Type: bigquery.FloatFieldType},
		{Name: "branches_total", Type: bigquery.IntegerFieldType},
		{Name: "branches_covered", Type: bigquery.IntegerFieldType},
		{Name: "branches_pct", Type: bigquery.FloatFieldType},
		{Name: "functions_total", Type: bigquery.IntegerFieldType},
		{Name: "functions_covered", Type: bigquery.IntegerFieldType},
		{Name: "functions_pct", Type: bigquery.FloatFieldType},
		{Name: "lines_total", Type: bigquery.IntegerFieldType},
		{Name: "lines_covered", Type: bigquery.IntegerFieldType},
		{Name: "lines_pct", Type: bigquery.FloatFieldType},
	}
	if err := dataset.Table("coverage_runs").Create(ctx, &bigquery.TableMetadata{
		Schema: runsSchema,
		TimePartitioning: &bigquery.TimePartitioning{
			Field: "published_at",
		},
	}); err != nil {
		if !isAlreadyExists(err) {
			return fmt.Errorf("create coverage_runs table: %w", err)
		}
	}

	filesSchema := bigquery.Schema{
		{Name: "published_at", Type: bigquery.TimestampFieldType, Required: true},
		{Name: "run_id", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "path", Type: bigquery.StringFieldType, Required: true},
		{Name: "statements_pct", Type: bigquery.FloatFieldType},
		{Name: "branches_pct", Type: bigquery.FloatFieldType},
		{Name: "functions_pct", Type: bigquery.FloatFieldType},
		{Name: "lines_total", Type: bigquery.IntegerFieldType},
		{Name: "lines_covered", Type: bigquery.IntegerFieldType},
		{Name: "lines_pct", Type: bigquery.FloatFieldType},
		{Name: "uncovered", Type: bigquery.StringFieldType},
	}
	if err := dataset.Table("coverage_files").Create(ctx, &bigquery.TableMetadata{
		Schema: filesSchema,
		TimePartitioning: &bigquery.TimePartitioning{
			Field: "published_at",
		},
		Clustering: &bigquery.Clustering{
			Fields: []string{"run_id", "path"},
		},
	}); err != nil {
		if !isAlreadyExists(err) {
			return fmt.Errorf("create coverage_files table: %w", err)
		}
	}

	return nil
}

func isAlreadyExists(err error) bool {
	return strings.Contains(err.Error(), "Already Exists") ||
		strings.Contains(err.Error(), "alreadyExists") ||
		strings.Contains(err.Error(), "409")
}
