package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/tools/cover"

	"github.com/covmark/covmark/pkg/summary"
)

// Convert command flags
var (
	convertProfile string
	convertOutput  string
	convertTrim    string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a Go cover profile into a coverage-summary document",
	Long: `Convert a Go coverage profile (the output of go test -coverprofile)
into the coverage-summary JSON shape consumed by the report command.

The profile carries statement blocks only, so the statements and lines
dimensions are populated and branches/functions stay zero.`,
	Example: `  # Summarize a Go profile and feed it to report
  covmark convert --profile coverage.out --trim github.com/acme/widget -o coverage-summary.json`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertProfile, "profile", "p", "coverage.out", "Go cover profile path")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file (default stdout)")
	convertCmd.Flags().StringVar(&convertTrim, "trim", "", "Module path prefix stripped from profile file names")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	lg := ensureLogger()

	profiles, err := cover.ParseProfiles(convertProfile)
	if err != nil {
		return fmt.Errorf("parse cover profile: %w", err)
	}

	sum := summary.NewProjectSummary()
	totals := summary.NewGroup()
	for _, p := range profiles {
		fs := profileSummary(p)
		name := trimModulePrefix(p.FileName, convertTrim)
		sum.Put(name, fs)
		totals.Put(name, &summary.Node{File: fs})
	}
	total := totals.Aggregate(true)
	sum.Put(summary.TotalKey, &total)

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	data = append(data, '\n')

	if convertOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	}
	if err := os.WriteFile(convertOutput, data, 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	lg.Success("summarized %d files into %s", sum.Len(), convertOutput)
	return nil
}

// profileSummary reduces one file's profile blocks to summary statistics.
// Line totals count distinct lines covered by any block; a line shared by
// several blocks counts as covered if any of them executed.
func profileSummary(p *cover.Profile) *summary.FileSummary {
	fs := &summary.FileSummary{}
	lineHits := make(map[int]int)

	for _, b := range p.Blocks {
		fs.Statements.Total += b.NumStmt
		if b.Count > 0 {
			fs.Statements.Covered += b.NumStmt
		}
		for ln := b.StartLine; ln <= b.EndLine; ln++ {
			if hits, ok := lineHits[ln]; !ok || b.Count > hits {
				lineHits[ln] = b.Count
			}
		}
	}

	fs.Lines.Total = len(lineHits)
	for _, hits := range lineHits {
		if hits > 0 {
			fs.Lines.Covered++
		}
	}
	fs.Statements.Pct = summary.Percent(fs.Statements.Covered, fs.Statements.Total)
	fs.Lines.Pct = summary.Percent(fs.Lines.Covered, fs.Lines.Total)
	return fs
}

func trimModulePrefix(name, prefix string) string {
	if prefix == "" {
		return name
	}
	name = strings.TrimPrefix(name, prefix)
	return strings.TrimPrefix(name, "/")
}
