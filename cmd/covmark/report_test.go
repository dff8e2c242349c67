package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setReportFlags(t *testing.T, summary, trace, root, output string) {
	t.Helper()
	oldSummary, oldTrace, oldRoot := reportSummary, reportTrace, reportRoot
	oldOutput, oldTitle := reportOutput, reportTitle
	oldDB, oldLabel := reportDB, reportLabel
	t.Cleanup(func() {
		reportSummary, reportTrace, reportRoot = oldSummary, oldTrace, oldRoot
		reportOutput, reportTitle = oldOutput, oldTitle
		reportDB, reportLabel = oldDB, oldLabel
	})
	reportSummary, reportTrace, reportRoot, reportOutput = summary, trace, root, output
	reportTitle, reportDB, reportLabel = "", "", ""
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReportFromTraceAloneFullyCovered(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "lcov.info")
	writeFile(t, tracePath, strings.Join([]string{
		"TN:",
		"SF:a.js",
		"FN:1,main",
		"FNDA:3,main",
		"FNF:1",
		"FNH:1",
		"DA:1,3",
		"DA:2,3",
		"BRDA:2,0,0,3",
		"BRF:1",
		"BRH:1",
		"LF:2",
		"LH:2",
		"end_of_record",
	}, "\n"))
	outPath := filepath.Join(dir, "report.md")
	setReportFlags(t, filepath.Join(dir, "no-summary.json"), tracePath, dir, outPath)

	require.NoError(t, runReport(reportCmd, nil))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	doc := string(data)

	var row string
	for _, line := range strings.Split(doc, "\n") {
		if strings.Contains(line, "a.js") {
			row = line
		}
	}
	require.NotEmpty(t, row, "no a.js row in:\n%s", doc)
	assert.Equal(t, 4, strings.Count(row, "100.00%25-brightgreen"))
	assert.NotContains(t, row, "-red")
}

func TestReportGroupsTraceFilesUnderDirectory(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "lcov.info")
	writeFile(t, tracePath, strings.Join([]string{
		"SF:src/lib/a.js",
		"DA:1,1",
		"DA:2,0",
		"LF:10",
		"LH:5",
		"end_of_record",
		"SF:src/lib/b.js",
		"DA:1,1",
		"LF:10",
		"LH:10",
		"end_of_record",
	}, "\n"))
	outPath := filepath.Join(dir, "report.md")
	setReportFlags(t, filepath.Join(dir, "no-summary.json"), tracePath, dir, outPath)

	require.NoError(t, runReport(reportCmd, nil))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	doc := string(data)

	var dirRow string
	for _, line := range strings.Split(doc, "\n") {
		if strings.Contains(line, "src/lib |") {
			dirRow = line
		}
	}
	require.NotEmpty(t, dirRow, "no src/lib directory row in:\n%s", doc)
	// Combined lines: 15/20 = 75.00%.
	assert.Contains(t, dirRow, "75.00%25-yellow")
	assert.Contains(t, doc, "&nbsp;&nbsp;&nbsp;&nbsp;a.js")
	assert.Contains(t, doc, "&nbsp;&nbsp;&nbsp;&nbsp;b.js")
	// a.js carries its uncovered badge.
	assert.Contains(t, doc, "![2](")
}

func TestReportMergesSummaryAndTrace(t *testing.T) {
	dir := t.TempDir()
	summaryPath := filepath.Join(dir, "coverage-summary.json")
	writeFile(t, summaryPath, `{
  "total": {
    "statements": {"total": 10, "covered": 9, "skipped": 0, "pct": 90},
    "branches": {"total": 2, "covered": 2, "skipped": 0, "pct": 100},
    "functions": {"total": 1, "covered": 1, "skipped": 0, "pct": 100},
    "lines": {"total": 10, "covered": 9, "skipped": 0, "pct": 90}
  },
  "`+dir+`/foo.js": {
    "statements": {"total": 10, "covered": 9, "skipped": 0, "pct": 90},
    "branches": {"total": 2, "covered": 2, "skipped": 0, "pct": 100},
    "functions": {"total": 1, "covered": 1, "skipped": 0, "pct": 100},
    "lines": {"total": 10, "covered": 9, "skipped": 0, "pct": 90}
  }
}`)
	tracePath := filepath.Join(dir, "lcov.info")
	writeFile(t, tracePath, "SF:foo.js\nDA:5,0\nDA:6,0\nDA:8,0\nDA:9,1\nend_of_record\n")
	outPath := filepath.Join(dir, "report.md")
	setReportFlags(t, summaryPath, tracePath, dir, outPath)

	require.NoError(t, runReport(reportCmd, nil))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, "**Total**")
	assert.Contains(t, doc, "foo.js")
	// Summary stats survive the merge and the trace contributes the badges.
	assert.Contains(t, doc, "90.00%25-brightgreen")
	assert.Contains(t, doc, "![5-6](")
	assert.Contains(t, doc, "![8](")
}

func TestReportMissingTraceIsFatal(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "report.md")
	setReportFlags(t, filepath.Join(dir, "s.json"), filepath.Join(dir, "missing.info"), dir, outPath)

	err := runReport(reportCmd, nil)
	require.Error(t, err)
	// Nothing is written when the trace is unavailable.
	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReportRecordsRunInHistory(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "lcov.info")
	writeFile(t, tracePath, "SF:a.js\nDA:1,1\nLF:1\nLH:1\nend_of_record\n")
	outPath := filepath.Join(dir, "report.md")
	setReportFlags(t, filepath.Join(dir, "no-summary.json"), tracePath, dir, outPath)
	reportDB = filepath.Join(dir, "covmark.db")
	reportLabel = "e2e"

	require.NoError(t, runReport(reportCmd, nil))
	assert.FileExists(t, reportDB)
}
