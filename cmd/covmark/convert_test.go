package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/tools/cover"
)

func TestProfileSummary(t *testing.T) {
	p := &cover.Profile{
		FileName: "github.com/acme/widget/pkg/a.go",
		Mode:     "set",
		Blocks: []cover.ProfileBlock{
			{StartLine: 1, EndLine: 3, NumStmt: 2, Count: 1},
			{StartLine: 3, EndLine: 5, NumStmt: 3, Count: 0},
			{StartLine: 7, EndLine: 7, NumStmt: 1, Count: 4},
		},
	}

	fs := profileSummary(p)

	assert.Equal(t, 6, fs.Statements.Total)
	assert.Equal(t, 3, fs.Statements.Covered)
	assert.Equal(t, 50.0, fs.Statements.Pct)

	// Lines 1-5 and 7; line 3 is shared and counts as covered.
	assert.Equal(t, 6, fs.Lines.Total)
	assert.Equal(t, 4, fs.Lines.Covered)
	assert.Equal(t, 66.67, fs.Lines.Pct)

	// The profile carries no branch or function data.
	assert.Equal(t, 0, fs.Branches.Total)
	assert.Equal(t, 0, fs.Functions.Total)
}

func TestTrimModulePrefix(t *testing.T) {
	assert.Equal(t, "pkg/a.go", trimModulePrefix("github.com/acme/widget/pkg/a.go", "github.com/acme/widget"))
	assert.Equal(t, "pkg/a.go", trimModulePrefix("pkg/a.go", ""))
	assert.Equal(t, "other.com/x/y.go", trimModulePrefix("other.com/x/y.go", "github.com/acme/widget"))
}
