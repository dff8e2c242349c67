package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTreeSplitsOnLastSlash(t *testing.T) {
	s := NewProjectSummary()
	s.Put("index.js", &FileSummary{Lines: Stat{Total: 1}})
	s.Put("src/lib/a.js", &FileSummary{Lines: Stat{Total: 2}})
	s.Put("src/lib/b.js", &FileSummary{Lines: Stat{Total: 3}})
	s.Put("src/c.js", &FileSummary{Lines: Stat{Total: 4}})
	s.Put(TotalKey, &FileSummary{Lines: Stat{Total: 10}})

	tree, total := BuildTree(s)

	require.NotNil(t, total)
	assert.Equal(t, 10, total.Lines.Total)

	// First-seen order of top-level keys.
	assert.Equal(t, []string{RootKey, "src/lib", "src"}, tree.Keys())

	root := tree.Group(RootKey)
	require.NotNil(t, root)
	assert.Equal(t, []string{"index.js"}, root.Names())

	lib := tree.Group("src/lib")
	require.NotNil(t, lib)
	assert.Equal(t, []string{"a.js", "b.js"}, lib.Names())
	assert.Equal(t, 2, lib.Node("a.js").File.Lines.Total)
	assert.Equal(t, 3, lib.Node("b.js").File.Lines.Total)

	src := tree.Group("src")
	require.NotNil(t, src)
	assert.Equal(t, []string{"c.js"}, src.Names())
}

// Every path must land in exactly one (directory, filename) slot and
// "total" must never appear as a tree entry.
func TestBuildTreeBijection(t *testing.T) {
	paths := []string{"a.js", "x/b.js", "x/y/c.js", "x/y/d.js", "z/e.js"}
	s := NewProjectSummary()
	for _, p := range paths {
		s.Put(p, &FileSummary{})
	}
	s.Put(TotalKey, &FileSummary{})

	tree, _ := BuildTree(s)

	count := 0
	for _, key := range tree.Keys() {
		assert.NotEqual(t, TotalKey, key)
		g := tree.Group(key)
		for _, name := range g.Names() {
			assert.NotEqual(t, TotalKey, name)
			full := name
			if key != RootKey {
				full = key + "/" + name
			}
			assert.Contains(t, paths, full)
			count++
		}
	}
	assert.Equal(t, len(paths), count)
}

func TestBuildTreeEmptySummary(t *testing.T) {
	tree, total := BuildTree(NewProjectSummary())
	assert.Empty(t, tree.Keys())
	assert.Nil(t, total)
}

func TestAggregateSumsCountersAndRecomputesPct(t *testing.T) {
	g := NewGroup()
	g.Put("a.js", &Node{File: &FileSummary{
		Statements: Stat{Total: 10, Covered: 9, Pct: 90},
		Branches:   Stat{Total: 4, Covered: 1, Pct: 25},
		Functions:  Stat{Total: 2, Covered: 2, Pct: 100},
		Lines:      Stat{Total: 8, Covered: 8, Pct: 100},
	}})
	g.Put("b.js", &Node{File: &FileSummary{
		Statements: Stat{Total: 10, Covered: 7, Skipped: 1, Pct: 70},
		Branches:   Stat{Total: 4, Covered: 3, Pct: 75},
		Functions:  Stat{Total: 2, Covered: 1, Pct: 50},
		Lines:      Stat{Total: 12, Covered: 2, Pct: 16.67},
	}})

	agg := g.Aggregate(false)

	assert.Equal(t, Stat{Total: 20, Covered: 16, Skipped: 1, Pct: 80}, agg.Statements)
	assert.Equal(t, Stat{Total: 8, Covered: 4, Pct: 50}, agg.Branches)
	assert.Equal(t, Stat{Total: 4, Covered: 3, Pct: 75}, agg.Functions)
	// Pct comes from the summed counters, not the average of 100 and 16.67.
	assert.Equal(t, Stat{Total: 20, Covered: 10, Pct: 50}, agg.Lines)
}

func TestAggregateSkipsNonSourceNames(t *testing.T) {
	g := NewGroup()
	g.Put("a.js", &Node{File: &FileSummary{Lines: Stat{Total: 5, Covered: 5}}})
	g.Put("README", &Node{File: &FileSummary{Lines: Stat{Total: 100, Covered: 0}}})

	agg := g.Aggregate(false)
	assert.Equal(t, 5, agg.Lines.Total)
	assert.Equal(t, 100.0, agg.Lines.Pct)
}

func TestAggregateRecursion(t *testing.T) {
	inner := NewGroup()
	inner.Put("deep.js", &Node{File: &FileSummary{Lines: Stat{Total: 10, Covered: 2}}})

	g := NewGroup()
	g.Put("a.js", &Node{File: &FileSummary{Lines: Stat{Total: 10, Covered: 8}}})
	g.Put("nested", &Node{Dir: inner})

	flat := g.Aggregate(false)
	assert.Equal(t, 10, flat.Lines.Total)
	assert.Equal(t, 80.0, flat.Lines.Pct)

	deep := g.Aggregate(true)
	assert.Equal(t, 20, deep.Lines.Total)
	assert.Equal(t, 50.0, deep.Lines.Pct)
}

func TestAggregateEmptyGroupIsAllZero(t *testing.T) {
	agg := NewGroup().Aggregate(false)
	assert.Equal(t, Stat{}, agg.Statements)
	assert.Equal(t, 0.0, agg.Lines.Pct)
}

func TestIsSourceFile(t *testing.T) {
	for _, name := range []string{"a.js", "b.jsx", "c.ts", "d.tsx", "e.mjs", "f.cjs", "g.vue", "h.go"} {
		assert.True(t, IsSourceFile(name), name)
	}
	for _, name := range []string{"README", "a.md", "src", "vendor"} {
		assert.False(t, IsSourceFile(name), name)
	}
}
