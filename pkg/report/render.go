// Package report renders a merged coverage tree as a markdown document
// suitable for a code-review comment.
package report

import (
	"strings"

	"github.com/covmark/covmark/pkg/summary"
)

// DefaultTitle labels the collapsible table section when no title is given.
const DefaultTitle = "Coverage report"

// closingMarker ends the document so comment-updating bots can find it.
const closingMarker = "<!-- covmark-coverage-report -->"

// Options controls the document framing around the table.
type Options struct {
	Title string
}

// Render produces the markdown report: an introductory sentence, a
// collapsible section holding the coverage table, and a closing marker.
// The total row, when present, sits at depth 0; tree entries follow in
// tree order, directories as aggregate rows with their files indented one
// level deeper.
func Render(total *summary.FileSummary, tree *summary.Tree, opts Options) string {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	var b strings.Builder
	b.WriteString("Coverage after merging the latest test results:\n\n")
	b.WriteString("<details>\n<summary>" + title + "</summary>\n\n")
	b.WriteString("| Path | Statements | Branches | Functions | Lines | Uncovered lines |\n")
	b.WriteString("| :--- | :--------- | :------- | :-------- | :---- | :-------------- |\n")

	if total != nil {
		writeRow(&b, 0, "**Total**", total, false)
	}

	for _, key := range tree.Keys() {
		g := tree.Group(key)
		if key == summary.RootKey {
			// Root-level files have no directory row above them.
			writeGroup(&b, g, 1)
			continue
		}
		agg := g.Aggregate(false)
		writeRow(&b, 1, key, &agg, false)
		writeGroup(&b, g, 2)
	}

	b.WriteString("\n</details>\n\n")
	b.WriteString(closingMarker + "\n")
	return b.String()
}

// writeGroup emits one row per entry at the given depth, recursing into
// nested directory entries a level deeper.
func writeGroup(b *strings.Builder, g *summary.Group, depth int) {
	for _, name := range g.Names() {
		n := g.Node(name)
		if n.File != nil {
			writeRow(b, depth, name, n.File, true)
			continue
		}
		agg := n.Dir.Aggregate(false)
		writeRow(b, depth, name, &agg, false)
		writeGroup(b, n.Dir, depth+1)
	}
}

func writeRow(b *strings.Builder, depth int, name string, fs *summary.FileSummary, withUncovered bool) {
	indent := strings.Repeat("&nbsp;", 2*depth)
	b.WriteString("| " + indent + name)
	b.WriteString(" | " + PercentBadge(fs.Statements.Pct))
	b.WriteString(" | " + PercentBadge(fs.Branches.Pct))
	b.WriteString(" | " + PercentBadge(fs.Functions.Pct))
	b.WriteString(" | " + PercentBadge(fs.Lines.Pct))
	b.WriteString(" | ")
	if withUncovered && len(fs.Uncovered) > 0 {
		badges := make([]string, 0, len(fs.Uncovered))
		for _, rng := range fs.Uncovered {
			badges = append(badges, RangeBadge(rng))
		}
		b.WriteString(strings.Join(badges, " "))
	}
	b.WriteString(" |\n")
}
