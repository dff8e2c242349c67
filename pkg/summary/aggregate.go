package summary

import "regexp"

// sourceFileRe decides which entry names count as source files when a group
// is aggregated; anything else is treated as a subdirectory.
var sourceFileRe = regexp.MustCompile(`\.([cm]?[jt]sx?|vue|svelte|go)$`)

// IsSourceFile reports whether name looks like a source file.
func IsSourceFile(name string) bool {
	return sourceFileRe.MatchString(name)
}

// Aggregate sums the four coverage dimensions across the group's file
// entries, recomputing each percentage from the summed counters. With
// recursive set, subdirectory entries are folded in as well; otherwise only
// immediate file children contribute, matching how directory rows are
// computed in the report.
func (g *Group) Aggregate(recursive bool) FileSummary {
	var agg FileSummary
	for _, name := range g.names {
		n := g.nodes[name]
		switch {
		case n.File != nil && IsSourceFile(name):
			agg.Statements.add(n.File.Statements)
			agg.Branches.add(n.File.Branches)
			agg.Functions.add(n.File.Functions)
			agg.Lines.add(n.File.Lines)
		case n.Dir != nil && recursive:
			sub := n.Dir.Aggregate(true)
			agg.Statements.add(sub.Statements)
			agg.Branches.add(sub.Branches)
			agg.Functions.add(sub.Functions)
			agg.Lines.add(sub.Lines)
		}
	}
	// An empty group still reports explicit zero percentages.
	agg.Statements.Pct = Percent(agg.Statements.Covered, agg.Statements.Total)
	agg.Branches.Pct = Percent(agg.Branches.Covered, agg.Branches.Total)
	agg.Functions.Pct = Percent(agg.Functions.Covered, agg.Functions.Total)
	agg.Lines.Pct = Percent(agg.Lines.Covered, agg.Lines.Total)
	return agg
}
