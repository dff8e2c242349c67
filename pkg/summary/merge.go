package summary

import "strings"

// UncoveredSource yields per-file uncovered ranges and section counters in
// trace discovery order. The lcov parser result satisfies this.
type UncoveredSource interface {
	Files() []string
	Ranges(file string) []string
	LineStats(file string) (found, hit int)
	FunctionStats(file string) (found, hit int)
	BranchStats(file string) (found, hit int)
}

// Relativize strips the project root prefix (plus any trailing separator)
// from every file key, preserving insertion order. The "total" entry has no
// path and is untouched.
func (s *ProjectSummary) Relativize(root string) {
	if root == "" {
		return
	}
	order := make([]string, 0, len(s.order))
	files := make(map[string]*FileSummary, len(s.files))
	for _, path := range s.order {
		rel := relativePath(path, root)
		if _, ok := files[rel]; !ok {
			order = append(order, rel)
		}
		files[rel] = s.files[path]
	}
	s.order = order
	s.files = files
}

func relativePath(path, root string) string {
	rel, ok := strings.CutPrefix(path, root)
	if !ok {
		return path
	}
	rel = strings.TrimPrefix(rel, "/")
	return strings.TrimPrefix(rel, "\\")
}

// MergeUncovered folds the parsed trace into the summary. Files not yet
// present get an entry seeded from the trace's own section counters;
// existing statistics are never touched. Range order is the parser's
// discovery order, appended as-is.
func (s *ProjectSummary) MergeUncovered(src UncoveredSource) {
	for _, file := range src.Files() {
		fs, ok := s.files[file]
		if !ok {
			fs = traceSummary(src, file)
			s.Put(file, fs)
		}
		fs.Uncovered = append(fs.Uncovered, src.Ranges(file)...)
	}
}

// traceSummary builds file statistics from the trace section counters for
// a file the loaded summary does not know. The trace has no statement
// records, so the lines dimension stands in for statements as well.
func traceSummary(src UncoveredSource, file string) *FileSummary {
	lf, lh := src.LineStats(file)
	fnf, fnh := src.FunctionStats(file)
	brf, brh := src.BranchStats(file)
	lines := Stat{Total: lf, Covered: lh, Pct: Percent(lh, lf)}
	return &FileSummary{
		Statements: lines,
		Branches:   Stat{Total: brf, Covered: brh, Pct: Percent(brh, brf)},
		Functions:  Stat{Total: fnf, Covered: fnh, Pct: Percent(fnh, fnf)},
		Lines:      lines,
	}
}
