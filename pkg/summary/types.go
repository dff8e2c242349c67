// Package summary models per-file coverage statistics and reshapes them
// into the hierarchical form consumed by the report renderer.
package summary

import (
	"encoding/json"
	"math"
)

// roundEpsilon nudges exact halves past binary representation error before
// rounding, so 79.995 becomes 80.00 and not 79.99.
const roundEpsilon = 1e-9

// Percent returns covered/total as a percentage rounded to two decimals.
// A zero total yields zero.
func Percent(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(covered)/float64(total)*10000+roundEpsilon) / 100
}

// Stat holds the counters for one coverage dimension.
type Stat struct {
	Total   int     `json:"total"`
	Covered int     `json:"covered"`
	Skipped int     `json:"skipped"`
	Pct     float64 `json:"pct"`
}

// UnmarshalJSON tolerates missing or non-numeric fields; they contribute
// zero instead of failing the whole document.
func (s *Stat) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Total = intField(raw, "total")
	s.Covered = intField(raw, "covered")
	s.Skipped = intField(raw, "skipped")
	s.Pct = floatField(raw, "pct")
	return nil
}

func intField(m map[string]any, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

func floatField(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

// add accumulates another stat's counters and recomputes the percentage
// from the sums, never by averaging per-entry percentages.
func (s *Stat) add(o Stat) {
	s.Total += o.Total
	s.Covered += o.Covered
	s.Skipped += o.Skipped
	s.Pct = Percent(s.Covered, s.Total)
}

// FileSummary carries the four coverage dimensions for one source file plus
// the uncovered line ranges parsed from the trace, in file order.
type FileSummary struct {
	Statements Stat     `json:"statements"`
	Branches   Stat     `json:"branches"`
	Functions  Stat     `json:"functions"`
	Lines      Stat     `json:"lines"`
	Uncovered  []string `json:"uncovered,omitempty"`
}

// TotalKey is the reserved ProjectSummary key holding the project aggregate.
const TotalKey = "total"

// ProjectSummary maps project-relative file paths to their summaries while
// preserving insertion order. Iteration order of the rendered report follows
// this order, not any sort.
type ProjectSummary struct {
	order []string
	files map[string]*FileSummary
	total *FileSummary
}

// NewProjectSummary returns an empty summary.
func NewProjectSummary() *ProjectSummary {
	return &ProjectSummary{files: make(map[string]*FileSummary)}
}

// Put stores a file summary under path, appending to the iteration order if
// the path is new. The reserved "total" key is routed to the total slot.
func (s *ProjectSummary) Put(path string, fs *FileSummary) {
	if path == TotalKey {
		s.total = fs
		return
	}
	if _, ok := s.files[path]; !ok {
		s.order = append(s.order, path)
	}
	s.files[path] = fs
}

// Get returns the summary stored for path, if any.
func (s *ProjectSummary) Get(path string) (*FileSummary, bool) {
	fs, ok := s.files[path]
	return fs, ok
}

// Paths returns file paths in insertion order, excluding "total".
func (s *ProjectSummary) Paths() []string {
	return s.order
}

// Total returns the project-wide aggregate entry, or nil if absent.
func (s *ProjectSummary) Total() *FileSummary {
	return s.total
}

// Len reports the number of file entries, excluding "total".
func (s *ProjectSummary) Len() int {
	return len(s.order)
}

// MarshalJSON writes files in insertion order with "total" last, so a
// round-tripped document loads back in the same order.
func (s *ProjectSummary) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i, path := range s.order {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(path)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.files[path])
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	if s.total != nil {
		if len(s.order) > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, []byte(`"total":`)...)
		v, err := json.Marshal(s.total)
		if err != nil {
			return nil, err
		}
		buf = append(buf, v...)
	}
	buf = append(buf, '}')
	return buf, nil
}
