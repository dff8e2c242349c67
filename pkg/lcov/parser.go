// Package lcov reconstructs uncovered line ranges and per-file summary
// counters from an LCOV line-coverage trace.
package lcov

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	fileMarkerPrefix = "SF:"
	lineRecordPrefix = "DA:"
)

// state is the open-range bookkeeping for the current file section. It is
// an explicit struct rather than ambient globals so a single line step is
// testable in isolation.
type state struct {
	file      string
	begin     int
	end       int
	recording bool
}

// FileStats holds the summary counters an LCOV section reports for one
// file: lines (LF/LH), functions (FNF/FNH) and branches (BRF/BRH).
type FileStats struct {
	LinesFound     int
	LinesHit       int
	FunctionsFound int
	FunctionsHit   int
	BranchesFound  int
	BranchesHit    int
}

// Result holds per-file uncovered ranges and counters in trace discovery
// order.
type Result struct {
	order  []string
	ranges map[string][]string
	stats  map[string]*FileStats
}

func newResult() *Result {
	return &Result{
		ranges: make(map[string][]string),
		stats:  make(map[string]*FileStats),
	}
}

// Files returns every file path seen in the trace, in the order of its SF
// markers. Fully covered files are included with an empty range sequence.
func (r *Result) Files() []string {
	return r.order
}

// Ranges returns the uncovered ranges recorded for file, in discovery
// order. Ranges are single line numbers ("12") or inclusive spans ("20-25").
func (r *Result) Ranges(file string) []string {
	return r.ranges[file]
}

// Stats returns the summary counters recorded for file.
func (r *Result) Stats(file string) FileStats {
	if st, ok := r.stats[file]; ok {
		return *st
	}
	return FileStats{}
}

// LineStats implements summary.UncoveredSource.
func (r *Result) LineStats(file string) (found, hit int) {
	st := r.Stats(file)
	return st.LinesFound, st.LinesHit
}

// FunctionStats implements summary.UncoveredSource.
func (r *Result) FunctionStats(file string) (found, hit int) {
	st := r.Stats(file)
	return st.FunctionsFound, st.FunctionsHit
}

// BranchStats implements summary.UncoveredSource.
func (r *Result) BranchStats(file string) (found, hit int) {
	st := r.Stats(file)
	return st.BranchesFound, st.BranchesHit
}

func (r *Result) file(path string) *FileStats {
	st, ok := r.stats[path]
	if !ok {
		st = &FileStats{}
		r.stats[path] = st
		r.order = append(r.order, path)
	}
	return st
}

// Parser consumes a trace one line at a time.
type Parser struct {
	st  state
	res *Result
}

// NewParser returns a parser with no current file and nothing recorded.
func NewParser() *Parser {
	return &Parser{res: newResult()}
}

// ParseLine processes a single trace line. A DA record with a zero hit
// count opens or extends the current uncovered range; any other line closes
// an open range. An SF marker additionally switches the current file, and
// the LF/LH, FNF/FNH and BRF/BRH counter records feed the file's stats.
func (p *Parser) ParseLine(line string) {
	line = strings.TrimSpace(line)

	if ln, hits, ok := parseLineRecord(line); ok && hits == 0 {
		switch {
		case !p.st.recording:
			p.st.begin, p.st.end, p.st.recording = ln, ln, true
		case ln == p.st.end+1:
			p.st.end = ln
		default:
			// Records arrive by increasing line number, so a gap should not
			// happen; close the open range and start a new one if it does.
			p.closeRange()
			p.st.begin, p.st.end, p.st.recording = ln, ln, true
		}
		return
	}

	p.closeRange()

	if path, ok := strings.CutPrefix(line, fileMarkerPrefix); ok {
		p.st.file = path
		p.res.file(path)
		return
	}
	p.parseCounter(line)
}

// parseCounter consumes one of the per-section summary counter records.
func (p *Parser) parseCounter(line string) {
	if p.st.file == "" {
		return
	}
	prefix, rest, found := strings.Cut(line, ":")
	if !found {
		return
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return
	}
	st := p.res.file(p.st.file)
	switch prefix {
	case "LF":
		st.LinesFound = n
	case "LH":
		st.LinesHit = n
	case "FNF":
		st.FunctionsFound = n
	case "FNH":
		st.FunctionsHit = n
	case "BRF":
		st.BranchesFound = n
	case "BRH":
		st.BranchesHit = n
	}
}

// Flush closes a range still open when the trace ends. Skipping this drops
// the trailing range silently, so every caller must invoke it exactly once
// after the last line.
func (p *Parser) Flush() {
	p.closeRange()
}

// Result returns the ranges and counters accumulated so far.
func (p *Parser) Result() *Result {
	return p.res
}

func (p *Parser) closeRange() {
	if !p.st.recording {
		return
	}
	p.st.recording = false
	if p.st.file == "" {
		// Line records before any file marker have nowhere to go.
		return
	}
	rng := strconv.Itoa(p.st.begin)
	if p.st.end != p.st.begin {
		rng += "-" + strconv.Itoa(p.st.end)
	}
	p.res.ranges[p.st.file] = append(p.res.ranges[p.st.file], rng)
}

// parseLineRecord extracts the line number and hit count from a DA record.
// DA lines carry "line,hits" with an optional trailing checksum field.
func parseLineRecord(line string) (lineNo, hits int, ok bool) {
	rest, found := strings.CutPrefix(line, lineRecordPrefix)
	if !found {
		return 0, 0, false
	}
	fields := strings.Split(rest, ",")
	if len(fields) < 2 {
		return 0, 0, false
	}
	lineNo, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, false
	}
	hits, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, false
	}
	return lineNo, hits, true
}

// ParseReader streams a trace from r. On a mid-stream read error the
// partial result is returned alongside the error; the trailing range is not
// guaranteed to be flushed in that case.
func ParseReader(r io.Reader) (*Result, error) {
	p := NewParser()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.ParseLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return p.Result(), fmt.Errorf("read trace: %w", err)
	}
	p.Flush()
	return p.Result(), nil
}

// ParseFile parses the trace at path. A missing or unopenable trace returns
// a nil result; the caller treats that as fatal for the run.
func ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	return ParseReader(f)
}
