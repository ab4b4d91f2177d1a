// Package metadata reads run metadata lists and classifies runs by phase.
//
// A list file is whitespace-delimited with the columns
//
//	RUN RUN_START DURATION STOP COMMENT
//
// where '#' starts a comment. Several lists may be consulted; the first one
// that knows a run wins.
package metadata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// source is one parsed list file.
type source struct {
	name string
	runs map[int]types.RunInfo
}

// Table answers run lookups from one or more list files.
type Table struct {
	sources []source
}

// Load parses each list file in order.
func Load(paths ...string) (*Table, error) {
	t := &Table{}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("opening metadata list: %w", err)
		}
		runs, err := Parse(f, p)
		f.Close()
		if err != nil {
			return nil, err
		}
		t.sources = append(t.sources, source{name: p, runs: runs})
	}
	return t, nil
}

// Parse reads one list. name is used in error messages. When a run appears
// twice the first row is kept.
func Parse(r io.Reader, name string) (map[int]types.RunInfo, error) {
	runs := make(map[int]types.RunInfo)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		info, err := parseFields(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", types.ErrMalformedRow, name, line, err)
		}
		if _, dup := runs[info.Run]; !dup {
			runs[info.Run] = info
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", name, err)
	}
	return runs, nil
}

func parseFields(fields []string) (types.RunInfo, error) {
	if len(fields) < 3 {
		return types.RunInfo{}, fmt.Errorf("want at least RUN RUN_START DURATION, got %d fields", len(fields))
	}
	run, err := strconv.Atoi(fields[0])
	if err != nil {
		return types.RunInfo{}, fmt.Errorf("run %q: %v", fields[0], err)
	}
	start, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return types.RunInfo{}, fmt.Errorf("run start %q: %v", fields[1], err)
	}
	duration, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return types.RunInfo{}, fmt.Errorf("duration %q: %v", fields[2], err)
	}
	info := types.RunInfo{Run: run, Start: start, Duration: duration}
	if len(fields) > 3 {
		stop, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return types.RunInfo{}, fmt.Errorf("stop %q: %v", fields[3], err)
		}
		info.Stop = stop
	}
	if len(fields) > 4 {
		info.Comment = strings.Join(fields[4:], " ")
	}
	return info, nil
}

// Lookup returns the metadata of run from the first list that has it.
// Returns ErrRunNotFound if no list does.
func (t *Table) Lookup(run int) (types.RunInfo, error) {
	for _, s := range t.sources {
		if info, ok := s.runs[run]; ok {
			return info, nil
		}
	}
	return types.RunInfo{}, fmt.Errorf("%w: run %d (searched %d lists)", types.ErrRunNotFound, run, len(t.sources))
}

// Len returns the number of distinct runs across all lists.
func (t *Table) Len() int {
	seen := make(map[int]bool)
	for _, s := range t.sources {
		for run := range s.runs {
			seen[run] = true
		}
	}
	return len(seen)
}

// RunNumber extracts the run number from a data file name by concatenating
// the digits of its base name: ".../run_1547.root" is run 1547.
func RunNumber(path string) (int, error) {
	base := filepath.Base(path)
	var b strings.Builder
	for _, r := range base {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("%w: no run number in %q", types.ErrInvalidKey, base)
	}
	run, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, fmt.Errorf("%w: run number in %q: %v", types.ErrInvalidKey, base, err)
	}
	return run, nil
}

// Classify returns the phase of run. ok is false when no range contains the
// run, in which case the phase is PhaseUnidentified.
func Classify(run int, phases []types.PhaseRange) (phase int, ok bool) {
	for _, p := range phases {
		if run >= p.First && run <= p.Last {
			return p.Phase, true
		}
	}
	return types.PhaseUnidentified, false
}
