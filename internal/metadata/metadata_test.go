package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/radonledger/pkg/types"
)

const listV1 = `# RUN RUN_START DURATION STOP COMMENT
1547 1700000000 3600 1700003600 radon
1548 1700003600 1800 1700005400

# calibration runs are not listed
1547 1 1 1 duplicate
`

const listV2 = `2000	1710000000	7200	1710007200	post   # trailing comment
2001 1710007200 600
`

func writeList(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestParse(t *testing.T) {
	runs, err := Parse(strings.NewReader(listV1), "v1")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, types.RunInfo{Run: 1547, Start: 1700000000, Duration: 3600, Stop: 1700003600, Comment: "radon"}, runs[1547], "first row wins")
	assert.Equal(t, types.RunInfo{Run: 1548, Start: 1700003600, Duration: 1800, Stop: 1700005400}, runs[1548])
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"too few fields", "1547 1700000000\n"},
		{"non-numeric run", "run1547 1 2\n"},
		{"non-numeric start", "1547 start 2\n"},
		{"non-numeric duration", "1547 1 long\n"},
		{"non-numeric stop", "1547 1 2 never\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.body), "bad.list")
			assert.ErrorIs(t, err, types.ErrMalformedRow)
			assert.Contains(t, err.Error(), "bad.list line 1")
		})
	}
}

func TestLookup(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Load(writeList(t, dir, "v1.list", listV1), writeList(t, dir, "v2.list", listV2))
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())

	info, err := tbl.Lookup(1547)
	require.NoError(t, err)
	assert.Equal(t, 1700001800.0, info.Midrun())

	info, err = tbl.Lookup(2000)
	require.NoError(t, err)
	assert.Equal(t, 7200.0, info.Duration)
	assert.Equal(t, "post", info.Comment)

	_, err = tbl.Lookup(1799)
	assert.ErrorIs(t, err, types.ErrRunNotFound)
}

func TestLookupFirstListWins(t *testing.T) {
	dir := t.TempDir()
	tbl, err := Load(
		writeList(t, dir, "a.list", "1547 10 20\n"),
		writeList(t, dir, "b.list", "1547 30 40\n"),
	)
	require.NoError(t, err)

	info, err := tbl.Lookup(1547)
	require.NoError(t, err)
	assert.Equal(t, 10.0, info.Start)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.list"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunNumber(t *testing.T) {
	tests := []struct {
		path    string
		want    int
		wantErr bool
	}{
		{"/sps/data/run_1547.root", 1547, false},
		{"run_2000.root", 2000, false},
		{"data/cut5/run_1800.root", 1800, false},
		{"/sps/data/background.root", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := RunNumber(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify(t *testing.T) {
	phases := types.DefaultPhases()
	tests := []struct {
		run    int
		want   int
		wantOK bool
	}{
		{1546, types.PhaseInjection, true},
		{1700, types.PhaseInjection, true},
		{1798, types.PhaseInjection, true},
		{1799, types.PhaseUnidentified, false},
		{2000, types.PhasePostInjection, true},
		{2672, types.PhasePostInjection, true},
		{2673, types.PhaseUnidentified, false},
		{1000, types.PhaseUnidentified, false},
	}
	for _, tt := range tests {
		got, ok := Classify(tt.run, phases)
		assert.Equal(t, tt.want, got, "run %d", tt.run)
		assert.Equal(t, tt.wantOK, ok, "run %d", tt.run)
	}
}
