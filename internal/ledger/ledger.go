// Package ledger implements the CSV ledger: a header row plus data rows with
// exactly one row per key.
//
// Every write loads the whole table, applies the change in memory and
// atomically rewrites the file. Upserts append at the tail; SortByKey puts the
// rows in key order once a batch is done.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// table is the in-memory form of a ledger file.
type table struct {
	header []string
	rows   []types.Record
}

// load reads path into a table. A missing or empty file yields a table with
// the expected header and no rows. When expected is non-nil the on-disk
// header must match it exactly.
func load(path string, expected []string) (*table, bool, error) {
	raw, err := readCSV(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &table{header: slices.Clone(expected)}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return &table{header: slices.Clone(expected)}, true, nil
	}

	header := raw[0]
	if expected != nil && !slices.Equal(header, expected) {
		return nil, true, fmt.Errorf("%w: %s has %v, want %v", types.ErrHeaderMismatch, path, header, expected)
	}

	t := &table{header: header, rows: make([]types.Record, 0, len(raw)-1)}
	for i, row := range raw[1:] {
		if len(row) != len(header) {
			// Line numbers are 1-based and the header is line 1.
			return nil, true, fmt.Errorf("%w: %s line %d has %d fields, header has %d",
				types.ErrMalformedRow, path, i+2, len(row), len(header))
		}
		t.rows = append(t.rows, types.Record(row))
	}
	return t, true, nil
}

// keyAt parses the key field of row.
func keyAt(row types.Record, keyIndex int) (types.Key, error) {
	k, err := types.ParseKey(row[keyIndex])
	if err != nil {
		return types.Key{}, fmt.Errorf("%w: %v", types.ErrMalformedRow, err)
	}
	return k, nil
}

// upsert removes any row with the same key as rec and appends rec.
func (t *table) upsert(keyIndex int, rec types.Record) error {
	key, err := types.ParseKey(rec[keyIndex])
	if err != nil {
		return err
	}
	kept := t.rows[:0]
	for _, row := range t.rows {
		k, err := keyAt(row, keyIndex)
		if err != nil {
			return err
		}
		if !k.Equal(key) {
			kept = append(kept, row)
		}
	}
	t.rows = append(kept, rec.Clone())
	return nil
}

// sort orders rows by key, stable so equal keys keep their relative order.
func (t *table) sort(keyIndex int) error {
	keys := make(map[int]types.Key, len(t.rows))
	idx := make([]int, len(t.rows))
	for i, row := range t.rows {
		k, err := keyAt(row, keyIndex)
		if err != nil {
			return err
		}
		keys[i] = k
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return keys[a].Compare(keys[b])
	})
	sorted := make([]types.Record, len(idx))
	for i, j := range idx {
		sorted[i] = t.rows[j]
	}
	t.rows = sorted
	return nil
}

// Upsert merges rec into the ledger at path, replacing any row whose key
// column (keyIndex) holds the same key. header is used when the file is
// created and is checked against the on-disk header otherwise.
func Upsert(path string, header []string, keyIndex int, rec types.Record) error {
	if len(rec) != len(header) {
		return fmt.Errorf("%w: record has %d fields, header has %d", types.ErrArity, len(rec), len(header))
	}
	if keyIndex < 0 || keyIndex >= len(header) {
		return fmt.Errorf("%w: key index %d out of range", types.ErrInvalidKey, keyIndex)
	}
	t, _, err := load(path, header)
	if err != nil {
		return err
	}
	if err := t.upsert(keyIndex, rec); err != nil {
		return err
	}
	return writeCSV(path, t.header, t.rows)
}

// SortByKey rewrites the ledger at path with its rows ordered by keyColumn.
// Numeric keys sort by value; text keys follow, lexicographically. A missing
// ledger is left alone.
func SortByKey(path, keyColumn string) error {
	t, exists, err := load(path, nil)
	if err != nil {
		return err
	}
	if !exists || len(t.header) == 0 {
		return nil
	}
	keyIndex := slices.Index(t.header, keyColumn)
	if keyIndex < 0 {
		return fmt.Errorf("%w: %q not in %s", types.ErrUnknownColumn, keyColumn, path)
	}
	if err := t.sort(keyIndex); err != nil {
		return err
	}
	return writeCSV(path, t.header, t.rows)
}

// Ledger binds a ledger file to its schema.
type Ledger struct {
	path   string
	schema types.Schema
}

// Open returns a Ledger for path. The file is not touched until the first
// read or write.
func Open(path string, schema types.Schema) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: ledger path is empty", types.ErrConfigInvalid)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Ledger{path: path, schema: schema}, nil
}

// OpenFile returns a Ledger for an existing file whose schema is taken from
// its header. keyColumn names the key column; empty means the first column.
func OpenFile(path, keyColumn string) (*Ledger, error) {
	t, exists, err := load(path, nil)
	if err != nil {
		return nil, err
	}
	if !exists || len(t.header) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", types.ErrNotFound, path)
	}
	keyIndex := 0
	if keyColumn != "" {
		keyIndex = slices.Index(t.header, keyColumn)
		if keyIndex < 0 {
			return nil, fmt.Errorf("%w: %q not in %s", types.ErrUnknownColumn, keyColumn, path)
		}
	}
	return Open(path, types.Schema{Name: filepath.Base(path), Columns: t.header, KeyIndex: keyIndex})
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Schema returns the ledger schema.
func (l *Ledger) Schema() types.Schema { return l.schema }

// Exists reports whether the ledger file has been created.
func (l *Ledger) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Upsert inserts rec or replaces the row with the same key.
func (l *Ledger) Upsert(rec types.Record) error {
	return Upsert(l.path, l.schema.Columns, l.schema.KeyIndex, rec)
}

// Sort orders the ledger rows by key.
func (l *Ledger) Sort() error {
	return SortByKey(l.path, l.schema.KeyColumn())
}

// Load returns the header and data rows. A missing ledger yields the schema
// header and no rows.
func (l *Ledger) Load() ([]string, []types.Record, error) {
	t, _, err := load(l.path, l.schema.Columns)
	if err != nil {
		return nil, nil, err
	}
	return t.header, t.rows, nil
}

// Rows returns the data rows in file order. A missing ledger has no rows.
func (l *Ledger) Rows() ([]types.Record, error) {
	t, _, err := load(l.path, l.schema.Columns)
	if err != nil {
		return nil, err
	}
	return t.rows, nil
}

// Get returns the row whose key equals key.
// Returns ErrNotFound if no row matches.
func (l *Ledger) Get(key string) (types.Record, error) {
	want, err := types.ParseKey(key)
	if err != nil {
		return nil, err
	}
	rows, err := l.Rows()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		k, err := keyAt(row, l.schema.KeyIndex)
		if err != nil {
			return nil, err
		}
		if k.Equal(want) {
			return row, nil
		}
	}
	return nil, fmt.Errorf("%w: %s=%s", types.ErrNotFound, l.schema.KeyColumn(), key)
}

// Column parses every value of a numeric column.
func (l *Ledger) Column(name string) ([]float64, error) {
	i, err := l.schema.Index(name)
	if err != nil {
		return nil, err
	}
	rows, err := l.Rows()
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(rows))
	for n, row := range rows {
		v, err := types.ParseFloat(row[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d column %s: %v", types.ErrMalformedRow, l.path, n+1, name, err)
		}
		out = append(out, v)
	}
	return out, nil
}
