// Package sqlite indexes a ledger in an in-memory SQLite database so it can
// be filtered and summarised with SQL. The CSV ledger stays the source of
// truth; an Index is rebuilt from it on every use and never written back.
package sqlite

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/radonledger/internal/ledger"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

const tableName = "ledger"

// Hidden columns kept next to the schema columns.
const (
	colOrder   = "_row_order"
	colKeyNum  = "_key_num"
	colKeyText = "_key_text"
)

// Index is a queryable copy of one ledger.
type Index struct {
	db     *sql.DB
	schema types.Schema
	rows   int
}

// Stats summarises a numeric column.
type Stats struct {
	Column string  `json:"column" yaml:"column"`
	Count  int     `json:"count" yaml:"count"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
}

// Open creates an empty index for schema.
func Open(schema types.Schema) (*Index, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	cols := make([]string, 0, len(schema.Columns)+3)
	for _, c := range schema.Columns {
		cols = append(cols, quote(c)+" TEXT")
	}
	cols = append(cols,
		quote(colOrder)+" INTEGER NOT NULL",
		quote(colKeyNum)+" REAL",
		quote(colKeyText)+" TEXT NOT NULL",
	)
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", tableName, strings.Join(cols, ", "))
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index table: %w", err)
	}
	return &Index{db: db, schema: schema}, nil
}

// OpenLedger builds an index holding every row of l.
func OpenLedger(l *ledger.Ledger) (*Index, error) {
	rows, err := l.Rows()
	if err != nil {
		return nil, err
	}
	idx, err := Open(l.Schema())
	if err != nil {
		return nil, err
	}
	if err := idx.Load(rows); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

// Close releases the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// Len returns the number of rows loaded.
func (x *Index) Len() int { return x.rows }

// Load inserts rows after any already loaded. Loading is transactional:
// either every row is inserted or none is.
func (x *Index) Load(rows []types.Record) error {
	tx, err := x.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	cols := make([]string, 0, len(x.schema.Columns)+3)
	for _, c := range x.schema.Columns {
		cols = append(cols, quote(c))
	}
	cols = append(cols, quote(colOrder), quote(colKeyNum), quote(colKeyText))
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, strings.Join(cols, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(x.schema.Columns) {
			return fmt.Errorf("%w: row %d has %d fields, schema has %d", types.ErrArity, x.rows+i+1, len(row), len(x.schema.Columns))
		}
		key, err := types.ParseKey(row[x.schema.KeyIndex])
		if err != nil {
			return fmt.Errorf("row %d: %w", x.rows+i+1, err)
		}
		args := make([]any, 0, len(cols))
		for _, v := range row {
			args = append(args, v)
		}
		var keyNum any
		if key.Numeric() {
			keyNum = key.Float()
		}
		args = append(args, x.rows+i, keyNum, key.String())
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", x.rows+i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	x.rows += len(rows)
	return nil
}

// Fetch returns the rows matching every column=value pair of filter, in key
// order. Numeric keys sort by value ahead of text keys. A filter on the key
// column matches by key, so run=1547 finds a row keyed 1547.0.
func (x *Index) Fetch(filter map[string]string) ([]types.Record, error) {
	names := make([]string, 0, len(filter))
	for name := range filter {
		names = append(names, name)
	}
	slices.Sort(names)

	var where []string
	var args []any
	for _, name := range names {
		i, err := x.schema.Index(name)
		if err != nil {
			return nil, err
		}
		value := filter[name]
		if i != x.schema.KeyIndex {
			where = append(where, quote(name)+" = ?")
			args = append(args, value)
			continue
		}
		key, err := types.ParseKey(value)
		if err != nil {
			return nil, err
		}
		if key.Numeric() {
			where = append(where, quote(colKeyNum)+" = ?")
			args = append(args, key.Float())
		} else {
			where = append(where, quote(colKeyNum)+" IS NULL AND "+quote(colKeyText)+" = ?")
			args = append(args, key.String())
		}
	}

	cols := make([]string, len(x.schema.Columns))
	for i, c := range x.schema.Columns {
		cols[i] = quote(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), tableName)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s IS NULL, %s, %s, %s",
		quote(colKeyNum), quote(colKeyNum), quote(colKeyText), quote(colOrder))

	rows, err := x.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		rec := make(types.Record, len(cols))
		dest := make([]any, len(cols))
		for i := range rec {
			dest[i] = &rec[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summary returns count, min, max and mean of a numeric column.
// Returns ErrMalformedRow if any value is not a number.
func (x *Index) Summary(column string) (Stats, error) {
	if _, err := x.schema.Index(column); err != nil {
		return Stats{}, err
	}
	c := quote(column)
	// A TEXT value equals its REAL cast only when it is a well-formed number.
	query := fmt.Sprintf(
		"SELECT COUNT(*), COALESCE(SUM(CAST(%[1]s AS REAL) = %[1]s), 0), MIN(CAST(%[1]s AS REAL)), MAX(CAST(%[1]s AS REAL)), AVG(CAST(%[1]s AS REAL)) FROM %[2]s",
		c, tableName)

	var (
		total, numeric int
		lo, hi, mean   sql.NullFloat64
	)
	if err := x.db.QueryRow(query).Scan(&total, &numeric, &lo, &hi, &mean); err != nil {
		return Stats{}, fmt.Errorf("summarising %s: %w", column, err)
	}
	if numeric != total {
		return Stats{}, fmt.Errorf("%w: %d of %d values in %s are not numeric", types.ErrMalformedRow, total-numeric, total, column)
	}
	return Stats{Column: column, Count: total, Min: lo.Float64, Max: hi.Float64, Mean: mean.Float64}, nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
