// Package dataset loads the match results table and derives the deduplicated
// one-row-per-match table used by every aggregation.
package dataset

import (
	"github.com/okian/cupstats/internal/domain/model"
)

// Table names used in schema errors and API payloads.
const (
	RawTable     = "raw"
	MatchesTable = "matches"
)

// Table is an immutable, schema-checked view over match rows.
type Table struct {
	name    string
	columns []model.Column
	index   map[model.Field]model.Column
	rows    []model.Match
}

func newTable(name string, columns []model.Column, rows []model.Match) *Table {
	idx := make(map[model.Field]model.Column, len(columns))
	for _, c := range columns {
		idx[c.Field] = c
	}
	return &Table{name: name, columns: columns, index: idx, rows: rows}
}

// NewRawTable wraps raw records. The TotalGoals column is absent.
func NewRawTable(records []model.MatchRecord) *Table {
	rows := make([]model.Match, len(records))
	for i, r := range records {
		rows[i] = model.Match{MatchRecord: r}
	}
	return newTable(RawTable, model.RawColumns, rows)
}

// NewMatchesTable wraps deduplicated matches, which carry TotalGoals.
func NewMatchesTable(matches []model.Match) *Table {
	rows := make([]model.Match, len(matches))
	copy(rows, matches)
	return newTable(MatchesTable, model.MatchColumns, rows)
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Len returns the row count.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the column set in declaration order.
func (t *Table) Columns() []model.Column {
	out := make([]model.Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether the table carries field f.
func (t *Table) Has(f model.Field) bool {
	_, ok := t.index[f]
	return ok
}

// Require returns a SchemaError for the first field the table lacks.
func (t *Table) Require(fields ...model.Field) error {
	for _, f := range fields {
		if !t.Has(f) {
			return model.NewSchemaError(t.name, string(f))
		}
	}
	return nil
}

// Value reads field f of row i. Callers check the field with Require first.
func (t *Table) Value(i int, f model.Field) model.Value {
	v, _ := t.rows[i].Get(f)
	return v
}

// Row returns row i.
func (t *Table) Row(i int) model.Match { return t.rows[i] }

// Head returns up to n leading rows as raw records.
func (t *Table) Head(n int) []model.MatchRecord {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n < 0 {
		n = 0
	}
	out := make([]model.MatchRecord, n)
	for i := 0; i < n; i++ {
		out[i] = t.rows[i].MatchRecord
	}
	return out
}
