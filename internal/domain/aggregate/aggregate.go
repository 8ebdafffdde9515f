// Package aggregate derives small grouped tables from the match tables.
// Every function is pure: it reads an immutable table and returns a fresh
// Aggregate owned by the caller.
package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/okian/cupstats/internal/domain/dataset"
	"github.com/okian/cupstats/internal/domain/model"
)

// Row is one group: its key labels in Aggregate.Keys order and the metric.
type Row struct {
	Keys  []string `json:"keys"`
	Value int64    `json:"value"`
}

// Aggregate is an ordered sequence of (key, metric) pairs.
type Aggregate struct {
	Name   string        `json:"name"`
	Keys   []model.Field `json:"keys"`
	Metric model.Field   `json:"metric"`
	Rows   []Row         `json:"rows"`
}

// Len returns the number of groups.
func (a *Aggregate) Len() int { return len(a.Rows) }

// Empty reports whether the aggregate has no groups.
func (a *Aggregate) Empty() bool { return len(a.Rows) == 0 }

// Fields returns the key fields followed by the metric.
func (a *Aggregate) Fields() []model.Field {
	return append(slices.Clone(a.Keys), a.Metric)
}

// Has reports whether f is a key or the metric of a.
func (a *Aggregate) Has(f model.Field) bool {
	return f == a.Metric || slices.Contains(a.Keys, f)
}

// Labels returns the key labels of field f, one per row.
func (a *Aggregate) Labels(f model.Field) ([]string, error) {
	i := slices.Index(a.Keys, f)
	if i < 0 {
		return nil, model.NewSchemaError(a.Name, string(f))
	}
	out := make([]string, len(a.Rows))
	for r, row := range a.Rows {
		out[r] = row.Keys[i]
	}
	return out, nil
}

// Values returns the metric values, one per row.
func (a *Aggregate) Values() []int64 {
	out := make([]int64, len(a.Rows))
	for i, row := range a.Rows {
		out[i] = row.Value
	}
	return out
}

// Total sums the metric over all rows.
func (a *Aggregate) Total() int64 {
	var n int64
	for _, row := range a.Rows {
		n += row.Value
	}
	return n
}

func (a *Aggregate) with(rows []Row) *Aggregate {
	return &Aggregate{Name: a.Name, Keys: slices.Clone(a.Keys), Metric: a.Metric, Rows: rows}
}

// Named returns a copy of a under a new name and metric label.
func (a *Aggregate) Named(name string, metric model.Field) *Aggregate {
	out := a.with(slices.Clone(a.Rows))
	out.Name = name
	out.Metric = metric
	return out
}

// SortAscending returns a copy ordered by ascending metric. Ties keep their
// current relative order.
func (a *Aggregate) SortAscending() *Aggregate {
	rows := slices.Clone(a.Rows)
	slices.SortStableFunc(rows, func(x, y Row) int { return cmp.Compare(x.Value, y.Value) })
	return a.with(rows)
}

// SortDescending returns a copy ordered by descending metric. Ties keep their
// current relative order.
func (a *Aggregate) SortDescending() *Aggregate {
	rows := slices.Clone(a.Rows)
	slices.SortStableFunc(rows, func(x, y Row) int { return cmp.Compare(y.Value, x.Value) })
	return a.with(rows)
}

// Head returns a copy holding at most the first n rows.
func (a *Aggregate) Head(n int) *Aggregate {
	n = max(0, min(n, len(a.Rows)))
	return a.with(slices.Clone(a.Rows[:n]))
}

// MaxPer keeps, for every distinct value of field f, the first row holding the
// largest metric. Output follows the order in which f values first appear.
func (a *Aggregate) MaxPer(f model.Field) (*Aggregate, error) {
	i := slices.Index(a.Keys, f)
	if i < 0 {
		return nil, model.NewSchemaError(a.Name, string(f))
	}
	best := make(map[string]int)
	rows := make([]Row, 0, len(a.Rows))
	for _, row := range a.Rows {
		k := row.Keys[i]
		j, ok := best[k]
		if !ok {
			best[k] = len(rows)
			rows = append(rows, row)
			continue
		}
		if row.Value > rows[j].Value {
			rows[j] = row
		}
	}
	return a.with(rows), nil
}

// Measure extracts the metric contribution of one row. Fields lists the
// columns Value reads; GroupBy requires them alongside the keys.
type Measure struct {
	Fields []model.Field
	Value  func(t *dataset.Table, i int) int64
}

// CountRows contributes one per row.
var CountRows = Measure{Value: func(*dataset.Table, int) int64 { return 1 }}

// SumOf contributes the integer value of field f. Missing cells add nothing.
func SumOf(f model.Field) Measure {
	return Measure{
		Fields: []model.Field{f},
		Value: func(t *dataset.Table, i int) int64 {
			v := t.Value(i, f)
			if v.Null {
				return 0
			}
			return v.Int
		},
	}
}

type group struct {
	vals  []model.Value
	value int64
}

// GroupBy groups t by keys and reduces each group with m. Groups come out in
// ascending key order; rows with an empty or missing key are skipped.
func GroupBy(t *dataset.Table, name string, metric model.Field, m Measure, keys ...model.Field) (*Aggregate, error) {
	if err := t.Require(append(slices.Clone(keys), m.Fields...)...); err != nil {
		return nil, err
	}
	groups := make(map[string]*group)
	var order []*group
	for i := 0; i < t.Len(); i++ {
		vals, id, ok := keyOf(t, i, keys)
		if !ok {
			continue
		}
		g, seen := groups[id]
		if !seen {
			g = &group{vals: vals}
			groups[id] = g
			order = append(order, g)
		}
		g.value += m.Value(t, i)
	}
	slices.SortStableFunc(order, func(x, y *group) int { return compareKeys(x.vals, y.vals) })

	rows := make([]Row, len(order))
	for i, g := range order {
		rows[i] = newRow(g.vals, g.value)
	}
	return &Aggregate{Name: name, Keys: slices.Clone(keys), Metric: metric, Rows: rows}, nil
}

// ValueCounts counts the occurrences of each value of f, most frequent first.
// Ties keep the order in which values first appear in t.
func ValueCounts(t *dataset.Table, name string, metric model.Field, f model.Field) (*Aggregate, error) {
	if err := t.Require(f); err != nil {
		return nil, err
	}
	groups := make(map[string]*group)
	var order []*group
	for i := 0; i < t.Len(); i++ {
		vals, id, ok := keyOf(t, i, []model.Field{f})
		if !ok {
			continue
		}
		g, seen := groups[id]
		if !seen {
			g = &group{vals: vals}
			groups[id] = g
			order = append(order, g)
		}
		g.value++
	}
	rows := make([]Row, len(order))
	for i, g := range order {
		rows[i] = newRow(g.vals, g.value)
	}
	a := &Aggregate{Name: name, Keys: []model.Field{f}, Metric: metric, Rows: rows}
	return a.SortDescending(), nil
}

// Distinct counts the distinct non-empty values of f.
func Distinct(t *dataset.Table, f model.Field) (int, error) {
	if err := t.Require(f); err != nil {
		return 0, err
	}
	seen := make(map[string]struct{})
	for i := 0; i < t.Len(); i++ {
		v := t.Value(i, f)
		if v.Empty() {
			continue
		}
		seen[v.String()] = struct{}{}
	}
	return len(seen), nil
}

// Sum totals integer field f over t.
func Sum(t *dataset.Table, f model.Field) (int64, error) {
	if err := t.Require(f); err != nil {
		return 0, err
	}
	var n int64
	for i := 0; i < t.Len(); i++ {
		if v := t.Value(i, f); !v.Null {
			n += v.Int
		}
	}
	return n, nil
}

func keyOf(t *dataset.Table, i int, keys []model.Field) ([]model.Value, string, bool) {
	vals := make([]model.Value, len(keys))
	parts := make([]string, len(keys))
	for k, f := range keys {
		v := t.Value(i, f)
		if v.Empty() {
			return nil, "", false
		}
		vals[k] = v
		parts[k] = v.String()
	}
	return vals, strings.Join(parts, "\x1f"), true
}

func compareKeys(x, y []model.Value) int {
	for i := range x {
		if c := x[i].Compare(y[i]); c != 0 {
			return c
		}
	}
	return 0
}

func newRow(vals []model.Value, value int64) Row {
	labels := make([]string, len(vals))
	for i, v := range vals {
		labels[i] = v.String()
	}
	return Row{Keys: labels, Value: value}
}
