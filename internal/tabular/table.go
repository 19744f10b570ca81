// Package tabular reads and writes the numeric column tables exchanged with
// the solver and the plotting tools: per-timestep element snapshots, ID
// maps, and trajectory summaries.
package tabular

import (
	"fmt"

	"github.com/banshee-data/texture.report/internal/aggregate"
)

// UnknownColumnError reports a column missing from a table. It matches
// aggregate.ErrUnknownField.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("tabular: no column %q", e.Column)
}

func (e *UnknownColumnError) Is(target error) bool {
	return target == aggregate.ErrUnknownField
}

// Table is an ordered set of named float columns. Columns may differ in
// length.
type Table struct {
	names  []string
	values map[string][]float64
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[string][]float64)}
}

// Set adds or replaces a column. New columns go last.
func (t *Table) Set(name string, values []float64) {
	if _, ok := t.values[name]; !ok {
		t.names = append(t.names, name)
	}
	t.values[name] = values
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) ([]float64, error) {
	v, ok := t.values[name]
	if !ok {
		return nil, &UnknownColumnError{Column: name}
	}
	return v, nil
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Rows returns the length of the longest column.
func (t *Table) Rows() int {
	n := 0
	for _, v := range t.values {
		n = max(n, len(v))
	}
	return n
}
