// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repository

import (
	"sort"

	"github.com/pdiddy/openadas/internal/errors"
)

// Record is the stored form of one rate record: named independent axes,
// dependent tables spanning one or more of those axes, and reference
// scalars. Table values are flattened row-major over the table's axes.
type Record struct {
	Axes    map[string][]float64 `json:"axes,omitempty" yaml:"axes,omitempty"`
	Tables  map[string]Table     `json:"tables,omitempty" yaml:"tables,omitempty"`
	Scalars map[string]float64   `json:"scalars,omitempty" yaml:"scalars,omitempty"`
}

// Table is a dependent quantity tabulated over the named axes.
type Table struct {
	Axes   []string  `json:"axes" yaml:"axes,flow"`
	Values []float64 `json:"values" yaml:"values,flow"`
}

// Validate checks that every table spans declared, non-empty axes and
// holds exactly the outer-product number of values.
func (r Record) Validate() error {
	if len(r.Axes) == 0 && len(r.Tables) == 0 && len(r.Scalars) == 0 {
		return errors.ShapeMismatchf("record is empty")
	}
	for _, name := range sortedKeys(r.Axes) {
		if len(r.Axes[name]) == 0 {
			return errors.ShapeMismatchf("axis %q is empty", name)
		}
	}
	for _, name := range sortedKeys(r.Tables) {
		table := r.Tables[name]
		if len(table.Axes) == 0 {
			return errors.ShapeMismatchf("table %q declares no axes", name)
		}
		want := 1
		for _, axis := range table.Axes {
			values, ok := r.Axes[axis]
			if !ok {
				return errors.ShapeMismatchf("table %q spans undeclared axis %q", name, axis)
			}
			want *= len(values)
		}
		if len(table.Values) != want {
			return errors.ShapeMismatchf("table %q has %d values, axes %v imply %d",
				name, len(table.Values), table.Axes, want)
		}
	}
	return nil
}

// Axis returns a copy of the named axis.
func (r Record) Axis(name string) ([]float64, error) {
	values, ok := r.Axes[name]
	if !ok {
		return nil, errors.ShapeMismatchf("record has no axis %q", name)
	}
	return append([]float64(nil), values...), nil
}

// Scalar returns the named scalar.
func (r Record) Scalar(name string) (float64, error) {
	v, ok := r.Scalars[name]
	if !ok {
		return 0, errors.ShapeMismatchf("record has no scalar %q", name)
	}
	return v, nil
}

// Vector returns a one-dimensional table after checking it spans axis.
func (r Record) Vector(name, axis string) ([]float64, error) {
	table, err := r.table(name, axis)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), table.Values...), nil
}

// Matrix returns a two-dimensional table indexed [row][col] after
// checking it spans (rowAxis, colAxis).
func (r Record) Matrix(name, rowAxis, colAxis string) ([][]float64, error) {
	table, err := r.table(name, rowAxis, colAxis)
	if err != nil {
		return nil, err
	}
	cols := len(r.Axes[colAxis])
	rows := len(r.Axes[rowAxis])
	out := make([][]float64, rows)
	for i := range out {
		out[i] = append([]float64(nil), table.Values[i*cols:(i+1)*cols]...)
	}
	return out, nil
}

func (r Record) table(name string, axes ...string) (Table, error) {
	table, ok := r.Tables[name]
	if !ok {
		return Table{}, errors.ShapeMismatchf("record has no table %q", name)
	}
	if !equalStrings(table.Axes, axes) {
		return Table{}, errors.ShapeMismatchf("table %q spans %v, expected %v", name, table.Axes, axes)
	}
	want := 1
	for _, axis := range axes {
		values, ok := r.Axes[axis]
		if !ok {
			return Table{}, errors.ShapeMismatchf("table %q spans undeclared axis %q", name, axis)
		}
		want *= len(values)
	}
	if len(table.Values) != want {
		return Table{}, errors.ShapeMismatchf("table %q has %d values, expected %d", name, len(table.Values), want)
	}
	return table, nil
}

// flatten packs a [row][col] matrix row-major, rejecting ragged input.
func flatten(name string, m [][]float64, rows, cols int) ([]float64, error) {
	if len(m) != rows {
		return nil, errors.ShapeMismatchf("table %q has %d rows, expected %d", name, len(m), rows)
	}
	out := make([]float64, 0, rows*cols)
	for i, row := range m {
		if len(row) != cols {
			return nil, errors.ShapeMismatchf("table %q row %d has %d values, expected %d", name, i, len(row), cols)
		}
		out = append(out, row...)
	}
	return out, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
