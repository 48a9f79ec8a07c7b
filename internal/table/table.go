/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the declared value kind of a column.
type Kind int

const (
	Integer Kind = iota
	Real
	Text
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single typed cell. The zero Value is a missing text value.
type Value struct {
	kind    Kind
	missing bool
	i       int64
	r       float64
	s       string
}

func Int(v int64) Value      { return Value{kind: Integer, i: v} }
func Float(v float64) Value  { return Value{kind: Real, r: v} }
func String(s string) Value  { return Value{kind: Text, s: s} }
func Missing(k Kind) Value   { return Value{kind: k, missing: true} }

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.missing }

// Number returns the value as a float64. Text values fail loudly rather
// than being coerced.
func (v Value) Number() (float64, error) {
	if v.missing {
		return 0, fmt.Errorf("missing value has no numeric form")
	}
	switch v.kind {
	case Integer:
		return float64(v.i), nil
	case Real:
		return v.r, nil
	default:
		return 0, fmt.Errorf("kind mismatch: %s value is not numeric", v.kind)
	}
}

// String returns the canonical string form used for value-set comparisons.
// Integers render without decimals; reals drop a trailing ".0" so that a
// code column read as 30.0 still matches the codelist key "30".
func (v Value) String() string {
	if v.missing {
		return ""
	}
	switch v.kind {
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Real:
		// Whole reals only render as integers while they fit in int64;
		// beyond that the conversion saturates.
		if v.r == math.Trunc(v.r) && math.Abs(v.r) < 1<<62 {
			return strconv.FormatInt(int64(v.r), 10)
		}
		return strconv.FormatFloat(v.r, 'f', -1, 64)
	default:
		return v.s
	}
}

// Column is a named, typed sequence of values.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// IsNumeric reports whether the column's declared kind is a number kind.
func (c *Column) IsNumeric() bool {
	return c.Kind == Integer || c.Kind == Real
}

// DistinctStrings returns up to limit distinct non-missing values in
// canonical string form. limit <= 0 means no limit.
func (c *Column) DistinctStrings(limit int) map[string]struct{} {
	out := make(map[string]struct{})
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		out[v.String()] = struct{}{}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// DistinctCount returns the number of distinct non-missing values.
func (c *Column) DistinctCount() int {
	return len(c.DistinctStrings(0))
}

// MeanStd returns mean and standard deviation over non-missing numeric
// values. Returns an error for text columns.
func (c *Column) MeanStd() (mean, std float64, err error) {
	if !c.IsNumeric() {
		return 0, 0, fmt.Errorf("kind mismatch: column %q is %s, not numeric", c.Name, c.Kind)
	}
	var sum float64
	var n int
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		f, _ := v.Number()
		sum += f
		n++
	}
	if n == 0 {
		return 0, 0, nil
	}
	mean = sum / float64(n)
	var sq float64
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		f, _ := v.Number()
		sq += (f - mean) * (f - mean)
	}
	std = math.Sqrt(sq / float64(n))
	return mean, std, nil
}

// Table is an ordered set of named columns of equal length.
type Table struct {
	Name  string
	cols  []*Column
	index map[string]int // lowercase name -> position
}

// New creates an empty table.
func New(name string) *Table {
	return &Table{Name: name, index: make(map[string]int)}
}

// AddColumn appends a column. Duplicate names are disambiguated with the
// ".1", ".2" ordinal convention spreadsheet tools use on write, so the
// duplicate-index pair detection downstream sees the same shape either way.
func (t *Table) AddColumn(name string, kind Kind) *Column {
	final := name
	for i := 1; ; i++ {
		if _, dup := t.index[strings.ToLower(final)]; !dup {
			break
		}
		final = fmt.Sprintf("%s.%d", name, i)
	}
	col := &Column{Name: final, Kind: kind}
	t.index[strings.ToLower(final)] = len(t.cols)
	t.cols = append(t.cols, col)
	return col
}

// Append adds one row. The number of values must match the column count.
func (t *Table) Append(values ...Value) error {
	if len(values) != len(t.cols) {
		return fmt.Errorf("row has %d values, table %q has %d columns", len(values), t.Name, len(t.cols))
	}
	for i, v := range values {
		t.cols[i].Values = append(t.cols[i].Values, v)
	}
	return nil
}

// Column looks a column up by name, case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Columns returns the columns in declaration order.
func (t *Table) Columns() []*Column { return t.cols }

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Rows returns the row count.
func (t *Table) Rows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0].Values)
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}
