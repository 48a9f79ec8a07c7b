package table

import (
	"strings"
)

// MergeAll simulates how multiple inputs would be combined ahead of the
// aggregation analysis: an outer join when the tables share column names
// (case-insensitive), otherwise a plain concatenation. The inputs are not
// modified.
func MergeAll(tables []*Table) *Table {
	if len(tables) == 0 {
		return New("merged")
	}
	if len(tables) == 1 {
		return tables[0]
	}

	common := make(map[string]struct{})
	for _, c := range tables[0].Columns() {
		common[strings.ToLower(c.Name)] = struct{}{}
	}
	for _, t := range tables[1:] {
		next := make(map[string]struct{})
		for _, c := range t.Columns() {
			lower := strings.ToLower(c.Name)
			if _, ok := common[lower]; ok {
				next[lower] = struct{}{}
			}
		}
		common = next
	}

	merged := tables[0]
	if len(common) > 0 {
		on := make([]string, 0, len(common))
		for name := range common {
			on = append(on, name)
		}
		for _, t := range tables[1:] {
			merged = OuterJoin(merged, t, on)
		}
		return merged
	}
	return Concat(tables)
}

// Concat stacks tables row-wise over the union of their columns. Missing
// columns are filled with missing values; conflicting kinds widen to Text.
func Concat(tables []*Table) *Table {
	out := New("merged")
	for _, t := range tables {
		for _, c := range t.Columns() {
			if existing, ok := out.Column(c.Name); ok {
				if existing.Kind != c.Kind {
					widenToText(existing)
				}
				continue
			}
			out.AddColumn(c.Name, c.Kind)
		}
	}
	for _, t := range tables {
		for i := 0; i < t.Rows(); i++ {
			row := make([]Value, 0, len(out.Columns()))
			for _, oc := range out.Columns() {
				if c, ok := t.Column(oc.Name); ok {
					row = append(row, convertValue(c.Values[i], oc.Kind))
				} else {
					row = append(row, Missing(oc.Kind))
				}
			}
			_ = out.Append(row...)
		}
	}
	return out
}

// OuterJoin performs a full outer join of a and b on the given lowercase
// column names. Columns of b that collide with non-key columns of a are
// dropped, keeping a's values, which matches how the merge simulation
// discards "_dup" columns.
func OuterJoin(a, b *Table, on []string) *Table {
	out := New("merged")
	for _, c := range a.Columns() {
		out.AddColumn(c.Name, c.Kind)
	}
	var bExtra []*Column
	for _, c := range b.Columns() {
		if _, exists := a.Column(c.Name); exists {
			continue
		}
		out.AddColumn(c.Name, c.Kind)
		bExtra = append(bExtra, c)
	}

	keyOf := func(t *Table, row int) string {
		var sb strings.Builder
		for _, name := range on {
			c, _ := t.Column(name)
			sb.WriteString(c.Values[row].String())
			sb.WriteByte('\x1f')
		}
		return sb.String()
	}

	bByKey := make(map[string][]int)
	for i := 0; i < b.Rows(); i++ {
		k := keyOf(b, i)
		bByKey[k] = append(bByKey[k], i)
	}

	matchedB := make(map[int]bool)
	for i := 0; i < a.Rows(); i++ {
		matches := bByKey[keyOf(a, i)]
		if len(matches) == 0 {
			row := a.Row(i)
			for _, c := range bExtra {
				row = append(row, Missing(c.Kind))
			}
			_ = out.Append(row...)
			continue
		}
		for _, j := range matches {
			matchedB[j] = true
			row := a.Row(i)
			for _, c := range bExtra {
				row = append(row, c.Values[j])
			}
			_ = out.Append(row...)
		}
	}

	// Unmatched b rows: key columns carry b's values, a-only columns are missing.
	onSet := make(map[string]struct{}, len(on))
	for _, name := range on {
		onSet[strings.ToLower(name)] = struct{}{}
	}
	for j := 0; j < b.Rows(); j++ {
		if matchedB[j] {
			continue
		}
		row := make([]Value, 0, len(out.Columns()))
		for _, oc := range out.Columns() {
			if _, isKey := onSet[strings.ToLower(oc.Name)]; isKey {
				c, _ := b.Column(oc.Name)
				row = append(row, convertValue(c.Values[j], oc.Kind))
			} else if c, ok := b.Column(oc.Name); ok {
				if _, fromA := a.Column(oc.Name); !fromA {
					row = append(row, c.Values[j])
				} else {
					row = append(row, Missing(oc.Kind))
				}
			} else {
				row = append(row, Missing(oc.Kind))
			}
		}
		_ = out.Append(row...)
	}
	return out
}

func widenToText(c *Column) {
	for i, v := range c.Values {
		if v.IsMissing() {
			c.Values[i] = Missing(Text)
		} else {
			c.Values[i] = String(v.String())
		}
	}
	c.Kind = Text
}

func convertValue(v Value, kind Kind) Value {
	if v.Kind() == kind {
		return v
	}
	if v.IsMissing() {
		return Missing(kind)
	}
	switch kind {
	case Text:
		return String(v.String())
	case Real:
		if f, err := v.Number(); err == nil {
			return Float(f)
		}
	}
	return ParseValue(v.String(), kind)
}
