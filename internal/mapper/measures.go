package mapper

import (
	"strings"

	"github.com/oyvito/fin-table-prep/internal/table"
)

// Keywords indicating a summable measure.
var valueKeywords = []string{
	"antall", "count", "value", "verdi", "beløp", "sum", "total",
	"inntekt", "utgift", "pris", "prosent", "andel", "rate",
	"kostnad", "lønn", "skatt", "avgift", "bestand", "saldo",
}

// Keywords indicating a dimension even when the column is numeric.
var dimensionKeywords = []string{
	"år", "aar", "year", "dato", "date", "tid", "time",
	"id", "kode", "code", "nr", "nummer", "number",
	"alder", "age", "måned", "month", "dag", "day",
	"uke", "week", "kvartal", "quarter",
}

// ColumnRoles partitions a table's columns into measures (summable
// quantities), dimensions (grouping categories) and labels (pair members).
type ColumnRoles struct {
	Measures   []string
	Dimensions []string
	Labels     []string
}

// IsMeasure reports whether name was classified as a measure.
func (r ColumnRoles) IsMeasure(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range r.Measures {
		if strings.ToLower(m) == lower {
			return true
		}
	}
	return false
}

// ClassifyColumns decides each column's role. Pair labels are set aside
// first; pair bases are dimensions by construction. Numeric columns are
// classified by keyword, then by cardinality, then by coefficient of
// variation: a high spread relative to the mean indicates a measure.
func ClassifyColumns(t *table.Table, pairs []VariablePair) ColumnRoles {
	labelSet := make(map[string]bool)
	baseSet := make(map[string]bool)
	for _, p := range pairs {
		labelSet[strings.ToLower(p.Label)] = true
		baseSet[strings.ToLower(p.Base)] = true
	}

	var roles ColumnRoles
	rows := t.Rows()
	for _, col := range t.Columns() {
		lower := strings.ToLower(col.Name)
		if labelSet[lower] {
			roles.Labels = append(roles.Labels, col.Name)
			continue
		}
		if !col.IsNumeric() {
			roles.Dimensions = append(roles.Dimensions, col.Name)
			continue
		}
		if baseSet[lower] {
			roles.Dimensions = append(roles.Dimensions, col.Name)
			continue
		}
		isValue := containsAny(lower, valueKeywords)
		isDimension := containsAny(lower, dimensionKeywords)
		switch {
		case isValue && !isDimension:
			roles.Measures = append(roles.Measures, col.Name)
			continue
		case isDimension:
			roles.Dimensions = append(roles.Dimensions, col.Name)
			continue
		}

		distinct := col.DistinctCount()
		low := float64(rows) * 0.05
		if low < 1 {
			low = 1
		}
		if float64(distinct) < low || distinct < 200 {
			roles.Dimensions = append(roles.Dimensions, col.Name)
			continue
		}
		mean, std, err := col.MeanStd()
		if err != nil || mean <= 0 {
			roles.Measures = append(roles.Measures, col.Name)
			continue
		}
		if std/mean > 0.5 {
			roles.Measures = append(roles.Measures, col.Name)
		} else {
			roles.Dimensions = append(roles.Dimensions, col.Name)
		}
	}
	return roles
}
