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

// Package aggregate explains row-count differences between the combined,
// canonicalized inputs and the reference output.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/oyvito/fin-table-prep/internal/mapper"
	"github.com/oyvito/fin-table-prep/internal/table"
)

// Kind classifies an aggregation insight.
type Kind string

const (
	// BinaryTotal: a two-valued dimension gained a total category whose
	// measure equals the sum of the two originals.
	BinaryTotal Kind = "binary-total"
	// GeographyRollup: detailed geographic units were rolled up to a
	// coarser level.
	GeographyRollup Kind = "geography-rollup"
	// CategoryGrouping: many detailed categories were grouped into few.
	CategoryGrouping Kind = "category-grouping"
	// RowExpansion: the output has more rows than the inputs can produce,
	// which usually means an input extract is missing.
	RowExpansion Kind = "row-expansion"
)

// RowMargin is the tolerated relative row-count difference below which no
// aggregation or expansion is inferred.
const RowMargin = 0.05

// Skip dimension analysis on columns with more distinct values than this;
// identifier-like columns produce only noise.
const maxDimensionCardinality = 50

// Insight is one explanation for a row-count difference.
type Insight struct {
	Kind      Kind
	Column    string
	NewValues []string
	Detail    string
	// Verified is set when the insight was confirmed against a measure
	// column, not just inferred from value domains.
	Verified bool
}

// Analysis is the aggregation analyzer's result.
type Analysis struct {
	InputRows  int
	OutputRows int
	Insights   []Insight
	Warnings   []string
}

// Analyze compares the merged, canonicalized input against the reference
// output. merged's columns must already carry canonical names and recoded
// values. Row counts within the margin yield no insights.
func Analyze(merged, ref *table.Table) Analysis {
	a := Analysis{InputRows: merged.Rows(), OutputRows: ref.Rows()}
	if a.InputRows == 0 || a.OutputRows == 0 {
		if a.InputRows != a.OutputRows {
			a.Warnings = append(a.Warnings, "row-count comparison skipped: one side has no rows")
		}
		return a
	}

	in, out := float64(a.InputRows), float64(a.OutputRows)
	switch {
	case out <= in*(1+RowMargin) && out >= in*(1-RowMargin):
		return a
	case out > in*(1+RowMargin):
		a.Insights = append(a.Insights, Insight{
			Kind: RowExpansion,
			Detail: fmt.Sprintf("output has %d rows but the combined inputs have only %d; a source extract may be missing",
				a.OutputRows, a.InputRows),
		})
		return a
	}

	refRoles := mapper.ClassifyColumns(ref, nil)
	measure := firstMeasure(ref, refRoles)
	for _, refCol := range ref.Columns() {
		lower := strings.ToLower(refCol.Name)
		if strings.HasSuffix(lower, mapper.LabelSuffix) || isOrdinalVariant(lower) {
			continue
		}
		if refRoles.IsMeasure(refCol.Name) {
			continue
		}
		inCol, ok := merged.Column(refCol.Name)
		if !ok {
			continue
		}
		outVals := refCol.DistinctStrings(0)
		if len(outVals) > maxDimensionCardinality {
			continue
		}
		inVals := inCol.DistinctStrings(0)
		newVals := subtract(outVals, inVals)
		if len(newVals) == 0 {
			continue
		}
		if ins, ok := classify(ref, refCol, inVals, outVals, newVals, measure); ok {
			a.Insights = append(a.Insights, ins)
		}
	}
	if len(a.Insights) == 0 {
		a.Warnings = append(a.Warnings, fmt.Sprintf(
			"output has %d fewer rows than the inputs but no aggregation pattern explains it",
			a.InputRows-a.OutputRows))
	}
	return a
}

func classify(ref *table.Table, refCol *table.Column, inVals, outVals map[string]struct{}, newVals []string, measure *table.Column) (Insight, bool) {
	switch {
	case len(inVals) == 2 && len(newVals) == 1:
		ins := Insight{
			Kind:      BinaryTotal,
			Column:    refCol.Name,
			NewValues: newVals,
			Detail:    fmt.Sprintf("%q gained the category %q covering both original values", refCol.Name, newVals[0]),
		}
		if measure != nil {
			ins.Verified = verifyTotal(ref, refCol, newVals[0], measure)
			if !ins.Verified {
				ins.Detail += fmt.Sprintf(" (not confirmed by measure %q)", measure.Name)
			}
		} else {
			ins.Detail += " (no measure column to confirm against)"
		}
		return ins, true

	case mapper.LooksGeographic(refCol.Name) || coarserCodes(inVals, newVals):
		return Insight{
			Kind:      GeographyRollup,
			Column:    refCol.Name,
			NewValues: newVals,
			Detail:    fmt.Sprintf("%q holds %d coarser geographic units absent from the inputs", refCol.Name, len(newVals)),
		}, true

	case len(outVals) < len(inVals) || (len(inVals) > 10 && len(outVals) < 5):
		return Insight{
			Kind:      CategoryGrouping,
			Column:    refCol.Name,
			NewValues: newVals,
			Detail:    fmt.Sprintf("%q groups %d input categories into %d", refCol.Name, len(inVals), len(outVals)),
		}, true
	}
	return Insight{}, false
}

// verifyTotal checks that the measure sum of the total category matches the
// measure sum of all other categories, within one part in a thousand.
func verifyTotal(ref *table.Table, dim *table.Column, totalValue string, measure *table.Column) bool {
	var totalSum, restSum float64
	n := ref.Rows()
	for i := 0; i < n; i++ {
		if i >= len(dim.Values) || i >= len(measure.Values) {
			break
		}
		m, err := measure.Values[i].Number()
		if err != nil {
			continue
		}
		if dim.Values[i].String() == totalValue {
			totalSum += m
		} else {
			restSum += m
		}
	}
	if totalSum == 0 && restSum == 0 {
		return false
	}
	diff := math.Abs(totalSum - restSum)
	scale := math.Max(math.Abs(totalSum), math.Abs(restSum))
	return diff <= scale*0.001
}

// coarserCodes reports whether the new values read as shorter geographic
// codes than the input's: a rollup replaces long detailed codes with short
// aggregate ones.
func coarserCodes(inVals map[string]struct{}, newVals []string) bool {
	if len(newVals) == 0 {
		return false
	}
	for _, v := range newVals {
		if len(v) > 3 {
			return false
		}
	}
	longInputs := 0
	for v := range inVals {
		if len(v) > 3 {
			longInputs++
		}
	}
	return longInputs > len(inVals)/2
}

func firstMeasure(t *table.Table, roles mapper.ColumnRoles) *table.Column {
	for _, name := range roles.Measures {
		if col, ok := t.Column(name); ok {
			return col
		}
	}
	return nil
}

func subtract(a, b map[string]struct{}) []string {
	var out []string
	for v := range a {
		if _, ok := b[v]; !ok {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func isOrdinalVariant(name string) bool {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return false
	}
	return strings.Trim(name[i+1:], "0123456789") == ""
}
