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
package mapper

import (
	"sort"
	"strings"

	"github.com/oyvito/fin-table-prep/internal/table"
)

// LabelSuffix is the source-system convention for "coded value plus display
// text": a column X carries the code, X_fmt carries the label.
const LabelSuffix = "_fmt"

// PairKind distinguishes how a variable pair was detected.
type PairKind string

const (
	PairSuffixLabel    PairKind = "suffix-label"
	PairDuplicateIndex PairKind = "duplicate-index"
)

// VariablePair relates a code column to its companion label column. Pairs
// are pure data consumed by the column mapper; nothing persists them.
type VariablePair struct {
	Base  string
	Label string
	Kind  PairKind
}

// DetectPairs finds code/label pairs in one input table. ref is the
// reference output table and may be nil.
//
// Rule 1 pairs X with X_fmt when both exist and either the two columns are
// in a one-to-one value relation or the base is numeric while the label is
// text. Rule 2 pairs duplicate-index variants: spreadsheet tools collapse
// repeated column names into X and X.1 on write, so when the reference
// output carries such a variant set and exactly two input columns plausibly
// describe the base concept, the pairing is inferred from cardinality
// rather than name text.
func DetectPairs(input, ref *table.Table) []VariablePair {
	var pairs []VariablePair
	used := make(map[string]bool)

	take := func(base, label string, kind PairKind) {
		pairs = append(pairs, VariablePair{Base: base, Label: label, Kind: kind})
		used[strings.ToLower(base)] = true
		used[strings.ToLower(label)] = true
	}

	for _, col := range input.Columns() {
		lower := strings.ToLower(col.Name)
		if used[lower] {
			continue
		}
		var baseName string
		var kind PairKind
		switch {
		case strings.HasSuffix(lower, LabelSuffix):
			baseName = col.Name[:len(col.Name)-len(LabelSuffix)]
			kind = PairSuffixLabel
		case strings.HasSuffix(lower, ".1"):
			baseName = col.Name[:len(col.Name)-2]
			kind = PairDuplicateIndex
		default:
			continue
		}
		base, ok := input.Column(baseName)
		if !ok || used[strings.ToLower(base.Name)] {
			continue
		}
		if oneToOne(base, col) || (base.IsNumeric() && col.Kind == table.Text) {
			take(base.Name, col.Name, kind)
		}
	}

	if ref != nil {
		pairs = append(pairs, detectOutputIndexPairs(input, ref, used)...)
	}
	return pairs
}

// detectOutputIndexPairs applies Rule 2 driven by the reference output:
// for each output base name that also appears with a ".1" variant, look for
// exactly two not-yet-paired input columns plausibly describing that
// concept and pair them, code first.
func detectOutputIndexPairs(input, ref *table.Table, used map[string]bool) []VariablePair {
	var pairs []VariablePair
	for _, refCol := range ref.Columns() {
		base := refCol.Name
		if strings.Contains(base, ".") {
			continue
		}
		if _, hasVariant := ref.Column(base + ".1"); !hasVariant {
			continue
		}
		var candidates []string
		for _, col := range input.Columns() {
			if used[strings.ToLower(col.Name)] {
				continue
			}
			if Similarity(strings.TrimSuffix(strings.ToLower(col.Name), LabelSuffix), base) >= 0.6 {
				candidates = append(candidates, col.Name)
			}
		}
		if len(candidates) != 2 {
			continue
		}
		sort.Slice(candidates, func(i, j int) bool {
			iFmt := strings.HasSuffix(strings.ToLower(candidates[i]), LabelSuffix)
			jFmt := strings.HasSuffix(strings.ToLower(candidates[j]), LabelSuffix)
			if iFmt != jFmt {
				return !iFmt
			}
			return candidates[i] < candidates[j]
		})
		pairs = append(pairs, VariablePair{Base: candidates[0], Label: candidates[1], Kind: PairDuplicateIndex})
		used[strings.ToLower(candidates[0])] = true
		used[strings.ToLower(candidates[1])] = true
	}
	return pairs
}

// oneToOne reports whether base and label are in a one-to-one relation:
// the distinct counts of base, label and (base, label) tuples all agree.
func oneToOne(base, label *table.Column) bool {
	baseDistinct := make(map[string]struct{})
	labelDistinct := make(map[string]struct{})
	pairDistinct := make(map[string]struct{})
	n := len(base.Values)
	if len(label.Values) < n {
		n = len(label.Values)
	}
	for i := 0; i < n; i++ {
		b, l := base.Values[i], label.Values[i]
		if b.IsMissing() || l.IsMissing() {
			continue
		}
		baseDistinct[b.String()] = struct{}{}
		labelDistinct[l.String()] = struct{}{}
		pairDistinct[b.String()+"\x1f"+l.String()] = struct{}{}
	}
	if len(pairDistinct) == 0 {
		return false
	}
	return len(baseDistinct) == len(labelDistinct) && len(labelDistinct) == len(pairDistinct)
}
