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

// Package keys identifies the columns that jointly identify a row across
// all input tables.
package keys

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oyvito/fin-table-prep/internal/mapper"
	"github.com/oyvito/fin-table-prep/internal/table"
)

// UniquenessThreshold is the minimum fraction of rows a key (single or
// composite) must distinguish in every input.
const UniquenessThreshold = 0.9

// Input bundles one input table with its inferred mapping and pairs.
type Input struct {
	Table   *table.Table
	Mapping *mapper.TableMapping
	Pairs   []mapper.VariablePair
}

// KeySet is the identified key. Columns hold canonical names. An empty
// Columns slice with a non-empty Warning means no reliable key was found;
// that is advisory, not an error.
type KeySet struct {
	Columns    []string
	Uniqueness float64
	Composite  bool
	Warning    string
}

// candidate tracks one canonical column and its source column per input.
type candidate struct {
	canonical string
	sources   []*table.Column // index-aligned with the inputs
	constant  bool            // at most one distinct value in every input
	unique    float64         // single-column uniqueness, min across inputs
}

var periodNames = map[string]bool{
	"aargang": true, "år": true, "aar": true, "year": true, "periode": true,
}

// Identify finds the key columns shared by all inputs. Candidates are the
// canonical columns present in every input, minus measures, pair labels and
// ordinal label variants. Single columns are preferred; otherwise the
// smallest composite meeting the uniqueness threshold in every input wins.
func Identify(inputs []Input) KeySet {
	if len(inputs) == 0 {
		return KeySet{Warning: "no input tables to identify keys from"}
	}

	cands, warnings := commonCandidates(inputs)
	if len(cands) == 0 {
		warnings = append(warnings, "no candidate key columns are common to all inputs")
		return KeySet{Warning: strings.Join(warnings, "; ")}
	}

	for i := range cands {
		cands[i].unique = singleUniqueness(cands[i].sources)
		cands[i].constant = isConstant(cands[i].sources)
	}

	// Best single column first.
	best := -1
	for i := range cands {
		if cands[i].unique >= UniquenessThreshold && (best < 0 || cands[i].unique > cands[best].unique) {
			best = i
		}
	}
	if best >= 0 {
		return KeySet{
			Columns:    []string{cands[best].canonical},
			Uniqueness: cands[best].unique,
			Warning:    strings.Join(warnings, "; "),
		}
	}

	full := compositeUniqueness(inputs, cands)
	if full < UniquenessThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"no reliable key: best composite distinguishes only %.0f%% of rows", full*100))
		return KeySet{Warning: strings.Join(warnings, "; ")}
	}

	kept := minimize(inputs, cands)
	cols := make([]string, len(kept))
	for i, c := range kept {
		cols[i] = c.canonical
	}
	return KeySet{
		Columns:    cols,
		Uniqueness: compositeUniqueness(inputs, kept),
		Composite:  len(cols) > 1,
		Warning:    strings.Join(warnings, "; "),
	}
}

// commonCandidates intersects the inputs' canonical column sets, excluding
// measures, pair labels, ordinal variants and period columns whose values
// differ across inputs (those separate files, not rows).
func commonCandidates(inputs []Input) ([]candidate, []string) {
	perInput := make([]map[string]*table.Column, len(inputs))
	for i, in := range inputs {
		roles := mapper.ClassifyColumns(in.Table, in.Pairs)
		labelSet := make(map[string]bool)
		for _, p := range in.Pairs {
			labelSet[strings.ToLower(p.Label)] = true
		}
		m := make(map[string]*table.Column)
		for _, col := range in.Table.Columns() {
			if roles.IsMeasure(col.Name) || labelSet[strings.ToLower(col.Name)] {
				continue
			}
			canonical := col.Name
			if in.Mapping != nil {
				canonical = in.Mapping.CanonicalName(col.Name)
			}
			canonical = strings.ToLower(canonical)
			if isOrdinalVariant(canonical) {
				continue
			}
			if _, dup := m[canonical]; !dup {
				m[canonical] = col
			}
		}
		perInput[i] = m
	}

	var names []string
	for name := range perInput[0] {
		names = append(names, name)
	}
	sort.Strings(names)

	var cands []candidate
	var warnings []string
	for _, name := range names {
		sources := make([]*table.Column, len(inputs))
		common := true
		for i := range inputs {
			col, ok := perInput[i][name]
			if !ok {
				common = false
				break
			}
			sources[i] = col
		}
		if !common {
			continue
		}
		if periodNames[name] && periodValuesDiffer(sources) {
			warnings = append(warnings, fmt.Sprintf(
				"period column %q excluded from key: its values differ across inputs", name))
			continue
		}
		cands = append(cands, candidate{canonical: name, sources: sources})
	}
	return cands, warnings
}

// periodValuesDiffer reports whether the period column's value sets are not
// identical across all inputs.
func periodValuesDiffer(sources []*table.Column) bool {
	if len(sources) < 2 {
		return false
	}
	first := sources[0].DistinctStrings(0)
	for _, col := range sources[1:] {
		other := col.DistinctStrings(0)
		if len(other) != len(first) {
			return true
		}
		for v := range other {
			if _, ok := first[v]; !ok {
				return true
			}
		}
	}
	return false
}

// singleUniqueness is the worst-case distinct/rows ratio across inputs.
func singleUniqueness(sources []*table.Column) float64 {
	min := 1.0
	for _, col := range sources {
		rows := len(col.Values)
		if rows == 0 {
			return 0
		}
		u := float64(col.DistinctCount()) / float64(rows)
		if u < min {
			min = u
		}
	}
	return min
}

func isConstant(sources []*table.Column) bool {
	for _, col := range sources {
		if col.DistinctCount() > 1 {
			return false
		}
	}
	return true
}

// compositeUniqueness is the worst-case distinct-tuple ratio across inputs.
func compositeUniqueness(inputs []Input, cands []candidate) float64 {
	min := 1.0
	for i, in := range inputs {
		rows := in.Table.Rows()
		if rows == 0 {
			return 0
		}
		seen := make(map[string]struct{}, rows)
		var sb strings.Builder
		for r := 0; r < rows; r++ {
			sb.Reset()
			for _, c := range cands {
				if r < len(c.sources[i].Values) {
					sb.WriteString(c.sources[i].Values[r].String())
				}
				sb.WriteByte('\x1f')
			}
			seen[sb.String()] = struct{}{}
		}
		u := float64(len(seen)) / float64(rows)
		if u < min {
			min = u
		}
	}
	return min
}

// minimize drops columns the composite does not need, constants first, then
// the least discriminating, as long as the threshold still holds.
func minimize(inputs []Input, cands []candidate) []candidate {
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := cands[order[a]], cands[order[b]]
		if ca.constant != cb.constant {
			return ca.constant
		}
		return ca.unique < cb.unique
	})

	kept := append([]candidate(nil), cands...)
	for _, idx := range order {
		if len(kept) <= 1 {
			break
		}
		trial := withoutCanonical(kept, cands[idx].canonical)
		if len(trial) == len(kept) {
			continue
		}
		if compositeUniqueness(inputs, trial) >= UniquenessThreshold {
			kept = trial
		}
	}
	return kept
}

func withoutCanonical(cands []candidate, canonical string) []candidate {
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.canonical != canonical {
			out = append(out, c)
		}
	}
	return out
}

// isOrdinalVariant reports whether a canonical name carries a duplicate
// index marker like ".1"; those are display-label slots, never keys.
func isOrdinalVariant(name string) bool {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return false
	}
	return strings.Trim(name[i+1:], "0123456789") == ""
}
