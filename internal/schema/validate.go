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
package schema

import (
	"strings"

	"github.com/oyvito/fin-table-prep/internal/table"
)

// Suggestion proposes the canonical spelling of one column name.
type Suggestion struct {
	Column    string
	Canonical string
}

// KindIssue flags a column whose value kind disagrees with the data type
// the control schema declares for its variable.
type KindIssue struct {
	Column   string
	Expected string
	Actual   table.Kind
}

// SuggestStandardization proposes canonical names for a table's columns.
// A column already spelled exactly as its canonical name yields nothing; a
// case variant or a known synonym yields a rename suggestion.
func (s *Schema) SuggestStandardization(t *table.Table) []Suggestion {
	var out []Suggestion
	for _, col := range t.Columns() {
		canonical, _, ok := s.Resolve(col.Name)
		if !ok || col.Name == canonical {
			continue
		}
		out = append(out, Suggestion{Column: col.Name, Canonical: canonical})
	}
	return out
}

// CheckKinds verifies column value kinds against the declared data types.
// Columns without a declared data type pass silently.
func (s *Schema) CheckKinds(t *table.Table) []KindIssue {
	var out []KindIssue
	for _, col := range t.Columns() {
		canonical, _, ok := s.Resolve(col.Name)
		if !ok {
			continue
		}
		v := s.vars[strings.ToLower(canonical)]
		switch strings.ToLower(v.DataType) {
		case "integer":
			if col.Kind != table.Integer {
				out = append(out, KindIssue{Column: col.Name, Expected: "integer", Actual: col.Kind})
			}
		case "float", "real":
			if !col.IsNumeric() {
				out = append(out, KindIssue{Column: col.Name, Expected: "real", Actual: col.Kind})
			}
		}
	}
	return out
}
