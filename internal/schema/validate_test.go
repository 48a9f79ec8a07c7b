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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyvito/fin-table-prep/internal/table"
)

func TestSuggestStandardization(t *testing.T) {
	s := New([]*Variable{
		{Name: "kjoenn", AlternativeNames: []string{"kjonn", "sex"}},
		{Name: "aargang", AlternativeNames: []string{"aar", "year"}},
	})

	tbl := table.New("befolkning")
	tbl.AddColumn("kjoenn", table.Integer)  // exact, nothing to suggest
	tbl.AddColumn("Year", table.Integer)    // synonym
	tbl.AddColumn("AARGANG", table.Integer) // wrong case
	tbl.AddColumn("antall", table.Integer)  // not in the schema

	got := s.SuggestStandardization(tbl)
	require.Len(t, got, 2)
	assert.Equal(t, Suggestion{Column: "Year", Canonical: "aargang"}, got[0])
	assert.Equal(t, Suggestion{Column: "AARGANG", Canonical: "aargang"}, got[1])
}

func TestCheckKinds(t *testing.T) {
	s := New([]*Variable{
		{Name: "aargang", DataType: "integer"},
		{Name: "andel", DataType: "float"},
		{Name: "kjoenn"},
	})

	tbl := table.New("befolkning")
	tbl.AddColumn("aargang", table.Text)  // declared integer
	tbl.AddColumn("andel", table.Real)    // real satisfies float
	tbl.AddColumn("kjoenn", table.Text)   // no declared type
	tbl.AddColumn("ukjent", table.Text)   // not in the schema
	require.NoError(t, tbl.Append(table.String("to tusen"), table.Float(0.5), table.String("1"), table.String("x")))

	got := s.CheckKinds(tbl)
	require.Len(t, got, 1)
	assert.Equal(t, "aargang", got[0].Column)
	assert.Equal(t, "integer", got[0].Expected)
	assert.Equal(t, table.Text, got[0].Actual)
}
