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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return New([]*Variable{
		{Name: "kjoenn", AlternativeNames: []string{"kjonn", "sex", "gender"}},
		{Name: "aargang", AlternativeNames: []string{"aar", "year"}},
		{Name: "geografi", Description: "geografisk enhet"},
		{Name: "bosted_bydel", Description: "geografi: bosted på bydelsnivå"},
	})
}

func TestResolve(t *testing.T) {
	s := testSchema()

	tests := []struct {
		column    string
		canonical string
		exact     bool
		ok        bool
	}{
		{"kjoenn", "kjoenn", true, true},
		{"KJOENN", "kjoenn", true, true},
		{"gender", "kjoenn", false, true},
		{" Year ", "aargang", false, true},
		{"ukjent_kolonne", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			canonical, exact, ok := s.Resolve(tt.column)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.canonical, canonical)
			assert.Equal(t, tt.exact, exact)
		})
	}
}

func TestResolveSharedSynonymIsStable(t *testing.T) {
	// Several variables claiming the same synonym must not make Resolve
	// order-dependent: the alphabetically first canonical name wins, on
	// every call.
	vars := []*Variable{
		{Name: "sysselsatte", AlternativeNames: []string{"omraade"}},
		{Name: "bosted_bydel", AlternativeNames: []string{"omraade"}},
		{Name: "arbeidssted_fylke", AlternativeNames: []string{"omraade"}},
		{Name: "grunnkrets", AlternativeNames: []string{"omraade"}},
		{Name: "delbydel", AlternativeNames: []string{"omraade"}},
		{Name: "kommune", AlternativeNames: []string{"omraade"}},
	}
	s := New(vars)

	for i := 0; i < 200; i++ {
		canonical, exact, ok := s.Resolve("omraade")
		require.True(t, ok)
		assert.False(t, exact)
		assert.Equal(t, "arbeidssted_fylke", canonical, "call %d resolved differently", i)
	}
}

func TestIsGeographic(t *testing.T) {
	s := testSchema()
	assert.True(t, s.IsGeographic("geografi"))
	assert.True(t, s.IsGeographic("bosted_bydel"), "description marks it geographic")
	assert.False(t, s.IsGeographic("kjoenn"))
	assert.False(t, s.IsGeographic("finnes_ikke"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `
standard_variables:
  kjoenn:
    alternative_names: [kjonn, sex]
    description: kjønn
  aargang:
    alternative_names: [aar, year]
  geografi:
`
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"aargang", "geografi", "kjoenn"}, s.CanonicalNames())

	canonical, exact, ok := s.Resolve("sex")
	require.True(t, ok)
	assert.False(t, exact)
	assert.Equal(t, "kjoenn", canonical)

	assert.ElementsMatch(t, []string{"aar", "year"}, s.SynonymsOf("aargang"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
