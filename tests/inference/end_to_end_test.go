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
package inference_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oyvito/fin-table-prep/internal/codelist"
	"github.com/oyvito/fin-table-prep/internal/inference"
	"github.com/oyvito/fin-table-prep/internal/mapper"
	"github.com/oyvito/fin-table-prep/internal/schema"
	"github.com/oyvito/fin-table-prep/internal/script"
	"github.com/oyvito/fin-table-prep/internal/source"
	"github.com/oyvito/fin-table-prep/internal/table"
)

const bydelOsloList = `
name: bydel_oslo
version: "2024"
source_column_patterns:
  - "bydel"
target_column_patterns:
  - "bydel"
  - "bosted"
mappings:
  "1": "Gamle Oslo"
  "2": "Grünerløkka"
labels:
  "Gamle Oslo": "Bydel Gamle Oslo"
  "Grünerløkka": "Bydel Grünerløkka"
`

const kjonnList = `
name: kjonn
source_column_patterns:
  - "kjoenn"
  - "kjonn"
mappings:
  "1": "Menn"
  "2": "Kvinner"
`

const controlSchema = `
standard_variables:
  kjoenn:
    alternative_names: [kjonn, sex]
  aargang:
    alternative_names: [aar, year]
`

func loadFixtures(t *testing.T) (*codelist.Registry, *schema.Schema) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bydel_oslo.yaml"), []byte(bydelOsloList), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kjonn.yaml"), []byte(kjonnList), 0o644))
	reg, err := codelist.LoadDir(dir)
	require.NoError(t, err)

	schemaPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(controlSchema), 0o644))
	s, err := schema.Load(schemaPath)
	require.NoError(t, err)
	return reg, s
}

func readCSV(t *testing.T, name, content string) *table.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	tbl, err := source.NewCSVFile(source.CSVOptions{Path: path}).Fetch(context.Background())
	require.NoError(t, err)
	return tbl
}

func TestEndToEndPopulationTable(t *testing.T) {
	reg, s := loadFixtures(t)
	svc := inference.NewService(reg, s, zap.NewNop().Sugar(), mapper.Options{})

	input := readCSV(t, "befolkning.csv",
		"bydel2;bydel2_fmt;kjoenn;antall\n"+
			"1;Gamle Oslo;1;10\n"+
			"1;Gamle Oslo;2;20\n"+
			"2;Grünerløkka;1;30\n"+
			"2;Grünerløkka;2;40\n")
	ref := readCSV(t, "ref.csv",
		"bosted_;bosted;kjoenn;antall\n"+
			"1;Gamle Oslo;Menn;10\n"+
			"1;Gamle Oslo;Kvinner;20\n"+
			"2;Grünerløkka;Menn;30\n"+
			"2;Grünerløkka;Kvinner;40\n")

	spec, err := svc.Run(context.Background(), inference.Request{
		Inputs:    []*table.Table{input},
		Reference: ref,
		TableCode: "OK-BEF010",
	})
	require.NoError(t, err)
	require.Len(t, spec.Inputs, 1)
	tm := spec.Inputs[0].Mapping

	// The district code column lands on the residence code column with the
	// recoding codelist attached; its label column is dropped because the
	// codelist supplies the display labels.
	bydel, ok := tm.MappingFor("bydel2")
	require.True(t, ok)
	assert.Equal(t, "bosted_", bydel.Target)
	require.NotNil(t, bydel.Transform)
	assert.Equal(t, "bydel_oslo", bydel.Transform.Name)

	require.Len(t, tm.Ignored, 1)
	assert.Equal(t, "bydel2_fmt", tm.Ignored[0].Name)

	kjoenn, ok := tm.MappingFor("kjoenn")
	require.True(t, ok)
	assert.InDelta(t, 1.0, kjoenn.Confidence, 1e-9)
	require.NotNil(t, kjoenn.Transform)
	assert.Equal(t, "kjonn", kjoenn.Transform.Name)

	assert.Empty(t, tm.Unmapped)
	assert.ElementsMatch(t, []string{"bosted_", "kjoenn"}, spec.Keys.Columns)
	assert.True(t, spec.Keys.Composite)
	assert.Empty(t, spec.Insights, "row counts match, nothing to explain")

	// The serialized specification survives a round trip and validates.
	doc := inference.NewDocument(spec)
	var buf bytes.Buffer
	require.NoError(t, inference.Encode(&buf, doc))
	got, err := inference.Decode(&buf)
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.Equal(t, "2024", got.Inputs[0].Mappings[0].Version)

	// And the rendered script carries the same decisions.
	var py bytes.Buffer
	require.NoError(t, script.Render(&py, spec))
	assert.Contains(t, py.String(), `"bydel2": "bosted_",`)
	assert.Contains(t, py.String(), `df = df.drop(columns=["bydel2_fmt"])`)
	assert.Contains(t, py.String(), `keys = ["bosted_", "kjoenn"]`)
}

func TestEndToEndYearlyExtracts(t *testing.T) {
	reg, s := loadFixtures(t)
	svc := inference.NewService(reg, s, zap.NewNop().Sugar(), mapper.Options{})

	t2023 := readCSV(t, "t2023.csv",
		"aargang;bydel;antall\n2023;1;10\n2023;2;20\n2023;3;30\n2023;4;40\n")
	t2024 := readCSV(t, "t2024.csv",
		"aargang;bydel;antall\n2024;1;11\n2024;2;21\n2024;3;31\n2024;4;41\n")
	ref := readCSV(t, "ref.csv",
		"aargang;bydel;antall\n"+
			"2023;1;10\n2023;2;20\n2023;3;30\n2023;4;40\n"+
			"2024;1;11\n2024;2;21\n2024;3;31\n2024;4;41\n")

	spec, err := svc.Run(context.Background(), inference.Request{
		Inputs:    []*table.Table{t2023, t2024},
		Reference: ref,
		TableCode: "OK-BEF011",
	})
	require.NoError(t, err)

	// One file per year: the year column separates the extracts, not the
	// rows, so it must not become a key.
	assert.Equal(t, []string{"bydel"}, spec.Keys.Columns)
	assert.True(t, strings.Contains(spec.Keys.Warning, "aargang"))
	assert.Empty(t, spec.Insights)
}

func TestEndToEndEmptyInputIsNotAnError(t *testing.T) {
	reg, s := loadFixtures(t)
	svc := inference.NewService(reg, s, zap.NewNop().Sugar(), mapper.Options{})

	input := readCSV(t, "tom.csv", "bydel;antall\n")
	ref := readCSV(t, "ref.csv", "bydel;antall\n1;5\n")

	spec, err := svc.Run(context.Background(), inference.Request{
		Inputs:    []*table.Table{input},
		Reference: ref,
		TableCode: "OK-BEF010",
	})
	require.NoError(t, err, "an empty extract degrades the result, it does not abort the run")
	assert.Empty(t, spec.Keys.Columns)

	joined := strings.Join(spec.Warnings, "\n")
	assert.Contains(t, joined, "has no rows")
}
