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
package inference

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyvito/fin-table-prep/internal/codelist"
	"github.com/oyvito/fin-table-prep/internal/keys"
	"github.com/oyvito/fin-table-prep/internal/mapper"
)

func sampleSpec() *Specification {
	return &Specification{
		ID:        "7f9c2ba4-0000-0000-0000-000000000000",
		TableCode: "OK-BEF010",
		CreatedAt: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
		Inputs: []InputMapping{{
			Table: "befolkning_2024",
			Mapping: &mapper.TableMapping{
				Table: "befolkning_2024",
				Mappings: []mapper.ColumnMapping{
					{
						Input: "bydel2", Target: "bosted_", Confidence: 0.85,
						Strategy:  "geographic-naming",
						Transform: &codelist.Codelist{Name: "bydel_oslo", Version: "2024"},
					},
					{Input: "kjoenn", Target: "kjoenn", Confidence: 1.0, Strategy: "schema-lookup"},
				},
				Ignored:  []mapper.IgnoredColumn{{Name: "bydel2_fmt", Reason: "display label supplied by codelist"}},
				Unmapped: []string{"internkode"},
			},
		}},
		UnmappedOutput: []string{"utdanning"},
		Keys:           keys.KeySet{Columns: []string{"bosted_", "kjoenn"}, Uniqueness: 1.0, Composite: true},
		Warnings:       []string{`input "befolkning_2024": column "internkode" could not be mapped`},
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := NewDocument(sampleSpec())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	assert.Contains(t, buf.String(), "table_code: OK-BEF010")
	assert.Contains(t, buf.String(), "codelist: bydel_oslo")

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.TableCode, got.TableCode)
	require.Len(t, got.Inputs, 1)
	assert.Equal(t, doc.Inputs[0].Mappings, got.Inputs[0].Mappings)
	assert.Equal(t, doc.Inputs[0].Ignored, got.Inputs[0].Ignored)
	assert.Equal(t, doc.Keys, got.Keys)
	assert.Equal(t, doc.Warnings, got.Warnings)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("{::not yaml")))
	require.Error(t, err)
}

func TestDocumentValidate(t *testing.T) {
	valid := func() *Document { return NewDocument(sampleSpec()) }

	t.Run("valid document passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing id", func(t *testing.T) {
		d := valid()
		d.ID = ""
		assert.Error(t, d.Validate())
	})

	t.Run("no inputs", func(t *testing.T) {
		d := valid()
		d.Inputs = nil
		assert.Error(t, d.Validate())
	})

	t.Run("empty endpoint", func(t *testing.T) {
		d := valid()
		d.Inputs[0].Mappings[0].Target = ""
		assert.Error(t, d.Validate())
	})

	t.Run("confidence out of range", func(t *testing.T) {
		d := valid()
		d.Inputs[0].Mappings[0].Confidence = 1.2
		assert.Error(t, d.Validate())
	})

	t.Run("duplicate input column", func(t *testing.T) {
		d := valid()
		d.Inputs[0].Mappings = append(d.Inputs[0].Mappings, DocMapping{
			Input: "bydel2", Target: "bydel_", Confidence: 0.5, Strategy: "exact-name",
		})
		assert.Error(t, d.Validate())
	})

	t.Run("duplicate target column", func(t *testing.T) {
		d := valid()
		d.Inputs[0].Mappings = append(d.Inputs[0].Mappings, DocMapping{
			Input: "bydel3", Target: "bosted_", Confidence: 0.5, Strategy: "exact-name",
		})
		assert.Error(t, d.Validate())
	})
}
