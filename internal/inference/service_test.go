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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oyvito/fin-table-prep/internal/codelist"
	"github.com/oyvito/fin-table-prep/internal/mapper"
	"github.com/oyvito/fin-table-prep/internal/table"
)

func buildTable(name string, cols ...[2]interface{}) *table.Table {
	t := table.New(name)
	for _, c := range cols {
		colName := c[0].(string)
		values := c[1].([]string)
		col := t.AddColumn(colName, table.InferKind(values))
		for _, v := range values {
			col.Values = append(col.Values, table.ParseValue(v, col.Kind))
		}
	}
	return t
}

func tcol(name string, values ...string) [2]interface{} {
	return [2]interface{}{name, values}
}

func testService(t *testing.T) *Service {
	t.Helper()
	r := codelist.NewRegistry()
	require.NoError(t, r.Register(&codelist.Codelist{
		Name:                 "kjonn_koder",
		Version:              "1",
		SourceColumnPatterns: []string{"kjoenn", "kjonn"},
		Mappings:             map[string]string{"1": "Menn", "2": "Kvinner"},
	}))
	return NewService(r, nil, zap.NewNop().Sugar(), mapper.Options{})
}

func TestRunRejectsMalformedRequests(t *testing.T) {
	s := testService(t)
	ctx := context.Background()

	_, err := s.Run(ctx, Request{Inputs: []*table.Table{buildTable("a", tcol("x", "1"))}})
	assert.ErrorContains(t, err, "no reference")

	_, err = s.Run(ctx, Request{Reference: buildTable("ref", tcol("x", "1"))})
	assert.ErrorContains(t, err, "no input tables")
}

func TestRunProducesSpecification(t *testing.T) {
	in := buildTable("grunnlag",
		tcol("kjoenn", "1", "2", "1", "2"),
		tcol("alder", "1", "1", "2", "2"),
		tcol("antall", "10", "20", "30", "40"),
	)
	ref := buildTable("ref",
		tcol("kjoenn", "Menn", "Kvinner", "Menn", "Kvinner"),
		tcol("alder", "1", "1", "2", "2"),
		tcol("antall", "10", "20", "30", "40"),
		tcol("utdanning", "x", "x", "y", "y"),
	)

	spec, err := testService(t).Run(context.Background(), Request{
		Inputs:    []*table.Table{in},
		Reference: ref,
		TableCode: "OK-BEF010",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, spec.ID)
	assert.Equal(t, "OK-BEF010", spec.TableCode)
	require.Len(t, spec.Inputs, 1)

	tm := spec.Inputs[0].Mapping
	require.NotNil(t, tm)
	mp, ok := tm.MappingFor("kjoenn")
	require.True(t, ok)
	require.NotNil(t, mp.Transform, "coded gender column needs the recode attached")
	assert.Equal(t, "kjonn_koder", mp.Transform.Name)

	assert.Equal(t, []string{"utdanning"}, spec.UnmappedOutput)
	assert.ElementsMatch(t, []string{"alder", "kjoenn"}, spec.Keys.Columns)
	assert.Equal(t, 3, spec.MappedColumnCount())
	assert.Contains(t, spec.Warnings, `output column "utdanning" is not produced by any input`)
}

func TestRunEmptyInputIsWarningNotError(t *testing.T) {
	in := buildTable("tom", tcol("kjoenn"), tcol("antall"))
	ref := buildTable("ref", tcol("kjoenn", "Menn"), tcol("antall", "5"))

	spec, err := testService(t).Run(context.Background(), Request{
		Inputs:    []*table.Table{in},
		Reference: ref,
		TableCode: "OK-BEF010",
	})
	require.NoError(t, err)
	assert.Empty(t, spec.Keys.Columns)

	found := false
	for _, w := range spec.Warnings {
		if w == `input "tom" has no rows; value-based checks were skipped` {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCanonicalizeRecodesAndDrops(t *testing.T) {
	in := buildTable("grunnlag",
		tcol("kjonn", "1", "2"),
		tcol("kjonn_fmt", "Menn", "Kvinner"),
		tcol("antall", "10", "20"),
	)
	tm := &mapper.TableMapping{
		Table: "grunnlag",
		Mappings: []mapper.ColumnMapping{
			{Input: "kjonn", Target: "kjoenn", Confidence: 0.8, Strategy: "codelist-value",
				Transform: &codelist.Codelist{Name: "kjonn_koder", Mappings: map[string]string{"1": "Menn", "2": "Kvinner"}}},
			{Input: "antall", Target: "antall", Confidence: 0.9, Strategy: "exact-name"},
		},
		Ignored: []mapper.IgnoredColumn{{Name: "kjonn_fmt", Reason: "display label supplied by codelist"}},
	}

	out := canonicalize(in, tm)
	require.Equal(t, 2, len(out.Columns()))

	kj, ok := out.Column("kjoenn")
	require.True(t, ok)
	assert.Equal(t, table.Text, kj.Kind)
	assert.Equal(t, "Menn", kj.Values[0].String())
	assert.Equal(t, "Kvinner", kj.Values[1].String())

	_, dropped := out.Column("kjonn_fmt")
	assert.False(t, dropped)
}
