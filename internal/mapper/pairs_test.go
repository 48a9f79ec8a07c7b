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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyvito/fin-table-prep/internal/table"
)

// makeTable builds a table from ordered (name, values) pairs, inferring
// kinds the way the source providers do.
func makeTable(name string, cols ...[2]interface{}) *table.Table {
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

func col(name string, values ...string) [2]interface{} {
	return [2]interface{}{name, values}
}

func TestDetectPairsSuffixLabel(t *testing.T) {
	in := makeTable("input",
		col("bydel2", "1", "2", "1"),
		col("bydel2_fmt", "Gamle Oslo", "Grünerløkka", "Gamle Oslo"),
		col("antall", "10", "20", "30"),
	)

	pairs := DetectPairs(in, nil)
	require.Len(t, pairs, 1)
	assert.Equal(t, "bydel2", pairs[0].Base)
	assert.Equal(t, "bydel2_fmt", pairs[0].Label)
	assert.Equal(t, PairSuffixLabel, pairs[0].Kind)
}

func TestDetectPairsNumericBaseTextLabel(t *testing.T) {
	// Not strictly one-to-one (label repeats across codes), but a numeric
	// base with a text label still reads as a code/label pair.
	in := makeTable("input",
		col("kjoenn", "1", "2", "3"),
		col("kjoenn_fmt", "Menn", "Kvinner", "Menn"),
	)

	pairs := DetectPairs(in, nil)
	require.Len(t, pairs, 1)
	assert.Equal(t, "kjoenn", pairs[0].Base)
}

func TestDetectPairsRejectsUnrelatedColumns(t *testing.T) {
	in := makeTable("input",
		col("status", "a", "b", "a"),
		col("status_fmt", "x", "y", "z"),
	)

	pairs := DetectPairs(in, nil)
	assert.Empty(t, pairs, "text/text columns without a one-to-one relation are not a pair")
}

func TestDetectPairsDuplicateIndexInInput(t *testing.T) {
	in := table.New("input")
	base := in.AddColumn("alder", table.Integer)
	label := in.AddColumn("alder", table.Text) // becomes alder.1
	for i, v := range []string{"1", "2"} {
		base.Values = append(base.Values, table.ParseValue(v, table.Integer))
		label.Values = append(label.Values, table.ParseValue([]string{"0-17 år", "18-66 år"}[i], table.Text))
	}

	pairs := DetectPairs(in, nil)
	require.Len(t, pairs, 1)
	assert.Equal(t, "alder", pairs[0].Base)
	assert.Equal(t, "alder.1", pairs[0].Label)
	assert.Equal(t, PairDuplicateIndex, pairs[0].Kind)
}

func TestDetectPairsFromReferenceVariants(t *testing.T) {
	// The reference output carries alder and alder.1; the input names its
	// code and label columns differently, so the pairing is driven by the
	// output shape.
	in := makeTable("input",
		col("aldergr", "1", "2"),
		col("alder_fmt", "0-17 år", "18-66 år"),
		col("antall", "5", "6"),
	)
	ref := table.New("ref")
	ref.AddColumn("alder", table.Integer)
	ref.AddColumn("alder", table.Text)

	pairs := DetectPairs(in, ref)
	require.Len(t, pairs, 1)
	assert.Equal(t, "aldergr", pairs[0].Base, "non-label candidate becomes the base")
	assert.Equal(t, "alder_fmt", pairs[0].Label)
	assert.Equal(t, PairDuplicateIndex, pairs[0].Kind)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("alder", "ALDER"), 1e-9)
	assert.InDelta(t, 10.0/11.0, Similarity("alderu", "alder"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("xyz", "abc"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
}
