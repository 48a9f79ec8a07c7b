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
package keys

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oyvito/fin-table-prep/internal/mapper"
	"github.com/oyvito/fin-table-prep/internal/table"
)

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

func seq(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}

func TestIdentifySingleKey(t *testing.T) {
	t1 := makeTable("t1",
		col("grunnkrets", seq(10)...),
		col("antall", "5", "8", "2", "9", "1", "4", "7", "3", "6", "2"),
	)
	t2 := makeTable("t2",
		col("grunnkrets", seq(10)...),
		col("antall", "1", "1", "2", "2", "3", "3", "4", "4", "5", "5"),
	)

	ks := Identify([]Input{{Table: t1}, {Table: t2}})
	assert.Equal(t, []string{"grunnkrets"}, ks.Columns)
	assert.False(t, ks.Composite)
	assert.InDelta(t, 1.0, ks.Uniqueness, 1e-9)
	assert.Empty(t, ks.Warning, "measure columns are excluded silently")
}

func TestIdentifyCompositeKeyMinimized(t *testing.T) {
	// Full cross product of bydel x kjoenn x alder: no single column is
	// unique, the three together are. The constant year column is redundant
	// and must be dropped from the composite.
	var bydel, kjoenn, alder, aargang, antall []string
	for b := 1; b <= 2; b++ {
		for k := 1; k <= 2; k++ {
			for a := 1; a <= 3; a++ {
				bydel = append(bydel, strconv.Itoa(b))
				kjoenn = append(kjoenn, strconv.Itoa(k))
				alder = append(alder, strconv.Itoa(a))
				aargang = append(aargang, "2024")
				antall = append(antall, strconv.Itoa(10*b+k+a))
			}
		}
	}
	in := makeTable("t1",
		col("bydel", bydel...),
		col("kjoenn", kjoenn...),
		col("alder", alder...),
		col("aargang", aargang...),
		col("antall", antall...),
	)

	ks := Identify([]Input{{Table: in}})
	assert.ElementsMatch(t, []string{"alder", "bydel", "kjoenn"}, ks.Columns)
	assert.True(t, ks.Composite)
	assert.InDelta(t, 1.0, ks.Uniqueness, 1e-9)
}

func TestIdentifyExcludesPeriodWhenValuesDiffer(t *testing.T) {
	// One file per year: the year column separates files, not rows.
	t1 := makeTable("t2023",
		col("aargang", "2023", "2023", "2023", "2023"),
		col("bydel", seq(4)...),
	)
	t2 := makeTable("t2024",
		col("aargang", "2024", "2024", "2024", "2024"),
		col("bydel", seq(4)...),
	)

	ks := Identify([]Input{{Table: t1}, {Table: t2}})
	assert.Equal(t, []string{"bydel"}, ks.Columns)
	assert.Contains(t, ks.Warning, "aargang")
}

func TestIdentifyKeepsPeriodWhenValuesAgree(t *testing.T) {
	t1 := makeTable("t1",
		col("aargang", "2023", "2023", "2024", "2024"),
		col("bydel", "1", "2", "1", "2"),
	)
	t2 := makeTable("t2",
		col("aargang", "2024", "2023", "2024", "2023"),
		col("bydel", "2", "1", "1", "2"),
	)

	ks := Identify([]Input{{Table: t1}, {Table: t2}})
	assert.ElementsMatch(t, []string{"aargang", "bydel"}, ks.Columns)
	assert.True(t, ks.Composite)
}

func TestIdentifyUsesCanonicalNames(t *testing.T) {
	t1 := makeTable("extract", col("bydel2", seq(6)...))
	m1 := &mapper.TableMapping{
		Table:    "extract",
		Mappings: []mapper.ColumnMapping{{Input: "bydel2", Target: "bosted_"}},
	}
	t2 := makeTable("ref", col("bosted_", seq(6)...))

	ks := Identify([]Input{{Table: t1, Mapping: m1}, {Table: t2}})
	assert.Equal(t, []string{"bosted_"}, ks.Columns)
}

func TestIdentifyNeverKeysOnPairLabels(t *testing.T) {
	// The label column is the only unique one; it still must not become a
	// key, so no reliable key exists here.
	in := makeTable("t1",
		col("alder", "1", "1", "2", "2"),
		col("alder_fmt", "0-5 år", "6-12 år", "13-19 år", "20-66 år"),
	)
	pairs := []mapper.VariablePair{{Base: "alder", Label: "alder_fmt", Kind: mapper.PairSuffixLabel}}

	ks := Identify([]Input{{Table: in, Pairs: pairs}})
	assert.Empty(t, ks.Columns)
	assert.Contains(t, ks.Warning, "no reliable key")
}

func TestIdentifyNoCommonColumns(t *testing.T) {
	t1 := makeTable("t1", col("bydel", "1", "2"))
	t2 := makeTable("t2", col("kjoenn", "1", "2"))

	ks := Identify([]Input{{Table: t1}, {Table: t2}})
	assert.Empty(t, ks.Columns)
	assert.Contains(t, ks.Warning, "common to all inputs")
}

func TestIdentifyEmptyTable(t *testing.T) {
	in := makeTable("t1", col("bydel"))

	ks := Identify([]Input{{Table: in}})
	assert.Empty(t, ks.Columns)
	assert.NotEmpty(t, ks.Warning)
}

func TestIdentifyNoInputs(t *testing.T) {
	ks := Identify(nil)
	assert.Empty(t, ks.Columns)
	assert.NotEmpty(t, ks.Warning)
}
