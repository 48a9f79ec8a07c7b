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

// Package script renders a mapping specification as a runnable pandas
// preparation script, the deliverable the analysts actually execute.
package script

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/oyvito/fin-table-prep/internal/inference"
)

type recode struct {
	Column   string
	Codelist string
	Pairs    []kv
}

type kv struct{ From, To string }

type inputData struct {
	Table   string
	Renames []kv
	Recodes []recode
	Dropped []string
}

type templateData struct {
	ID        string
	TableCode string
	CreatedAt string
	Inputs    []inputData
	Keys      []string
	Warnings  []string
	Insights  []string
}

var tmpl = template.Must(template.New("prep").Funcs(template.FuncMap{
	"pystr": pyString,
}).Parse(`#!/usr/bin/env python3
"""Preparation script for {{.TableCode}}.

Generated by fin-table-prep (run {{.ID}}, {{.CreatedAt}}).
Review the mappings below before running against production extracts.
"""
import pandas as pd

{{- range $i, $w := .Warnings}}
{{- if eq $i 0}}

# Review notes:
{{- end}}
#   - {{$w}}
{{- end}}
{{- range $i, $n := .Insights}}
{{- if eq $i 0}}

# Aggregation steps reproduced below were inferred from the reference output:
{{- end}}
#   - {{$n}}
{{- end}}

frames = []
{{range .Inputs}}
df = pd.read_csv({{pystr .Table}} + ".csv", sep=";", dtype=str)
{{- if .Dropped}}
df = df.drop(columns=[{{range $i, $d := .Dropped}}{{if $i}}, {{end}}{{pystr $d}}{{end}}])
{{- end}}
{{- if .Renames}}
df = df.rename(columns={
{{- range .Renames}}
    {{pystr .From}}: {{pystr .To}},
{{- end}}
})
{{- end}}
{{- range .Recodes}}
# codelist: {{.Codelist}}
df[{{pystr .Column}}] = df[{{pystr .Column}}].map({
{{- range .Pairs}}
    {{pystr .From}}: {{pystr .To}},
{{- end}}
}).fillna(df[{{pystr .Column}}])
{{- end}}
frames.append(df)
{{end}}
{{- if .Keys}}
keys = [{{range $i, $k := .Keys}}{{if $i}}, {{end}}{{pystr $k}}{{end}}]
result = frames[0]
for df in frames[1:]:
    shared = [c for c in keys if c in result.columns and c in df.columns]
    if shared:
        result = result.merge(df, on=shared, how="outer")
    else:
        result = pd.concat([result, df], ignore_index=True)
{{- else}}
# No reliable key columns were identified; falling back to concatenation.
result = pd.concat(frames, ignore_index=True)
{{- end}}

result.to_csv({{pystr .TableCode}} + ".csv", sep=";", index=False)
`))

// Render writes the preparation script for spec.
func Render(w io.Writer, spec *inference.Specification) error {
	data := templateData{
		ID:        spec.ID,
		TableCode: spec.TableCode,
		CreatedAt: spec.CreatedAt.Format("2006-01-02 15:04 UTC"),
		Keys:      spec.Keys.Columns,
		Warnings:  spec.SortedWarnings(),
	}
	for _, ins := range spec.Insights {
		data.Insights = append(data.Insights, ins.Detail)
	}
	for _, in := range spec.Inputs {
		id := inputData{Table: in.Table}
		if in.Mapping != nil {
			for _, m := range in.Mapping.Mappings {
				if m.Input != m.Target {
					id.Renames = append(id.Renames, kv{From: m.Input, To: m.Target})
				}
				if m.Transform != nil {
					id.Recodes = append(id.Recodes, recode{
						Column:   m.Target,
						Codelist: m.Transform.Name,
						Pairs:    sortedPairs(m.Transform.Mappings),
					})
				}
			}
			for _, ic := range in.Mapping.Ignored {
				id.Dropped = append(id.Dropped, ic.Name)
			}
		}
		data.Inputs = append(data.Inputs, id)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render preparation script for %s: %w", spec.TableCode, err)
	}
	return nil
}

func sortedPairs(m map[string]string) []kv {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]kv, len(keys))
	for i, k := range keys {
		out[i] = kv{From: k, To: m[k]}
	}
	return out
}

// pyString quotes a value as a Python string literal.
func pyString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
