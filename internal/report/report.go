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

// Package report renders a human-readable mapping summary to the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/oyvito/fin-table-prep/internal/inference"
)

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	good    = color.New(color.FgGreen).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
)

// Print writes the mapping summary. suggestions optionally carries
// model-generated canonical-name proposals for unmapped columns, keyed by
// "table.column"; they are advisory and never part of the specification.
func Print(w io.Writer, spec *inference.Specification, suggestions map[string]string) {
	fmt.Fprintf(w, "%s %s\n", heading("Mapping specification"), spec.ID)
	fmt.Fprintf(w, "  table code: %s\n", spec.TableCode)
	fmt.Fprintf(w, "  created:    %s\n\n", spec.CreatedAt.Format("2006-01-02 15:04:05 UTC"))

	for _, in := range spec.Inputs {
		fmt.Fprintf(w, "%s %s\n", heading("Input"), in.Table)
		if in.Mapping == nil {
			continue
		}
		for _, m := range in.Mapping.Mappings {
			line := fmt.Sprintf("  %-24s -> %-24s %.2f  %s", m.Input, m.Target, m.Confidence, m.Strategy)
			if m.Confidence >= 0.9 {
				fmt.Fprintln(w, good(line))
			} else {
				fmt.Fprintln(w, line)
			}
			if m.Transform != nil {
				fmt.Fprintf(w, "  %s\n", dim(fmt.Sprintf("    recoded via codelist %q", m.Transform.Name)))
			}
		}
		for _, ic := range in.Mapping.Ignored {
			fmt.Fprintf(w, "  %s\n", dim(fmt.Sprintf("%-24s ignored: %s", ic.Name, ic.Reason)))
		}
		for _, u := range in.Mapping.Unmapped {
			line := fmt.Sprintf("  %-24s UNMAPPED", u)
			if s, ok := suggestions[in.Table+"."+u]; ok {
				line += fmt.Sprintf("  (suggestion: %s)", s)
			}
			fmt.Fprintln(w, warn(line))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s\n", heading("Keys"))
	if len(spec.Keys.Columns) == 0 {
		fmt.Fprintf(w, "  %s\n", warn("none identified"))
	} else {
		kind := "single"
		if spec.Keys.Composite {
			kind = "composite"
		}
		fmt.Fprintf(w, "  %s (%s, uniqueness %.2f)\n", strings.Join(spec.Keys.Columns, ", "), kind, spec.Keys.Uniqueness)
	}

	if len(spec.UnmappedOutput) > 0 {
		fmt.Fprintf(w, "\n%s\n", heading("Output columns not produced by any input"))
		for _, name := range spec.UnmappedOutput {
			fmt.Fprintf(w, "  %s\n", warn(name))
		}
	}

	if len(spec.Insights) > 0 {
		fmt.Fprintf(w, "\n%s\n", heading("Aggregation insights"))
		for _, ins := range spec.Insights {
			mark := dim("unverified")
			if ins.Verified {
				mark = good("verified")
			}
			fmt.Fprintf(w, "  [%s] %s (%s)\n", ins.Kind, ins.Detail, mark)
		}
	}

	if len(spec.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", heading("Warnings"))
		for _, msg := range spec.SortedWarnings() {
			fmt.Fprintf(w, "  %s\n", warn(msg))
		}
	}
}
