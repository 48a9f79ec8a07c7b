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

// Package inference runs the full pipeline over a set of input tables and
// a reference output and assembles the mapping specification.
package inference

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oyvito/fin-table-prep/internal/aggregate"
	"github.com/oyvito/fin-table-prep/internal/codelist"
	"github.com/oyvito/fin-table-prep/internal/keys"
	"github.com/oyvito/fin-table-prep/internal/mapper"
	"github.com/oyvito/fin-table-prep/internal/schema"
	"github.com/oyvito/fin-table-prep/internal/table"
)

// Request is one inference run: the input extracts, the reference output
// they should produce, and the target table code.
type Request struct {
	Inputs    []*table.Table
	Reference *table.Table
	TableCode string
}

// InputMapping is the per-input part of the specification.
type InputMapping struct {
	Table   string
	Mapping *mapper.TableMapping
	Pairs   []mapper.VariablePair
	Roles   mapper.ColumnRoles
}

// Specification is the assembled result of one run. Everything the
// downstream preparation script needs is here; nothing refers back to the
// live inputs.
type Specification struct {
	ID             string
	TableCode      string
	CreatedAt      time.Time
	Inputs         []InputMapping
	UnmappedOutput []string
	Keys           keys.KeySet
	Insights       []aggregate.Insight
	Warnings       []string
}

// Service wires the registry, the control schema and the analysis stages
// together. It is safe for concurrent use.
type Service struct {
	registry *codelist.Registry
	schema   *schema.Schema
	logger   *zap.SugaredLogger
	opts     mapper.Options
}

// NewService constructs a Service. logger must not be nil; registry and
// controlSchema may be (the corresponding strategies then yield nothing).
func NewService(registry *codelist.Registry, controlSchema *schema.Schema, logger *zap.SugaredLogger, opts mapper.Options) *Service {
	return &Service{
		registry: registry,
		schema:   controlSchema,
		logger:   logger,
		opts:     opts,
	}
}

// Run executes the pipeline: per-input pair detection and column mapping in
// parallel, then key identification over all inputs, then the simulated
// merge and aggregation analysis. Unmapped columns and missing keys are
// warnings inside the specification; only a malformed request is an error.
func (s *Service) Run(ctx context.Context, req Request) (*Specification, error) {
	start := time.Now()
	if req.Reference == nil {
		return nil, fmt.Errorf("inference request has no reference output table")
	}
	if len(req.Inputs) == 0 {
		return nil, fmt.Errorf("inference request has no input tables")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := s.opts
	opts.TableCode = req.TableCode
	m := mapper.New(s.registry, s.schema, opts)

	s.logger.Infow("starting inference run",
		"table_code", req.TableCode,
		"inputs", len(req.Inputs),
		"reference_rows", req.Reference.Rows())

	spec := &Specification{
		ID:        uuid.NewString(),
		TableCode: req.TableCode,
		CreatedAt: time.Now().UTC(),
		Inputs:    make([]InputMapping, len(req.Inputs)),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var warnings []string
	for i, in := range req.Inputs {
		wg.Add(1)
		go func(i int, in *table.Table) {
			defer wg.Done()
			pairs := mapper.DetectPairs(in, req.Reference)
			tm := m.Map(in, req.Reference, pairs)
			roles := mapper.ClassifyColumns(in, pairs)

			mu.Lock()
			defer mu.Unlock()
			spec.Inputs[i] = InputMapping{Table: in.Name, Mapping: tm, Pairs: pairs, Roles: roles}
			for _, name := range tm.Unmapped {
				warnings = append(warnings, fmt.Sprintf("input %q: column %q could not be mapped", in.Name, name))
			}
			if in.Rows() == 0 {
				warnings = append(warnings, fmt.Sprintf("input %q has no rows; value-based checks were skipped", in.Name))
			}
		}(i, in)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spec.UnmappedOutput = unmappedOutput(req.Reference, spec.Inputs)
	for _, name := range spec.UnmappedOutput {
		warnings = append(warnings, fmt.Sprintf("output column %q is not produced by any input", name))
	}

	keyInputs := make([]keys.Input, len(req.Inputs))
	for i, in := range req.Inputs {
		keyInputs[i] = keys.Input{Table: in, Mapping: spec.Inputs[i].Mapping, Pairs: spec.Inputs[i].Pairs}
	}
	spec.Keys = keys.Identify(keyInputs)
	if len(spec.Keys.Columns) == 0 {
		warnings = append(warnings, "no reliable key columns identified: "+spec.Keys.Warning)
	}

	merged := s.simulateMerge(req, spec)
	analysis := aggregate.Analyze(merged, req.Reference)
	spec.Insights = analysis.Insights
	warnings = append(warnings, analysis.Warnings...)
	spec.Warnings = warnings

	s.logger.Infow("inference run complete",
		"id", spec.ID,
		"mapped_inputs", len(spec.Inputs),
		"key_columns", spec.Keys.Columns,
		"insights", len(spec.Insights),
		"warnings", len(spec.Warnings),
		"elapsed", time.Since(start))
	return spec, nil
}

// simulateMerge builds the canonicalized form of every input and combines
// them the way the preparation script will, to predict the produced row set.
func (s *Service) simulateMerge(req Request, spec *Specification) *table.Table {
	canonical := make([]*table.Table, len(req.Inputs))
	for i, in := range req.Inputs {
		canonical[i] = canonicalize(in, spec.Inputs[i].Mapping)
	}
	return table.MergeAll(canonical)
}

// canonicalize renames mapped columns to their targets and recodes values
// through the attached codelists. Ignored columns are dropped; unmapped
// columns keep their original names so the merge can still align on them.
func canonicalize(in *table.Table, tm *mapper.TableMapping) *table.Table {
	ignored := make(map[string]bool)
	for _, ic := range tm.Ignored {
		ignored[strings.ToLower(ic.Name)] = true
	}
	out := table.New(in.Name)
	type colPair struct {
		src *table.Column
		dst *table.Column
		cl  *codelist.Codelist
	}
	var cols []colPair
	for _, col := range in.Columns() {
		if ignored[strings.ToLower(col.Name)] {
			continue
		}
		name := col.Name
		kind := col.Kind
		var cl *codelist.Codelist
		if mp, ok := tm.MappingFor(col.Name); ok {
			name = mp.Target
			if mp.Transform != nil {
				cl = mp.Transform
				kind = table.Text
			}
		}
		cols = append(cols, colPair{src: col, dst: out.AddColumn(name, kind), cl: cl})
	}
	rows := in.Rows()
	for _, cp := range cols {
		for r := 0; r < rows; r++ {
			v := cp.src.Values[r]
			if cp.cl != nil && !v.IsMissing() {
				if mapped, ok := cp.cl.MapValue(v.String()); ok {
					v = table.String(mapped)
				} else {
					v = table.String(v.String())
				}
			}
			cp.dst.Values = append(cp.dst.Values, v)
		}
	}
	return out
}

// unmappedOutput lists reference columns no input maps to, sorted by the
// reference's column order.
func unmappedOutput(ref *table.Table, inputs []InputMapping) []string {
	used := make(map[string]bool)
	for _, in := range inputs {
		if in.Mapping == nil {
			continue
		}
		for _, mp := range in.Mapping.Mappings {
			used[strings.ToLower(mp.Target)] = true
		}
	}
	var out []string
	for _, col := range ref.Columns() {
		if !used[strings.ToLower(col.Name)] {
			out = append(out, col.Name)
		}
	}
	return out
}

// MappedColumnCount is a convenience for reporting.
func (s *Specification) MappedColumnCount() int {
	n := 0
	for _, in := range s.Inputs {
		if in.Mapping != nil {
			n += len(in.Mapping.Mappings)
		}
	}
	return n
}

// SortedWarnings returns a stable copy of the warnings for display.
func (s *Specification) SortedWarnings() []string {
	out := append([]string(nil), s.Warnings...)
	sort.Strings(out)
	return out
}
