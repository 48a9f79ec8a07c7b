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

// Package mapper infers how one input table's columns map onto the
// reference output's canonical columns.
package mapper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oyvito/fin-table-prep/internal/codelist"
	"github.com/oyvito/fin-table-prep/internal/schema"
	"github.com/oyvito/fin-table-prep/internal/table"
)

// Strategy confidences. The strategies are ranked: every strategy runs and
// the best-confidence candidate wins, so precedence is auditable instead of
// being an artifact of loop order.
const (
	confSchemaExact   = 1.0
	confSchemaSynonym = 0.95
	confExactName     = 0.9
	confGeographic    = 0.85
	confCodelist      = 0.8
	// Similarity candidates scale with the ratio and always rank below the
	// name-based strategies.
	similarityScale = 0.75
)

// ColumnMapping maps one input column to a canonical output column.
type ColumnMapping struct {
	Input      string
	Target     string
	Confidence float64
	Strategy   string
	Rationale  string
	// Transform is the codelist recoding the input's values into the
	// target's value domain, when one applies.
	Transform *codelist.Codelist
}

// IgnoredColumn is an input column deliberately left out of the mapping,
// with the reason surfaced to the caller.
type IgnoredColumn struct {
	Name   string
	Reason string
}

// TableMapping is the column mapper's result for a single input table.
// It is mutated only while Map runs and read-only afterwards.
type TableMapping struct {
	Table          string
	Mappings       []ColumnMapping
	Ignored        []IgnoredColumn
	Unmapped       []string
	UnmappedOutput []string
	Pairs          []VariablePair
	GeoSuggestions map[string]GeoSuggestion
}

// MappingFor returns the mapping of an input column, if any.
func (tm *TableMapping) MappingFor(input string) (*ColumnMapping, bool) {
	for i := range tm.Mappings {
		if strings.EqualFold(tm.Mappings[i].Input, input) {
			return &tm.Mappings[i], true
		}
	}
	return nil, false
}

// TargetOf returns the canonical target of an input column, if mapped.
func (tm *TableMapping) TargetOf(input string) (string, bool) {
	m, ok := tm.MappingFor(input)
	if !ok {
		return "", false
	}
	return m.Target, true
}

// CanonicalName translates an input column name to its canonical name,
// falling back to the input name itself when unmapped.
func (tm *TableMapping) CanonicalName(input string) string {
	if target, ok := tm.TargetOf(input); ok {
		return target
	}
	return input
}

// Options tune the mapper's fixed thresholds.
type Options struct {
	// TableCode identifies the target table definition, e.g. "OK-SYS001";
	// its prefix selects the statistical domain.
	TableCode string
	// SimilarityThreshold is the minimum name-similarity ratio for the
	// fallback strategy. Default 0.6.
	SimilarityThreshold float64
	// ContentOverlap is the minimum distinct-value overlap required to
	// confirm a similarity match. Default 0.3.
	ContentOverlap float64
	// ValueSample bounds how many distinct values are compared. Default 100.
	ValueSample int
}

func (o Options) withDefaults() Options {
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = 0.6
	}
	if o.ContentOverlap <= 0 {
		o.ContentOverlap = 0.3
	}
	if o.ValueSample <= 0 {
		o.ValueSample = 100
	}
	return o
}

// Mapper maps input columns onto the reference output using the read-only
// lookup registry and control schema.
type Mapper struct {
	registry *codelist.Registry
	schema   *schema.Schema
	opts     Options
	domain   Domain
}

// New constructs a Mapper. registry and controlSchema may be nil, in which
// case the corresponding strategies produce no candidates.
func New(registry *codelist.Registry, controlSchema *schema.Schema, opts Options) *Mapper {
	opts = opts.withDefaults()
	return &Mapper{
		registry: registry,
		schema:   controlSchema,
		opts:     opts,
		domain:   DomainFromTableCode(opts.TableCode),
	}
}

type candidate struct {
	target     string
	confidence float64
	strategy   string
	rationale  string
	transform  *codelist.Codelist
}

// Map produces the column mapping from input to the reference output.
// Columns matching no strategy are reported as unmapped, never as errors.
func (m *Mapper) Map(input, ref *table.Table, pairs []VariablePair) *TableMapping {
	tm := &TableMapping{
		Table:          input.Name,
		Pairs:          pairs,
		GeoSuggestions: make(map[string]GeoSuggestion),
	}
	labelSet := make(map[string]bool)
	for _, p := range pairs {
		labelSet[strings.ToLower(p.Label)] = true
	}
	used := make(map[string]bool) // lowercase target -> claimed

	for _, col := range input.Columns() {
		if labelSet[strings.ToLower(col.Name)] {
			continue
		}
		best, ok := m.bestCandidate(col, input, ref, used, tm)
		if !ok {
			continue
		}
		tm.Mappings = append(tm.Mappings, ColumnMapping{
			Input:      col.Name,
			Target:     best.target,
			Confidence: best.confidence,
			Strategy:   best.strategy,
			Rationale:  best.rationale,
			Transform:  best.transform,
		})
		used[strings.ToLower(best.target)] = true
	}

	m.attachTransforms(tm, input, ref)
	m.resolveDuplicateTargets(tm, ref)
	m.routePairLabels(tm, ref)
	m.fillReport(tm, input, ref, labelSet)
	return tm
}

// bestCandidate runs every strategy and keeps the highest confidence.
// Strategy order breaks exact confidence ties.
func (m *Mapper) bestCandidate(col *table.Column, input, ref *table.Table, used map[string]bool, tm *TableMapping) (candidate, bool) {
	strategies := []func(*table.Column, *table.Table, *table.Table, map[string]bool, *TableMapping) (candidate, bool){
		m.schemaLookup,
		m.geographicNaming,
		m.exactName,
		m.codelistValue,
		m.nameSimilarity,
	}
	var best candidate
	found := false
	for _, strategy := range strategies {
		c, ok := strategy(col, input, ref, used, tm)
		if !ok {
			continue
		}
		if !found || c.confidence > best.confidence {
			best = c
			found = true
		}
	}
	return best, found
}

// schemaLookup matches the column name against canonical names and their
// synonyms. Geographic variables are re-routed through the role-aware
// naming so e.g. a population table's district column becomes a residence
// column rather than a generic geography one.
func (m *Mapper) schemaLookup(col *table.Column, _, ref *table.Table, used map[string]bool, tm *TableMapping) (candidate, bool) {
	if m.schema == nil {
		return candidate{}, false
	}
	canonical, exact, ok := m.schema.Resolve(col.Name)
	if !ok {
		return candidate{}, false
	}
	conf := confSchemaSynonym
	rationale := fmt.Sprintf("control schema synonym of %q", canonical)
	if exact {
		conf = confSchemaExact
		rationale = "control schema canonical name"
	}
	if m.schema.IsGeographic(canonical) {
		s := SuggestGeographicColumn(col.Name, m.domain)
		tm.GeoSuggestions[col.Name] = s
		for _, name := range []string{s.CodeColumn, s.LabelColumn} {
			if refCol, present := ref.Column(name); present && !used[strings.ToLower(refCol.Name)] {
				return candidate{
					target:     refCol.Name,
					confidence: conf,
					strategy:   "schema-lookup",
					rationale:  strings.Join(s.Reasoning, "; "),
				}, true
			}
		}
		return candidate{}, false
	}
	if refCol, present := ref.Column(canonical); present && !used[strings.ToLower(refCol.Name)] {
		return candidate{
			target:     refCol.Name,
			confidence: conf,
			strategy:   "schema-lookup",
			rationale:  rationale,
		}, true
	}
	return candidate{}, false
}

// geographicNaming catches geographic columns the control schema does not
// know by name.
func (m *Mapper) geographicNaming(col *table.Column, _, ref *table.Table, used map[string]bool, tm *TableMapping) (candidate, bool) {
	if !LooksGeographic(col.Name) {
		return candidate{}, false
	}
	s := SuggestGeographicColumn(col.Name, m.domain)
	tm.GeoSuggestions[col.Name] = s
	for _, name := range []string{s.CodeColumn, s.LabelColumn} {
		if refCol, present := ref.Column(name); present && !used[strings.ToLower(refCol.Name)] {
			return candidate{
				target:     refCol.Name,
				confidence: confGeographic,
				strategy:   "geographic-naming",
				rationale:  strings.Join(s.Reasoning, "; "),
			}, true
		}
	}
	return candidate{}, false
}

// exactName matches names after lowercasing and stripping spaces and
// underscores.
func (m *Mapper) exactName(col *table.Column, _, ref *table.Table, used map[string]bool, _ *TableMapping) (candidate, bool) {
	needle := normalizeName(col.Name)
	for _, refCol := range ref.Columns() {
		if used[strings.ToLower(refCol.Name)] {
			continue
		}
		if normalizeName(refCol.Name) == needle {
			return candidate{
				target:     refCol.Name,
				confidence: confExactName,
				strategy:   "exact-name",
				rationale:  "column names equal after normalization",
			}, true
		}
	}
	return candidate{}, false
}

// codelistValue finds a reference column reachable from this column's value
// domain through a registered codelist.
func (m *Mapper) codelistValue(col *table.Column, _, ref *table.Table, used map[string]bool, _ *TableMapping) (candidate, bool) {
	if m.registry == nil {
		return candidate{}, false
	}
	srcValues := col.DistinctStrings(m.opts.ValueSample)
	for _, refCol := range ref.Columns() {
		if used[strings.ToLower(refCol.Name)] {
			continue
		}
		cl := m.registry.FindMatch(col.Name, refCol.Name, srcValues, refCol.DistinctStrings(m.opts.ValueSample))
		if cl == nil {
			continue
		}
		return candidate{
			target:     refCol.Name,
			confidence: confCodelist,
			strategy:   "codelist-value",
			rationale:  fmt.Sprintf("values recodable via codelist %q", cl.Name),
			transform:  cl,
		}, true
	}
	return candidate{}, false
}

// nameSimilarity is the fallback: token-level string similarity, confirmed
// by comparing value vocabularies when the input has data. Name similarity
// alone is not sufficient evidence for populated low-cardinality columns.
func (m *Mapper) nameSimilarity(col *table.Column, input, ref *table.Table, used map[string]bool, _ *TableMapping) (candidate, bool) {
	bestScore := m.opts.SimilarityThreshold
	var bestTarget string
	for _, refCol := range ref.Columns() {
		if used[strings.ToLower(refCol.Name)] {
			continue
		}
		score := Similarity(col.Name, refCol.Name)
		if score <= bestScore {
			continue
		}
		if input.Rows() > 0 && !m.contentConfirms(col, refCol) {
			continue
		}
		bestScore = score
		bestTarget = refCol.Name
	}
	if bestTarget == "" {
		return candidate{}, false
	}
	return candidate{
		target:     bestTarget,
		confidence: similarityScale * bestScore,
		strategy:   "name-similarity",
		rationale:  fmt.Sprintf("name similarity %.2f", bestScore),
	}, true
}

// contentConfirms checks that two low-cardinality columns share a
// substantial part of their value vocabularies. High-cardinality columns
// (identifiers, measures) are exempt, since their domains legitimately
// differ between extract and standardized output.
func (m *Mapper) contentConfirms(col, refCol *table.Column) bool {
	const lowCardinality = 50
	in := col.DistinctStrings(m.opts.ValueSample)
	out := refCol.DistinctStrings(m.opts.ValueSample)
	if len(in) == 0 || len(out) == 0 {
		return true
	}
	if len(in) > lowCardinality || len(out) > lowCardinality {
		return true
	}
	shared := 0
	for v := range in {
		if _, ok := out[v]; ok {
			shared++
		}
	}
	max := len(in)
	if len(out) > max {
		max = len(out)
	}
	return float64(shared)/float64(max) >= m.opts.ContentOverlap
}

// attachTransforms asks the registry for a value transform on every mapped
// column, including those matched by name: a coincidental name match must
// never suppress a needed recode.
func (m *Mapper) attachTransforms(tm *TableMapping, input, ref *table.Table) {
	if m.registry == nil {
		return
	}
	for i := range tm.Mappings {
		mp := &tm.Mappings[i]
		if mp.Transform != nil {
			continue
		}
		col, ok := input.Column(mp.Input)
		if !ok {
			continue
		}
		refCol, ok := ref.Column(mp.Target)
		if !ok {
			continue
		}
		cl := m.registry.FindMatch(col.Name, refCol.Name, col.DistinctStrings(m.opts.ValueSample), refCol.DistinctStrings(m.opts.ValueSample))
		if cl != nil {
			mp.Transform = cl
		}
	}
}

// resolveDuplicateTargets distributes several inputs claiming the same
// target across the output's duplicate-index variants (X, X.1, X.2 …).
// Inputs a variant cannot be found for lose their mapping: one canonical
// name may be the target of at most one input column unless split by an
// ordinal suffix.
func (m *Mapper) resolveDuplicateTargets(tm *TableMapping, ref *table.Table) {
	byTarget := make(map[string][]int)
	var order []string
	for i := range tm.Mappings {
		key := strings.ToLower(baseName(tm.Mappings[i].Target))
		if len(byTarget[key]) == 0 {
			order = append(order, key)
		}
		byTarget[key] = append(byTarget[key], i)
	}
	var drop []int
	for _, key := range order {
		idxs := byTarget[key]
		if len(idxs) < 2 {
			continue
		}
		variants := variantColumns(ref, baseName(tm.Mappings[idxs[0]].Target))
		sort.Slice(idxs, func(a, b int) bool {
			ia, ib := tm.Mappings[idxs[a]].Input, tm.Mappings[idxs[b]].Input
			aFmt := strings.HasSuffix(strings.ToLower(ia), LabelSuffix)
			bFmt := strings.HasSuffix(strings.ToLower(ib), LabelSuffix)
			if aFmt != bFmt {
				return !aFmt
			}
			return ia < ib
		})
		for n, idx := range idxs {
			if n < len(variants) {
				tm.Mappings[idx].Target = variants[n]
			} else {
				drop = append(drop, idx)
			}
		}
	}
	if len(drop) > 0 {
		sort.Sort(sort.Reverse(sort.IntSlice(drop)))
		for _, idx := range drop {
			tm.Mappings = append(tm.Mappings[:idx], tm.Mappings[idx+1:]...)
		}
	}
}

// routePairLabels maps each pair's label column to the next free ordinal
// variant of its base's target. When the output has no variant column but
// the base's codelist supplies display labels, the label column is
// deliberately ignored rather than reported missing.
func (m *Mapper) routePairLabels(tm *TableMapping, ref *table.Table) {
	used := make(map[string]bool)
	for i := range tm.Mappings {
		used[strings.ToLower(tm.Mappings[i].Target)] = true
	}
	for _, pair := range tm.Pairs {
		if _, already := tm.MappingFor(pair.Label); already {
			continue
		}
		base, ok := tm.MappingFor(pair.Base)
		if !ok {
			continue
		}
		routed := false
		for _, variant := range variantColumns(ref, baseName(base.Target)) {
			if used[strings.ToLower(variant)] {
				continue
			}
			tm.Mappings = append(tm.Mappings, ColumnMapping{
				Input:      pair.Label,
				Target:     variant,
				Confidence: base.Confidence,
				Strategy:   "variable-pair",
				Rationale:  fmt.Sprintf("label column of %q (%s)", pair.Base, pair.Kind),
			})
			used[strings.ToLower(variant)] = true
			routed = true
			break
		}
		if !routed && base.Transform != nil && len(base.Transform.Labels) > 0 {
			tm.Ignored = append(tm.Ignored, IgnoredColumn{
				Name:   pair.Label,
				Reason: fmt.Sprintf("display label supplied by codelist %q", base.Transform.Name),
			})
		}
	}
}

func (m *Mapper) fillReport(tm *TableMapping, input, ref *table.Table, labelSet map[string]bool) {
	mapped := make(map[string]bool)
	for i := range tm.Mappings {
		mapped[strings.ToLower(tm.Mappings[i].Input)] = true
	}
	ignored := make(map[string]bool)
	for _, ic := range tm.Ignored {
		ignored[strings.ToLower(ic.Name)] = true
	}
	for _, col := range input.Columns() {
		lower := strings.ToLower(col.Name)
		if !mapped[lower] && !ignored[lower] {
			tm.Unmapped = append(tm.Unmapped, col.Name)
		}
	}
	usedTargets := make(map[string]bool)
	for i := range tm.Mappings {
		usedTargets[strings.ToLower(tm.Mappings[i].Target)] = true
	}
	for _, refCol := range ref.Columns() {
		if !usedTargets[strings.ToLower(refCol.Name)] {
			tm.UnmappedOutput = append(tm.UnmappedOutput, refCol.Name)
		}
	}
}

// variantColumns lists the duplicate-index variant set of base that exists
// in ref: base itself, then base.1, base.2 … until the first gap.
func variantColumns(ref *table.Table, base string) []string {
	var out []string
	if c, ok := ref.Column(base); ok {
		out = append(out, c.Name)
	}
	for i := 1; ; i++ {
		c, ok := ref.Column(fmt.Sprintf("%s.%d", base, i))
		if !ok {
			break
		}
		out = append(out, c.Name)
	}
	return out
}

// baseName strips a trailing ordinal marker (".1", ".2" …).
func baseName(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		suffix := name[i+1:]
		if suffix != "" && strings.Trim(suffix, "0123456789") == "" {
			return name[:i]
		}
	}
	return name
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "_", "")
}
