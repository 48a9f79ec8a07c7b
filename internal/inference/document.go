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
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"
)

// Document is the serialized form of a Specification: what the generate
// command writes and the validate command reads back. It carries codelist
// references by name and version rather than embedding the mapping tables.
type Document struct {
	ID             string        `yaml:"id"`
	TableCode      string        `yaml:"table_code"`
	CreatedAt      time.Time     `yaml:"created_at"`
	Inputs         []DocInput    `yaml:"inputs"`
	UnmappedOutput []string      `yaml:"unmapped_output,omitempty"`
	Keys           DocKeys       `yaml:"keys"`
	Insights       []DocInsight  `yaml:"insights,omitempty"`
	Warnings       []string      `yaml:"warnings,omitempty"`
}

type DocInput struct {
	Table    string       `yaml:"table"`
	Mappings []DocMapping `yaml:"mappings"`
	Ignored  []DocIgnored `yaml:"ignored,omitempty"`
	Unmapped []string     `yaml:"unmapped,omitempty"`
}

type DocMapping struct {
	Input      string  `yaml:"input"`
	Target     string  `yaml:"target"`
	Confidence float64 `yaml:"confidence"`
	Strategy   string  `yaml:"strategy"`
	Rationale  string  `yaml:"rationale,omitempty"`
	Codelist   string  `yaml:"codelist,omitempty"`
	Version    string  `yaml:"codelist_version,omitempty"`
}

type DocIgnored struct {
	Name   string `yaml:"name"`
	Reason string `yaml:"reason"`
}

type DocKeys struct {
	Columns    []string `yaml:"columns"`
	Uniqueness float64  `yaml:"uniqueness"`
	Composite  bool     `yaml:"composite"`
	Warning    string   `yaml:"warning,omitempty"`
}

type DocInsight struct {
	Kind      string   `yaml:"kind"`
	Column    string   `yaml:"column,omitempty"`
	NewValues []string `yaml:"new_values,omitempty"`
	Detail    string   `yaml:"detail"`
	Verified  bool     `yaml:"verified"`
}

// NewDocument flattens a Specification for serialization.
func NewDocument(spec *Specification) *Document {
	doc := &Document{
		ID:             spec.ID,
		TableCode:      spec.TableCode,
		CreatedAt:      spec.CreatedAt,
		UnmappedOutput: spec.UnmappedOutput,
		Keys: DocKeys{
			Columns:    spec.Keys.Columns,
			Uniqueness: spec.Keys.Uniqueness,
			Composite:  spec.Keys.Composite,
			Warning:    spec.Keys.Warning,
		},
		Warnings: spec.Warnings,
	}
	for _, in := range spec.Inputs {
		di := DocInput{Table: in.Table}
		if in.Mapping != nil {
			for _, m := range in.Mapping.Mappings {
				dm := DocMapping{
					Input:      m.Input,
					Target:     m.Target,
					Confidence: m.Confidence,
					Strategy:   m.Strategy,
					Rationale:  m.Rationale,
				}
				if m.Transform != nil {
					dm.Codelist = m.Transform.Name
					dm.Version = m.Transform.Version
				}
				di.Mappings = append(di.Mappings, dm)
			}
			for _, ic := range in.Mapping.Ignored {
				di.Ignored = append(di.Ignored, DocIgnored{Name: ic.Name, Reason: ic.Reason})
			}
			di.Unmapped = in.Mapping.Unmapped
		}
		doc.Inputs = append(doc.Inputs, di)
	}
	for _, ins := range spec.Insights {
		doc.Insights = append(doc.Insights, DocInsight{
			Kind:      string(ins.Kind),
			Column:    ins.Column,
			NewValues: ins.NewValues,
			Detail:    ins.Detail,
			Verified:  ins.Verified,
		})
	}
	return doc
}

// Encode writes the document as YAML.
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w, yaml.Indent(2))
	defer enc.Close()
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode specification %q: %w", doc.ID, err)
	}
	return nil
}

// Decode reads a document back from YAML.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read specification: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse specification: %w", err)
	}
	return &doc, nil
}

// Validate performs structural checks on a decoded document. Duplicate
// targets within one input are allowed only when split by ordinal variants,
// which the generator guarantees, so a plain duplicate is a corruption sign.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("specification has no id")
	}
	if len(d.Inputs) == 0 {
		return fmt.Errorf("specification %q has no inputs", d.ID)
	}
	for _, in := range d.Inputs {
		if in.Table == "" {
			return fmt.Errorf("specification %q: input with empty table name", d.ID)
		}
		seenInput := make(map[string]bool)
		seenTarget := make(map[string]bool)
		for _, m := range in.Mappings {
			if m.Input == "" || m.Target == "" {
				return fmt.Errorf("specification %q: input %q has a mapping with empty endpoint", d.ID, in.Table)
			}
			if m.Confidence <= 0 || m.Confidence > 1 {
				return fmt.Errorf("specification %q: mapping %s -> %s has confidence %v outside (0, 1]",
					d.ID, m.Input, m.Target, m.Confidence)
			}
			if seenInput[m.Input] {
				return fmt.Errorf("specification %q: input column %q mapped twice in %q", d.ID, m.Input, in.Table)
			}
			if seenTarget[m.Target] {
				return fmt.Errorf("specification %q: target column %q claimed twice in %q", d.ID, m.Target, in.Table)
			}
			seenInput[m.Input] = true
			seenTarget[m.Target] = true
		}
	}
	return nil
}
