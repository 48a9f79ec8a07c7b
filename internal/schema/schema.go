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

// Package schema loads the control schema: the authoritative list of
// canonical variable names and their known synonyms.
package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// Variable is one canonical variable definition.
type Variable struct {
	Name             string   `yaml:"-"`
	AlternativeNames []string `yaml:"alternative_names"`
	Description      string   `yaml:"description"`
	// DataType optionally declares the expected value kind: "integer",
	// "float" or "text".
	DataType string `yaml:"data_type"`
}

type schemaFile struct {
	StandardVariables map[string]*Variable `yaml:"standard_variables"`
}

// Schema is the immutable control schema, constructed once and passed into
// every stage as a read-only dependency.
type Schema struct {
	vars     map[string]*Variable // keyed by lowercase canonical name
	synonyms map[string]string    // lowercase synonym -> canonical name
}

// New builds a schema from canonical variable definitions. The synonym index
// is precomputed here with canonical names visited in sorted order, so a
// synonym claimed by more than one variable always resolves to the same
// canonical name.
func New(vars []*Variable) *Schema {
	s := &Schema{
		vars:     make(map[string]*Variable, len(vars)),
		synonyms: make(map[string]string),
	}
	for _, v := range vars {
		s.vars[strings.ToLower(v.Name)] = v
	}
	names := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := s.vars[strings.ToLower(name)]
		for _, alt := range v.AlternativeNames {
			key := strings.ToLower(alt)
			if _, taken := s.synonyms[key]; !taken {
				s.synonyms[key] = v.Name
			}
		}
	}
	return s
}

// Load reads a control schema from a YAML or JSON file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read control schema: %w", err)
	}
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse control schema %s: %w", path, err)
	}
	vars := make([]*Variable, 0, len(file.StandardVariables))
	for name, v := range file.StandardVariables {
		if v == nil {
			v = &Variable{}
		}
		v.Name = name
		vars = append(vars, v)
	}
	return New(vars), nil
}

// CanonicalNames returns all canonical names, sorted.
func (s *Schema) CanonicalNames() []string {
	names := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}

// SynonymsOf returns the known synonyms of a canonical name.
func (s *Schema) SynonymsOf(canonical string) []string {
	v, ok := s.vars[strings.ToLower(canonical)]
	if !ok {
		return nil
	}
	out := make([]string, len(v.AlternativeNames))
	copy(out, v.AlternativeNames)
	return out
}

// Resolve matches a column name against canonical names and synonyms,
// case-insensitively. exact reports whether the name matched the canonical
// name itself rather than a synonym.
func (s *Schema) Resolve(columnName string) (canonical string, exact bool, ok bool) {
	needle := strings.ToLower(strings.TrimSpace(columnName))
	if v, hit := s.vars[needle]; hit {
		return v.Name, true, true
	}
	if canonical, hit := s.synonyms[needle]; hit {
		return canonical, false, true
	}
	return "", false, false
}

// IsGeographic reports whether a canonical variable denotes a geographic
// unit, either by the conventional "geografi" name or by its description.
func (s *Schema) IsGeographic(canonical string) bool {
	lower := strings.ToLower(canonical)
	if lower == "geografi" {
		return true
	}
	v, ok := s.vars[lower]
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(v.Description), "geografi")
}

// Len returns the number of canonical variables.
func (s *Schema) Len() int { return len(s.vars) }
