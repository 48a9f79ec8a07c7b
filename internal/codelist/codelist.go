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

// Package codelist implements the lookup registry: versioned code/value
// mapping tables tagged with column-name patterns describing where they
// apply.
package codelist

import (
	"fmt"
	"regexp"
)

// Codelist is one immutable value-mapping table. The pattern lists are
// compiled once at registration, not re-parsed per call.
type Codelist struct {
	Name                 string            `yaml:"name"`
	Description          string            `yaml:"description"`
	Version              string            `yaml:"version"`
	SourceColumnPatterns []string          `yaml:"source_column_patterns"`
	TargetColumnPatterns []string          `yaml:"target_column_patterns"`
	Mappings             map[string]string `yaml:"mappings"`
	Labels               map[string]string `yaml:"labels"`

	sourceRe []*regexp.Regexp
	targetRe []*regexp.Regexp
}

func (c *Codelist) compile() error {
	c.sourceRe = c.sourceRe[:0]
	c.targetRe = c.targetRe[:0]
	for _, p := range c.SourceColumnPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return fmt.Errorf("codelist %q: bad source pattern %q: %w", c.Name, p, err)
		}
		c.sourceRe = append(c.sourceRe, re)
	}
	for _, p := range c.TargetColumnPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return fmt.Errorf("codelist %q: bad target pattern %q: %w", c.Name, p, err)
		}
		c.targetRe = append(c.targetRe, re)
	}
	return nil
}

// MatchesSource reports whether any source pattern matches the column name.
func (c *Codelist) MatchesSource(column string) bool {
	for _, re := range c.sourceRe {
		if re.MatchString(column) {
			return true
		}
	}
	return false
}

// MatchesTarget reports whether the codelist applies to the target column.
// An empty target pattern list matches any target.
func (c *Codelist) MatchesTarget(column string) bool {
	if len(c.targetRe) == 0 {
		return true
	}
	for _, re := range c.targetRe {
		if re.MatchString(column) {
			return true
		}
	}
	return false
}

// MapValue translates one source value.
func (c *Codelist) MapValue(v string) (string, bool) {
	out, ok := c.Mappings[v]
	return out, ok
}

// LabelOf returns the display label of a mapped (target) value, if the
// codelist carries labels.
func (c *Codelist) LabelOf(v string) (string, bool) {
	out, ok := c.Labels[v]
	return out, ok
}

// validate enforces the required fields. A codelist missing them is a load
// failure, not a skippable entry: silent partial lookup data is worse than
// refusing to run.
func (c *Codelist) validate() error {
	if c.Name == "" {
		return fmt.Errorf("codelist has no name")
	}
	if len(c.SourceColumnPatterns) == 0 {
		return fmt.Errorf("codelist %q has no source column patterns", c.Name)
	}
	if len(c.Mappings) == 0 {
		return fmt.Errorf("codelist %q has no mappings", c.Name)
	}
	return nil
}
