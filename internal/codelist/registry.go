package codelist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// DefaultOverlapThreshold is the minimum share of a source column's values
// that must be covered by a codelist's mapping keys before the codelist is
// accepted. Below this the registry answers "no match": a wrong lookup
// table silently corrupts every row, so false positives cost more than
// false negatives.
const DefaultOverlapThreshold = 0.5

// Registry holds all loaded codelists. It is populated once at startup and
// read-only afterwards.
type Registry struct {
	byName map[string]*Codelist
	lists  []*Codelist

	// OverlapThreshold overrides DefaultOverlapThreshold when > 0.
	OverlapThreshold float64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Codelist)}
}

// Register validates, compiles and adds a codelist.
func (r *Registry) Register(c *Codelist) error {
	if err := c.validate(); err != nil {
		return err
	}
	if err := c.compile(); err != nil {
		return err
	}
	if _, exists := r.byName[c.Name]; exists {
		return fmt.Errorf("duplicate codelist name %q", c.Name)
	}
	r.byName[c.Name] = c
	r.lists = append(r.lists, c)
	return nil
}

// LoadDir reads every .yaml/.yml/.json codelist under dir. A missing
// directory yields an empty registry; a malformed codelist is fatal.
func LoadDir(dir string) (*Registry, error) {
	r := NewRegistry()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read codelist directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read codelist %s: %w", path, err)
		}
		var c Codelist
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse codelist %s: %w", path, err)
		}
		if c.Name == "" {
			c.Name = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}
		if err := r.Register(&c); err != nil {
			return nil, fmt.Errorf("invalid codelist %s: %w", path, err)
		}
	}
	return r, nil
}

// Get returns a codelist by name.
func (r *Registry) Get(name string) (*Codelist, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns registered codelist names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.lists))
	for _, c := range r.lists {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered codelists.
func (r *Registry) Len() int { return len(r.lists) }

func (r *Registry) threshold() float64 {
	if r.OverlapThreshold > 0 {
		return r.OverlapThreshold
	}
	return DefaultOverlapThreshold
}

// FindMatch returns the codelist that maps sourceColumn's values onto
// targetColumn's, or nil. A codelist is a candidate only when its source
// patterns match sourceColumn and its target patterns match targetColumn.
// Among candidates the one with the highest source-value overlap wins;
// overlap below the threshold is rejected outright. Ties go to the codelist
// with more mappings, then to the one whose mapped codes better cover the
// target values, so the decision is deterministic.
func (r *Registry) FindMatch(sourceColumn, targetColumn string, sourceValues, targetValues map[string]struct{}) *Codelist {
	if len(sourceValues) == 0 {
		return nil
	}
	var best *Codelist
	var bestOverlap, bestTargetOverlap float64
	for _, c := range r.lists {
		if !c.MatchesSource(sourceColumn) || !c.MatchesTarget(targetColumn) {
			continue
		}
		hits := 0
		for v := range sourceValues {
			if _, ok := c.Mappings[v]; ok {
				hits++
			}
		}
		overlap := float64(hits) / float64(len(sourceValues))
		if overlap < r.threshold() {
			continue
		}
		targetOverlap := targetCoverage(c, targetValues)
		switch {
		case best == nil,
			overlap > bestOverlap,
			overlap == bestOverlap && len(c.Mappings) > len(best.Mappings),
			overlap == bestOverlap && len(c.Mappings) == len(best.Mappings) && targetOverlap > bestTargetOverlap:
			best = c
			bestOverlap = overlap
			bestTargetOverlap = targetOverlap
		}
	}
	return best
}

func targetCoverage(c *Codelist, targetValues map[string]struct{}) float64 {
	if len(targetValues) == 0 {
		return 0
	}
	hits := 0
	for _, mapped := range c.Mappings {
		if _, ok := targetValues[mapped]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(targetValues))
}
