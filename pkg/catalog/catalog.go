package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
	"github.com/borderux/recursica-forge-sub006/pkg/resolver"
)

// Catalog holds a resolved binding map in queryable form.
type Catalog struct {
	Namespace  string    `json:"namespace"`
	Mode       string    `json:"mode,omitempty"`
	Components []string  `json:"components"`
	Bindings   []Binding `json:"bindings"`
	Groups     []Group   `json:"groups"`
}

// CatalogIndex provides O(1) lookups into the catalog.
// Built by BuildIndex after validation passes.
type CatalogIndex struct {
	// BindingByName maps binding name -> *Binding.
	BindingByName map[string]*Binding

	// BindingsByGroup maps group name -> []*Binding.
	BindingsByGroup map[string][]*Binding

	// BindingsByComponent maps component name -> []*Binding.
	BindingsByComponent map[string][]*Binding

	// Referrers maps binding name -> names of bindings that reference it.
	Referrers map[string][]string
}

// New builds a catalog from a binding map. components lists the known
// component names; when empty, the segment after "components" is used.
func New(m bindings.Map, namespace, mode string, components []string) *Catalog {
	if namespace == "" {
		namespace = resolver.DefaultNamespace
	}
	c := &Catalog{Namespace: namespace, Mode: mode}

	known := append([]string(nil), components...)
	// longest first so "text-field" wins over "text"
	sort.Slice(known, func(i, j int) bool { return len(known[i]) > len(known[j]) })

	groupMembers := make(map[string][]string)
	seenComponents := make(map[string]bool)
	for _, name := range m.Names() {
		b := newBinding(name, m[name], namespace, known)
		c.Bindings = append(c.Bindings, b)
		groupMembers[b.Group] = append(groupMembers[b.Group], name)
		if b.Component != "" && !seenComponents[b.Component] {
			seenComponents[b.Component] = true
			c.Components = append(c.Components, b.Component)
		}
	}
	sort.Strings(c.Components)

	groups := make([]string, 0, len(groupMembers))
	for g := range groupMembers {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		c.Groups = append(c.Groups, Group{Name: g, Bindings: groupMembers[g]})
	}
	return c
}

// FromResult builds a catalog from a resolver result.
func FromResult(res resolver.Result, namespace string) *Catalog {
	return New(res.Bindings, namespace, res.Mode, res.Components)
}

func newBinding(name, value, namespace string, components []string) Binding {
	b := Binding{Name: name, Value: value, Kind: classify(value)}
	if target, ok := bindings.RefTarget(value); ok {
		b.Target = target
	}

	rest := strings.TrimPrefix(name, namespace+"-")
	group, tail, _ := strings.Cut(rest, "-")
	b.Group = group
	if group == "components" && tail != "" {
		b.Component = componentOf(tail, components)
	}
	return b
}

func componentOf(tail string, components []string) string {
	for _, c := range components {
		if tail == c || strings.HasPrefix(tail, c+"-") {
			return c
		}
	}
	head, _, _ := strings.Cut(tail, "-")
	return head
}

func classify(value string) Kind {
	switch {
	case value == bindings.Transparent:
		return KindTransparent
	case bindings.IsRaw(value):
		return KindRaw
	default:
		if _, ok := bindings.RefTarget(value); ok {
			return KindReference
		}
		return KindLiteral
	}
}

// Validate checks the catalog for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (c *Catalog) Validate() []error {
	var errs []error

	if c.Namespace == "" {
		errs = append(errs, fmt.Errorf("catalog namespace is required"))
	}

	names := make(map[string]bool, len(c.Bindings))
	for i, b := range c.Bindings {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("bindings[%d]: name is required", i))
			continue
		}
		if names[b.Name] {
			errs = append(errs, fmt.Errorf("binding %q: duplicate binding name", b.Name))
			continue
		}
		names[b.Name] = true

		if !strings.HasPrefix(b.Name, c.Namespace+"-") {
			errs = append(errs, fmt.Errorf("binding %q: outside namespace %q", b.Name, c.Namespace))
		}
		if b.Target == b.Name {
			errs = append(errs, fmt.Errorf("binding %q: references itself", b.Name))
		}
	}

	for _, g := range c.Groups {
		for _, name := range g.Bindings {
			if !names[name] {
				errs = append(errs, fmt.Errorf("group %q: references non-existent binding %q", g.Name, name))
			}
		}
	}

	return errs
}

// BuildIndex creates lookup maps for fast access.
// Should be called after Validate() passes.
func (c *Catalog) BuildIndex() *CatalogIndex {
	idx := &CatalogIndex{
		BindingByName:       make(map[string]*Binding, len(c.Bindings)),
		BindingsByGroup:     make(map[string][]*Binding),
		BindingsByComponent: make(map[string][]*Binding),
		Referrers:           make(map[string][]string),
	}

	for i := range c.Bindings {
		b := &c.Bindings[i]
		idx.BindingByName[b.Name] = b
		idx.BindingsByGroup[b.Group] = append(idx.BindingsByGroup[b.Group], b)
		if b.Component != "" {
			idx.BindingsByComponent[b.Component] = append(idx.BindingsByComponent[b.Component], b)
		}
		if b.Target != "" {
			idx.Referrers[b.Target] = append(idx.Referrers[b.Target], b.Name)
		}
	}

	return idx
}

// Map returns the catalog's bindings as a flat map.
func (c *Catalog) Map() bindings.Map {
	m := make(bindings.Map, len(c.Bindings))
	for _, b := range c.Bindings {
		m[b.Name] = b.Value
	}
	return m
}

// LoadFromFile loads an exported binding map from a JSON file, validates it,
// and builds the index.
func LoadFromFile(path, namespace string) (*Catalog, *CatalogIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read bindings file: %w", err)
	}
	return LoadFromBytes(data, namespace)
}

// LoadFromBytes parses an exported binding map (a flat JSON object), validates
// it, and builds the index.
func LoadFromBytes(data []byte, namespace string) (*Catalog, *CatalogIndex, error) {
	var m bindings.Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("failed to parse bindings JSON: %w", err)
	}

	catalog := New(m, namespace, "", nil)
	if errs := catalog.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("catalog validation failed: %w", errors.Join(errs...))
	}

	index := catalog.BuildIndex()
	return catalog, index, nil
}
