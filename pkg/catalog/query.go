package catalog

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
	"github.com/borderux/recursica-forge-sub006/pkg/resolver"
)

// BindingSearchResult holds a binding match with the reason it matched.
type BindingSearchResult struct {
	Binding     *Binding
	MatchReason string
}

// QueryService provides read-only query methods over a catalog.
type QueryService struct {
	Catalog *Catalog
	Index   *CatalogIndex
	mapper  resolver.Mapper
}

// NewQueryService creates a QueryService from a validated catalog and its index.
func NewQueryService(cat *Catalog, idx *CatalogIndex) *QueryService {
	return &QueryService{
		Catalog: cat,
		Index:   idx,
		mapper:  resolver.NewMapper(cat.Namespace, ""),
	}
}

// FromResultQuery builds a ready-to-use QueryService from a resolver result.
func FromResultQuery(res resolver.Result, namespace string) *QueryService {
	cat := FromResult(res, namespace)
	return NewQueryService(cat, cat.BuildIndex())
}

// LoadAndQueryBytes loads an exported binding map and returns a ready-to-use QueryService.
func LoadAndQueryBytes(data []byte, namespace string) (*QueryService, error) {
	cat, idx, err := LoadFromBytes(data, namespace)
	if err != nil {
		return nil, err
	}
	return NewQueryService(cat, idx), nil
}

// ListGroups returns all groups in the catalog.
func (q *QueryService) ListGroups() []Group {
	return q.Catalog.Groups
}

// ListComponents returns the component names, sorted.
func (q *QueryService) ListComponents() []string {
	return q.Catalog.Components
}

// ListBindings returns bindings filtered by group, glob pattern, and keyword.
// Every filter is optional (pass "" to skip) and they combine with AND logic.
// The pattern is a doublestar glob matched against the binding name with "-"
// treated as a path separator, e.g. "recursica-components-button-**".
// The keyword matches case-insensitively against name and value.
func (q *QueryService) ListBindings(group, pattern, keyword string) ([]Binding, error) {
	var candidates []*Binding
	if group != "" {
		candidates = q.Index.BindingsByGroup[group]
	} else {
		candidates = make([]*Binding, 0, len(q.Catalog.Bindings))
		for i := range q.Catalog.Bindings {
			candidates = append(candidates, &q.Catalog.Bindings[i])
		}
	}

	var glob string
	if pattern != "" {
		glob = toPath(pattern)
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
	}

	keyword = strings.ToLower(keyword)
	result := make([]Binding, 0)

	for _, b := range candidates {
		if glob != "" {
			if ok, _ := doublestar.Match(glob, toPath(b.Name)); !ok {
				continue
			}
		}
		if keyword != "" {
			if !strings.Contains(strings.ToLower(b.Name), keyword) && !strings.Contains(strings.ToLower(b.Value), keyword) {
				continue
			}
		}
		result = append(result, *b)
	}

	return result, nil
}

// toPath maps a hyphenated binding name onto a slash path for glob matching.
func toPath(name string) string {
	return strings.ReplaceAll(name, "-", "/")
}

// GetBinding looks up a binding by name. The name may be given as a CSS
// custom property ("--name"), a reference ("var(--name)"), or without the
// namespace prefix.
func (q *QueryService) GetBinding(name string) (*Binding, bool) {
	name = q.canonical(name)
	b, ok := q.Index.BindingByName[name]
	return b, ok
}

func (q *QueryService) canonical(name string) string {
	name = strings.TrimSpace(name)
	if target, ok := bindings.RefTarget(name); ok {
		return target
	}
	name = strings.TrimPrefix(name, "--")
	if _, ok := q.Index.BindingByName[name]; ok {
		return name
	}
	if !strings.HasPrefix(name, q.Catalog.Namespace+"-") {
		return q.Catalog.Namespace + "-" + name
	}
	return name
}

// GetComponentBindings returns the bindings of one component.
func (q *QueryService) GetComponentBindings(component string) []*Binding {
	return q.Index.BindingsByComponent[resolver.Segment(component)]
}

// ComponentBinding derives the binding name a component adapter reads for a
// component property and returns it with the binding, if present.
// parts are the variant, state, layer and property segments in path order;
// empty parts are skipped.
func (q *QueryService) ComponentBinding(component string, parts ...string) (string, *Binding, bool) {
	name := q.mapper.Component(component, parts...)
	b, ok := q.Index.BindingByName[name]
	return name, b, ok
}

// Referrers returns the names of bindings that reference name.
func (q *QueryService) Referrers(name string) []string {
	return q.Index.Referrers[q.canonical(name)]
}

// Follow walks a binding's references until it reaches a value that is not
// a reference, a name outside the catalog, or a cycle.
func (q *QueryService) Follow(name string) Chain {
	start := q.canonical(name)
	chain := Chain{Start: start}

	seen := map[string]bool{start: true}
	cur := start
	for {
		b, ok := q.Index.BindingByName[cur]
		if !ok {
			chain.Missing = true
			return chain
		}
		chain.Value = b.Value
		if b.Target == "" {
			return chain
		}
		if seen[b.Target] {
			chain.Cycle = true
			return chain
		}
		seen[b.Target] = true
		chain.Steps = append(chain.Steps, b.Target)
		cur = b.Target
	}
}

// SearchBindings performs a case-insensitive search across binding names,
// reference targets, and values.
// Returns matching bindings with the reason for the match.
func (q *QueryService) SearchBindings(query string) []BindingSearchResult {
	query = strings.ToLower(query)
	if query == "" {
		return nil
	}

	var results []BindingSearchResult
	for i := range q.Catalog.Bindings {
		b := &q.Catalog.Bindings[i]

		switch {
		case strings.Contains(strings.ToLower(b.Name), query):
			results = append(results, BindingSearchResult{Binding: b, MatchReason: "name"})
		case b.Target != "" && strings.Contains(strings.ToLower(b.Target), query):
			results = append(results, BindingSearchResult{Binding: b, MatchReason: "target:" + b.Target})
		case strings.Contains(strings.ToLower(b.Value), query):
			results = append(results, BindingSearchResult{Binding: b, MatchReason: "value"})
		}
	}

	return results
}
