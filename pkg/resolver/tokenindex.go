package resolver

import (
	"sort"
	"strings"

	"github.com/borderux/recursica-forge-sub006/pkg/document"
)

// TokenIndex is a flat lookup of primitive tokens keyed by "/"-joined group
// path, e.g. "opacity/solid". Values are float64 or string; alias tokens keep
// their raw reference text.
type TokenIndex struct {
	values map[string]any
}

// NewTokenIndex flattens a token document. A top-level "tokens" wrapper is
// skipped so that paths start at the token group.
func NewTokenIndex(doc *document.Node) *TokenIndex {
	idx := &TokenIndex{values: make(map[string]any)}
	if doc == nil {
		return idx
	}

	root := doc
	if wrapped := doc.Child("tokens"); wrapped != nil && wrapped.Kind == document.KindGroup {
		root = wrapped
	}
	idx.collect(root, nil)
	return idx
}

func (idx *TokenIndex) collect(n *document.Node, path []string) {
	switch n.Kind {
	case document.KindGroup:
		for _, key := range n.Keys {
			if strings.HasPrefix(key, "$") {
				continue
			}
			idx.collect(n.Children[key], append(path[:len(path):len(path)], key))
		}
	case document.KindLeaf:
		if v, ok := primitive(n.Leaf.Value); ok {
			idx.values[strings.Join(path, "/")] = v
		}
	}
}

// primitive extracts the indexable value of a token. Dimension objects
// ({value, unit}) collapse to their literal form.
func primitive(n *document.Node) (any, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Kind {
	case document.KindScalar:
		switch n.Scalar.Kind {
		case document.ScalarNumber:
			return n.Scalar.Num, true
		case document.ScalarString:
			return n.Scalar.Str, true
		}
	case document.KindGroup:
		if v, ok := n.Child("value").Text(); ok {
			unit, _ := n.Child("unit").Text()
			return v + unit, true
		}
	}
	return nil, false
}

// Len returns the number of indexed tokens.
func (idx *TokenIndex) Len() int {
	return len(idx.values)
}

// Paths returns every indexed path, sorted.
func (idx *TokenIndex) Paths() []string {
	paths := make([]string, 0, len(idx.values))
	for p := range idx.values {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Lookup returns the value stored at path, tolerating singular/plural
// spellings of the first group ("opacity" and "opacities" both match). The
// returned canonical path is the spelling present in the index.
func (idx *TokenIndex) Lookup(path string) (canonical string, value any, ok bool) {
	path = strings.Trim(strings.ReplaceAll(path, ".", "/"), "/")
	if v, ok := idx.values[path]; ok {
		return path, v, true
	}

	head, rest, _ := strings.Cut(path, "/")
	for _, alt := range spellings(head) {
		candidate := alt
		if rest != "" {
			candidate += "/" + rest
		}
		if v, ok := idx.values[candidate]; ok {
			return candidate, v, true
		}
	}
	return "", nil, false
}

// spellings returns the alternative singular/plural forms of a group name.
func spellings(word string) []string {
	switch {
	case strings.HasSuffix(word, "ies"):
		return []string{strings.TrimSuffix(word, "ies") + "y"}
	case strings.HasSuffix(word, "s"):
		return []string{strings.TrimSuffix(word, "s")}
	case strings.HasSuffix(word, "y"):
		return []string{strings.TrimSuffix(word, "y") + "ies", word + "s"}
	default:
		return []string{word + "s"}
	}
}
