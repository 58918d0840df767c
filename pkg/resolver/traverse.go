package resolver

import (
	"sort"
	"strconv"
	"strings"

	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
	"github.com/borderux/recursica-forge-sub006/pkg/document"
)

// walker accumulates the bindings of one traversal.
type walker struct {
	fmt        *formatter
	out        bindings.Map
	deferred   map[string]struct{}
	verbatim   map[string]struct{}
	components map[string]struct{}
	leaves     int
}

func newWalker(f *formatter) *walker {
	return &walker{
		fmt:        f,
		out:        make(bindings.Map),
		deferred:   make(map[string]struct{}),
		verbatim:   make(map[string]struct{}),
		components: make(map[string]struct{}),
	}
}

// walk visits n depth-first in document order.
func (w *walker) walk(n *document.Node, path []string) {
	if n == nil {
		return
	}
	switch n.Kind {
	case document.KindGroup:
		atComponents := w.isComponentsGroup(path)
		for _, key := range n.Keys {
			if strings.HasPrefix(key, "$") {
				continue
			}
			if atComponents {
				w.components[Segment(key)] = struct{}{}
			}
			w.walk(n.Children[key], extend(path, key))
		}
	case document.KindArray:
		for i, item := range n.Items {
			itemPath := extend(path, strconv.Itoa(i))
			// scalars count as values only inside arrays; a bare
			// "description": "..." is metadata
			if item != nil && item.Kind == document.KindScalar {
				w.emit(itemPath, &document.Leaf{Type: document.TypeOther, Value: item})
				continue
			}
			w.walk(item, itemPath)
		}
	case document.KindLeaf:
		w.emit(path, n.Leaf)
	}
}

func (w *walker) emit(path []string, leaf *document.Leaf) {
	name := w.fmt.mapper.Name(path)
	value, st := w.fmt.format(name, leaf, w.out)
	w.leaves++

	w.out[name] = value
	delete(w.deferred, name)
	delete(w.verbatim, name)
	switch st {
	case deferred:
		w.deferred[name] = struct{}{}
	case verbatim:
		w.verbatim[name] = struct{}{}
	}
}

// isComponentsGroup reports whether path is the top-level "components" group,
// ignoring wrapper segments.
func (w *walker) isComponentsGroup(path []string) bool {
	if len(path) == 0 || path[len(path)-1] != "components" {
		return false
	}
	for _, seg := range path[:len(path)-1] {
		if seg != w.fmt.mapper.WrapperKey {
			return false
		}
	}
	return true
}

func extend(path []string, seg string) []string {
	return append(path[:len(path):len(path)], seg)
}

// specRoot picks the subtree of the component-specification document to walk
// and the path prefix its leaves carry.
//
// A mode-indexed root ("0", "3", ...) yields the subtree for mode, falling back
// to the first mode key present; the mode key itself is not part of the path.
// A root holding the wrapper key yields the wrapper subtree (checked for mode
// indexing again). Anything else is walked whole.
func specRoot(spec *document.Node, wrapperKey, mode string) (*document.Node, []string) {
	if sub, ok := modeSubtree(spec, mode); ok {
		return sub, nil
	}
	if wrapped := spec.Child(wrapperKey); wrapped != nil && wrapped.Kind == document.KindGroup {
		if sub, ok := modeSubtree(wrapped, mode); ok {
			return sub, []string{wrapperKey}
		}
		return wrapped, []string{wrapperKey}
	}
	return spec, nil
}

func modeSubtree(n *document.Node, mode string) (*document.Node, bool) {
	if n == nil || n.Kind != document.KindGroup {
		return nil, false
	}
	var modeKeys []string
	hasKnown := false
	for _, k := range n.Keys {
		if strings.HasPrefix(k, "$") {
			continue
		}
		if !isDigits(k) {
			return nil, false
		}
		modeKeys = append(modeKeys, k)
		hasKnown = hasKnown || isSpecModeKey(k)
	}
	if !hasKnown {
		return nil, false
	}
	if key, ok := SpecModeKey(mode); ok {
		if sub := n.Child(key); sub != nil {
			return sub, true
		}
	}
	return n.Child(modeKeys[0]), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
