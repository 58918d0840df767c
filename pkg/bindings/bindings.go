// Package bindings defines the flat output namespace produced by the resolver
// and the helpers consumers use to apply, diff, and export it.
package bindings

import (
	"sort"
	"strings"
)

// Transparent is the value stored for color leaves without a value.
const Transparent = "transparent"

// Map is the resolver output: binding name → value-string.
//
// A value-string is a literal (with unit), Transparent, a reference produced by
// Ref, or raw brace-delimited reference text that could not be resolved.
type Map map[string]string

// Names returns the binding names in sorted order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal reports whether m and other hold the same entries.
func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Unresolved returns the sorted names whose value is still raw reference text.
func (m Map) Unresolved() []string {
	var names []string
	for name, value := range m {
		if IsRaw(value) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Ref renders a reference to the binding called name.
func Ref(name string) string {
	return "var(--" + name + ")"
}

// RefTarget returns the binding name a reference points to.
func RefTarget(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if !strings.HasPrefix(v, "var(--") || !strings.HasSuffix(v, ")") {
		return "", false
	}
	name := v[len("var(--") : len(v)-1]
	if name == "" || strings.ContainsAny(name, ",() ") {
		return "", false
	}
	return name, true
}

// IsRaw reports whether value is brace-delimited reference text.
func IsRaw(value string) bool {
	v := strings.TrimSpace(value)
	return len(v) >= 2 && v[0] == '{' && v[len(v)-1] == '}'
}
