package resolver

import "strings"

// Mapper derives binding names from hierarchical paths.
type Mapper struct {
	Namespace  string
	WrapperKey string
}

// NewMapper returns a Mapper with defaults applied to empty fields.
func NewMapper(namespace, wrapperKey string) Mapper {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if wrapperKey == "" {
		wrapperKey = DefaultWrapperKey
	}
	return Mapper{Namespace: namespace, WrapperKey: wrapperKey}
}

// Segment lower-cases a path segment and turns inner whitespace into hyphens.
func Segment(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// Name maps a leaf path to its binding name. Segments equal to the wrapper
// key are dropped so the namespace is not doubled.
func (m Mapper) Name(segments []string) string {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		s = Segment(s)
		if s == "" || s == m.WrapperKey {
			continue
		}
		kept = append(kept, s)
	}
	return m.Join(kept...)
}

// PathName maps a dot path to its binding name.
func (m Mapper) PathName(path string) string {
	return m.Name(strings.Split(path, "."))
}

// Join prefixes parts with the namespace. Parts may themselves contain
// hyphens or dots; empty pieces are dropped.
func (m Mapper) Join(parts ...string) string {
	pieces := make([]string, 0, len(parts)+1)
	if m.Namespace != "" {
		pieces = append(pieces, m.Namespace)
	}
	for _, p := range parts {
		for _, piece := range strings.FieldsFunc(Segment(p), func(r rune) bool { return r == '-' || r == '.' }) {
			pieces = append(pieces, piece)
		}
	}
	return strings.Join(pieces, "-")
}

// Component returns the binding name a component adapter reads for a
// component property, e.g. Component("button", "variant", "solid", "color",
// "layer-0", "background") → recursica-components-button-variant-solid-color-layer-0-background.
// Empty parts are skipped.
func (m Mapper) Component(component string, parts ...string) string {
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, "components", component)
	segments = append(segments, parts...)
	return m.Name(segments)
}
