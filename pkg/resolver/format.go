package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
	"github.com/borderux/recursica-forge-sub006/pkg/document"
)

// DefaultUnit is appended to unit-less dimensions and numbers.
const DefaultUnit = "px"

// units are the suffixes recognized on numeric strings.
var units = []string{"px", "rem", "em", "%", "vh", "vw", "vmin", "vmax", "pt", "ch", "ex", "ms", "s", "deg", "fr"}

// elevationTail matches an elevation reference by its last segments. The
// group may be spelled "elevations" or "elevation", so both
// brand.themes.light.elevations.elevation-1 and elevation.elevation-1 collapse
// to "elevation-1".
var elevationTail = regexp.MustCompile(`(?:^|\.)elevations?\.(elevation-\d+)$`)

// state records how a formatted value should be treated after traversal.
type state int

const (
	settled state = iota
	// deferred values still hold raw reference text and are retried by the
	// settle loop.
	deferred
	// verbatim values are stored as written and never retried.
	verbatim
)

type formatter struct {
	mapper   Mapper
	resolver *Resolver
	mode     string
}

// format produces the value-string for the leaf bound to name.
func (f *formatter) format(name string, leaf *document.Leaf, soFar bindings.Map) (string, state) {
	switch leaf.Type {
	case document.TypeDimension:
		return f.dimension(name, leaf.Value, soFar)
	case document.TypeElevation:
		if s, ok := rawText(leaf.Value); ok {
			if path, isRef := Unwrap(s); isRef {
				if m := elevationTail.FindStringSubmatch(path); m != nil {
					return m[1], settled
				}
			}
		}
		return f.generic(name, leaf.Type, leaf.Value, soFar)
	case document.TypeTypography:
		if s, ok := rawText(leaf.Value); ok {
			return strings.TrimSpace(s), verbatim
		}
		if leaf.Value.IsNull() {
			return "", verbatim
		}
		return leaf.Value.Literal(), verbatim
	case document.TypeColor:
		if leaf.Value.IsNull() {
			return bindings.Transparent, settled
		}
		return f.generic(name, leaf.Type, leaf.Value, soFar)
	default:
		return f.generic(name, leaf.Type, leaf.Value, soFar)
	}
}

// reference tries to resolve raw reference text. A reference back to the
// leaf's own binding counts as unresolved.
func (f *formatter) reference(name, raw string, soFar bindings.Map) (string, bool) {
	path, ok := Unwrap(raw)
	if !ok {
		return "", false
	}
	ref, ok := f.resolver.Resolve(path, f.mode, soFar, 0)
	if !ok || ref == bindings.Ref(name) {
		return "", false
	}
	return ref, true
}

// dimension formats a {value, unit} object or a bare value. A null value
// (top level or inner) is stored as "", the same as an empty string.
func (f *formatter) dimension(name string, v *document.Node, soFar bindings.Map) (string, state) {
	inner, unit := v, DefaultUnit
	if v != nil && v.Kind == document.KindGroup {
		inner = v.Child("value")
		if u, ok := v.Child("unit").Text(); ok && strings.TrimSpace(u) != "" {
			unit = strings.TrimSpace(u)
		}
		if inner == nil {
			return v.Literal(), settled
		}
	}
	if inner.IsNull() {
		return "", settled
	}

	if s, ok := rawText(inner); ok {
		if bindings.IsRaw(strings.TrimSpace(s)) {
			if ref, ok := f.reference(name, s, soFar); ok {
				return ref, settled
			}
			return strings.TrimSpace(s), deferred
		}
		s = strings.TrimSpace(s)
		if HasUnit(s) || !isNumeric(s) {
			return s, settled
		}
		return s + unit, settled
	}
	if num, ok := inner.Number(); ok {
		return document.FormatNumber(num) + unit, settled
	}
	return literal(inner), settled
}

// generic formats every other type. Null becomes "" rather than "null".
func (f *formatter) generic(name string, typ document.LeafType, v *document.Node, soFar bindings.Map) (string, state) {
	if v.IsNull() {
		return "", settled
	}
	if s, ok := rawText(v); ok {
		if bindings.IsRaw(strings.TrimSpace(s)) {
			if ref, ok := f.reference(name, s, soFar); ok {
				return ref, settled
			}
			return strings.TrimSpace(s), deferred
		}
		if typ == document.TypeNumber && isNumeric(strings.TrimSpace(s)) {
			return strings.TrimSpace(s) + DefaultUnit, settled
		}
		return s, settled
	}
	if num, ok := v.Number(); ok {
		if typ == document.TypeNumber {
			return document.FormatNumber(num) + DefaultUnit, settled
		}
		return document.FormatNumber(num), settled
	}
	return literal(v), settled
}

// literal renders a non-string value. {value, unit} objects concatenate.
func literal(v *document.Node) string {
	if v.Kind == document.KindGroup {
		if val, ok := v.Child("value").Text(); ok {
			unit, _ := v.Child("unit").Text()
			return val + unit
		}
		return v.Literal()
	}
	if s, ok := v.Text(); ok {
		return s
	}
	return v.Literal()
}

func rawText(v *document.Node) (string, bool) {
	if v == nil || v.Kind != document.KindScalar || v.Scalar.Kind != document.ScalarString {
		return "", false
	}
	return v.Scalar.Str, true
}

func isNumeric(s string) bool {
	if s == "" || !strings.ContainsAny(s[:1], "+-.0123456789") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// HasUnit reports whether s is a number followed by a recognized unit.
func HasUnit(s string) bool {
	s = strings.TrimSpace(s)
	for _, u := range units {
		if strings.HasSuffix(s, u) && isNumeric(strings.TrimSuffix(s, u)) {
			return true
		}
	}
	return false
}
