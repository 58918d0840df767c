// Package document holds the in-memory form of the three input documents
// (token, theme, component specification) and decodes them from JSON while
// preserving key order.
package document

import (
	"strconv"
	"strings"
)

// Kind discriminates the shape of a Node.
type Kind int

const (
	KindGroup Kind = iota
	KindLeaf
	KindArray
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindLeaf:
		return "leaf"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// LeafType is the declared type of a leaf.
type LeafType string

const (
	TypeDimension  LeafType = "dimension"
	TypeElevation  LeafType = "elevation"
	TypeTypography LeafType = "typography"
	TypeColor      LeafType = "color"
	TypeNumber     LeafType = "number"
	TypeString     LeafType = "string"
	TypeOther      LeafType = "other"
)

// ParseLeafType maps a raw type name onto the known leaf types.
// Unrecognized names map to TypeOther.
func ParseLeafType(raw string) LeafType {
	switch LeafType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeDimension:
		return TypeDimension
	case TypeElevation:
		return TypeElevation
	case TypeTypography:
		return TypeTypography
	case TypeColor:
		return TypeColor
	case TypeNumber:
		return TypeNumber
	case TypeString:
		return TypeString
	default:
		return TypeOther
	}
}

// ScalarKind discriminates primitive JSON values.
type ScalarKind int

const (
	ScalarNull ScalarKind = iota
	ScalarString
	ScalarNumber
	ScalarBool
)

// Scalar is a primitive JSON value.
type Scalar struct {
	Kind ScalarKind
	Str  string
	Num  float64
	Bool bool
}

// Leaf is a typed value node: {type, value} or {$type, $value}.
type Leaf struct {
	Type    LeafType
	RawType string
	// Value is nil when the value key was absent.
	Value *Node
}

// Node is one element of a document tree. Exactly one of the kind-specific
// fields is populated, selected by Kind.
type Node struct {
	Kind Kind

	// Keys holds group child names in document order.
	Keys     []string
	Children map[string]*Node

	Items []*Node

	Leaf *Leaf

	Scalar Scalar
}

// Child returns the named child of a group node, or nil.
func (n *Node) Child(key string) *Node {
	if n == nil || n.Kind != KindGroup {
		return nil
	}
	return n.Children[key]
}

// Lookup walks a chain of group keys and returns the node at the end, or nil.
func (n *Node) Lookup(path ...string) *Node {
	cur := n
	for _, key := range path {
		cur = cur.Child(key)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// IsNull reports whether n is absent or a JSON null.
func (n *Node) IsNull() bool {
	return n == nil || (n.Kind == KindScalar && n.Scalar.Kind == ScalarNull)
}

// Text returns the string form of a scalar node. Numbers are formatted in
// their shortest representation.
func (n *Node) Text() (string, bool) {
	if n == nil || n.Kind != KindScalar {
		return "", false
	}
	switch n.Scalar.Kind {
	case ScalarString:
		return n.Scalar.Str, true
	case ScalarNumber:
		return FormatNumber(n.Scalar.Num), true
	case ScalarBool:
		return strconv.FormatBool(n.Scalar.Bool), true
	default:
		return "", false
	}
}

// Number returns the numeric value of a number scalar.
func (n *Node) Number() (float64, bool) {
	if n == nil || n.Kind != KindScalar || n.Scalar.Kind != ScalarNumber {
		return 0, false
	}
	return n.Scalar.Num, true
}

// FormatNumber renders f without exponent and without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Set is the triple of documents consumed by one resolution run.
type Set struct {
	Tokens *Node
	Theme  *Node
	Spec   *Node

	// Digest identifies the raw bytes the set was decoded from. Empty when the
	// set was assembled in memory.
	Digest string
}
