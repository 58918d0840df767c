package document

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrNotObject is returned when a document root is not a JSON object.
var ErrNotObject = errors.New("document root is not an object")

// Parse decodes a JSON document into a Node tree. Object key order is kept so
// that traversal order matches the authored document.
func Parse(data []byte) (*Node, error) {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if dataType != jsonparser.Object {
		return nil, ErrNotObject
	}
	return decode(value, dataType)
}

// ParseSet decodes the three documents and computes their combined digest.
// All decode failures are reported together.
func ParseSet(tokens, theme, spec []byte) (Set, error) {
	var errs []error

	tokNode, err := Parse(tokens)
	if err != nil {
		errs = append(errs, fmt.Errorf("tokens: %w", err))
	}
	themeNode, err := Parse(theme)
	if err != nil {
		errs = append(errs, fmt.Errorf("theme: %w", err))
	}
	specNode, err := Parse(spec)
	if err != nil {
		errs = append(errs, fmt.Errorf("spec: %w", err))
	}
	if len(errs) > 0 {
		return Set{}, errors.Join(errs...)
	}

	return Set{
		Tokens: tokNode,
		Theme:  themeNode,
		Spec:   specNode,
		Digest: Digest(tokens, theme, spec),
	}, nil
}

// Digest hashes the raw bytes of a document triple. Each part is length
// prefixed so that moving bytes between documents changes the digest.
func Digest(tokens, theme, spec []byte) string {
	h := sha256.New()
	for _, part := range [][]byte{tokens, theme, spec} {
		fmt.Fprintf(h, "%d:", len(part))
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func decode(value []byte, dataType jsonparser.ValueType) (*Node, error) {
	switch dataType {
	case jsonparser.Object:
		return decodeObject(value)

	case jsonparser.Array:
		n := &Node{Kind: KindArray}
		var itemErr error
		_, err := jsonparser.ArrayEach(value, func(item []byte, dt jsonparser.ValueType, _ int, err error) {
			if itemErr != nil {
				return
			}
			if err != nil {
				itemErr = err
				return
			}
			child, err := decode(item, dt)
			if err != nil {
				itemErr = err
				return
			}
			n.Items = append(n.Items, child)
		})
		if err != nil {
			return nil, err
		}
		if itemErr != nil {
			return nil, itemErr
		}
		return n, nil

	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, fmt.Errorf("invalid string: %w", err)
		}
		return &Node{Kind: KindScalar, Scalar: Scalar{Kind: ScalarString, Str: s}}, nil

	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(value)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", value, err)
		}
		return &Node{Kind: KindScalar, Scalar: Scalar{Kind: ScalarNumber, Num: f}}, nil

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		return &Node{Kind: KindScalar, Scalar: Scalar{Kind: ScalarBool, Bool: b}}, nil

	case jsonparser.Null:
		return &Node{Kind: KindScalar, Scalar: Scalar{Kind: ScalarNull}}, nil

	default:
		return nil, fmt.Errorf("unsupported JSON value %q", value)
	}
}

func decodeObject(value []byte) (*Node, error) {
	n := &Node{Kind: KindGroup, Children: make(map[string]*Node)}

	err := jsonparser.ObjectEach(value, func(rawKey, v []byte, dt jsonparser.ValueType, _ int) error {
		key := string(rawKey)
		child, err := decode(v, dt)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, dup := n.Children[key]; !dup {
			n.Keys = append(n.Keys, key)
		}
		n.Children[key] = child
		return nil
	})
	if err != nil {
		return nil, err
	}

	if leaf := asLeaf(n); leaf != nil {
		return &Node{Kind: KindLeaf, Leaf: leaf}, nil
	}
	return n, nil
}

// asLeaf recognizes {$type, $value} and {type, value} objects. A typed
// object without a value key is a leaf with an absent value as long as it
// carries no nested groups.
func asLeaf(n *Node) *Leaf {
	typeKey, valueKey := "$type", "$value"
	if _, ok := n.Children[typeKey]; !ok {
		typeKey, valueKey = "type", "value"
	}

	typeNode, ok := n.Children[typeKey]
	if !ok || typeNode.Kind != KindScalar || typeNode.Scalar.Kind != ScalarString {
		return nil
	}

	value, hasValue := n.Children[valueKey]
	if !hasValue {
		for _, child := range n.Children {
			if child.Kind != KindScalar {
				return nil
			}
		}
	}

	raw := typeNode.Scalar.Str
	return &Leaf{
		Type:    ParseLeafType(raw),
		RawType: raw,
		Value:   value,
	}
}
