package document

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Literal renders n as compact JSON, keeping group key order. Leaves render as
// their {type, value} object. A nil node renders as "null".
func (n *Node) Literal() string {
	var sb strings.Builder
	n.writeLiteral(&sb)
	return sb.String()
}

func (n *Node) writeLiteral(sb *strings.Builder) {
	if n == nil {
		sb.WriteString("null")
		return
	}
	switch n.Kind {
	case KindGroup:
		sb.WriteByte('{')
		for i, key := range n.Keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeString(sb, key)
			sb.WriteByte(':')
			n.Children[key].writeLiteral(sb)
		}
		sb.WriteByte('}')
	case KindArray:
		sb.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.writeLiteral(sb)
		}
		sb.WriteByte(']')
	case KindLeaf:
		sb.WriteString(`{"type":`)
		writeString(sb, n.Leaf.RawType)
		if n.Leaf.Value != nil {
			sb.WriteString(`,"value":`)
			n.Leaf.Value.writeLiteral(sb)
		}
		sb.WriteByte('}')
	default:
		switch n.Scalar.Kind {
		case ScalarString:
			writeString(sb, n.Scalar.Str)
		case ScalarNumber:
			sb.WriteString(FormatNumber(n.Scalar.Num))
		case ScalarBool:
			sb.WriteString(strconv.FormatBool(n.Scalar.Bool))
		default:
			sb.WriteString("null")
		}
	}
}

func writeString(sb *strings.Builder, s string) {
	b, _ := json.Marshal(s)
	sb.Write(b)
}
