package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borderux/recursica-forge-sub006/pkg/document"
)

const tokensJSON = `{
  "tokens": {
    "$description": "primitive tokens",
    "opacity": {
      "solid":  {"type": "number", "value": 1},
      "veiled": {"type": "number", "value": "{tokens.opacity.solid}"},
      "ghost":  {"type": "number", "value": "{tokens.opacity.missing}"}
    },
    "size": {
      "4": {"type": "dimension", "value": {"value": 4, "unit": "px"}}
    },
    "colors": {
      "gray": {"100": {"type": "color", "value": "#f5f5f5"}}
    }
  }
}`

func parseDoc(t *testing.T, src string) *document.Node {
	t.Helper()
	n, err := document.Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func TestTokenIndex_Flatten(t *testing.T) {
	idx := NewTokenIndex(parseDoc(t, tokensJSON))

	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, []string{
		"colors/gray/100",
		"opacity/ghost",
		"opacity/solid",
		"opacity/veiled",
		"size/4",
	}, idx.Paths())

	_, v, ok := idx.Lookup("opacity/solid")
	require.True(t, ok)
	assert.Equal(t, float64(1), v)

	_, v, ok = idx.Lookup("size.4")
	require.True(t, ok)
	assert.Equal(t, "4px", v)

	_, v, ok = idx.Lookup("opacity.veiled")
	require.True(t, ok)
	assert.Equal(t, "{tokens.opacity.solid}", v)
}

func TestTokenIndex_Spellings(t *testing.T) {
	idx := NewTokenIndex(parseDoc(t, tokensJSON))

	canonical, _, ok := idx.Lookup("opacities.solid")
	require.True(t, ok)
	assert.Equal(t, "opacity/solid", canonical)

	canonical, _, ok = idx.Lookup("sizes.4")
	require.True(t, ok)
	assert.Equal(t, "size/4", canonical)

	canonical, v, ok := idx.Lookup("color.gray.100")
	require.True(t, ok)
	assert.Equal(t, "colors/gray/100", canonical)
	assert.Equal(t, "#f5f5f5", v)

	_, _, ok = idx.Lookup("opacity.missing")
	assert.False(t, ok)
}

func TestTokenIndex_Nil(t *testing.T) {
	idx := NewTokenIndex(nil)
	assert.Equal(t, 0, idx.Len())
	_, _, ok := idx.Lookup("anything")
	assert.False(t, ok)
}
