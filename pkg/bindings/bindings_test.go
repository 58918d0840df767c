package bindings

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefRoundTrip(t *testing.T) {
	ref := Ref("recursica-global-form-color")
	assert.Equal(t, "var(--recursica-global-form-color)", ref)

	name, ok := RefTarget(ref)
	assert.True(t, ok)
	assert.Equal(t, "recursica-global-form-color", name)

	for _, v := range []string{"4px", "var(--a, 1px)", "var(--)", "{ui-kit.0.x}"} {
		_, ok := RefTarget(v)
		assert.False(t, ok, v)
	}
}

func TestIsRaw(t *testing.T) {
	assert.True(t, IsRaw("{brand.themes.light.state.hover}"))
	assert.True(t, IsRaw("  {x}  "))
	assert.False(t, IsRaw("var(--x)"))
	assert.False(t, IsRaw("{"))
	assert.False(t, IsRaw(""))
}

func TestMap_NamesAndUnresolved(t *testing.T) {
	m := Map{
		"b": "{ui-kit.0.missing}",
		"a": "4px",
		"c": Ref("a"),
	}
	assert.Equal(t, []string{"a", "b", "c"}, m.Names())
	assert.Equal(t, []string{"b"}, m.Unresolved())
}

func TestMap_CloneEqual(t *testing.T) {
	m := Map{"a": "1px"}
	c := m.Clone()
	assert.True(t, m.Equal(c))

	c["a"] = "2px"
	assert.False(t, m.Equal(c))
	assert.Equal(t, "1px", m["a"])

	assert.False(t, m.Equal(Map{"b": "1px"}))
}

func TestCompare(t *testing.T) {
	prev := Map{"keep": "1", "change": "1", "drop": "1"}
	next := Map{"keep": "1", "change": "2", "add": "1"}

	d := Compare(prev, next)
	assert.Equal(t, []string{"add"}, d.Added)
	assert.Equal(t, []string{"change"}, d.Changed)
	assert.Equal(t, []string{"drop"}, d.Removed)
	assert.Equal(t, []string{"add", "change", "drop"}, d.Names())
	assert.False(t, d.Empty())

	assert.True(t, Compare(next, next).Empty())
	assert.Equal(t, []string{"add", "change", "keep"}, Compare(nil, next).Added)
}

func TestApply(t *testing.T) {
	root := NewRoot()

	d := Apply(root, nil, Map{"a": "1px", "b": "transparent"})
	assert.Equal(t, []string{"a", "b"}, d.Added)
	v, ok := root.Property("--a")
	assert.True(t, ok)
	assert.Equal(t, "1px", v)

	d = Apply(root, Map{"a": "1px", "b": "transparent"}, Map{"a": "2px"})
	assert.Equal(t, []string{"a"}, d.Changed)
	assert.Equal(t, []string{"b"}, d.Removed)
	_, ok = root.Property("--b")
	assert.False(t, ok)
	assert.Equal(t, 1, root.Len())
}

func TestRenderCSS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCSS(&buf, Map{"b": Ref("a"), "a": "4px"}, ""))

	assert.Equal(t, ":root {\n  --a: 4px;\n  --b: var(--a);\n}\n", buf.String())
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, Map{"a": "var(--b)", "c": "a<b"}))

	var out map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "var(--b)", out["a"])
	assert.Contains(t, buf.String(), `"a<b"`)
}
