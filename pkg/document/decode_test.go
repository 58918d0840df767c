package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borderux/recursica-forge-sub006/pkg/util"
)

func TestParse_KeepsKeyOrder(t *testing.T) {
	n, err := Parse([]byte(`{"zeta": 1, "alpha": 2, "mid": {"b": true, "a": null}}`))
	require.NoError(t, err)

	assert.Equal(t, KindGroup, n.Kind)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, n.Keys)
	assert.Equal(t, []string{"b", "a"}, n.Child("mid").Keys)
	assert.True(t, n.Lookup("mid", "a").IsNull())
}

func TestParse_Leaves(t *testing.T) {
	n, err := Parse([]byte(`{
		"padding": {"type": "dimension", "value": {"value": 4, "unit": "px"}},
		"bg": {"$type": "color", "$value": "#fff"},
		"none": {"type": "color", "value": null},
		"absent": {"type": "color", "description": "no value"},
		"typed-group": {"type": "color", "nested": {"type": "string", "value": "x"}}
	}`))
	require.NoError(t, err)

	padding := n.Child("padding")
	require.Equal(t, KindLeaf, padding.Kind)
	assert.Equal(t, TypeDimension, padding.Leaf.Type)
	assert.Equal(t, KindGroup, padding.Leaf.Value.Kind)
	num, ok := padding.Leaf.Value.Child("value").Number()
	assert.True(t, ok)
	assert.Equal(t, 4.0, num)

	bg := n.Child("bg")
	require.Equal(t, KindLeaf, bg.Kind)
	text, ok := bg.Leaf.Value.Text()
	assert.True(t, ok)
	assert.Equal(t, "#fff", text)

	none := n.Child("none")
	require.Equal(t, KindLeaf, none.Kind)
	assert.True(t, none.Leaf.Value.IsNull())

	absent := n.Child("absent")
	require.Equal(t, KindLeaf, absent.Kind)
	assert.Nil(t, absent.Leaf.Value)

	assert.Equal(t, KindGroup, n.Child("typed-group").Kind)
}

func TestParse_UnknownTypeKeepsRawName(t *testing.T) {
	n, err := Parse([]byte(`{"x": {"type": "shadow", "value": "0 1px"}}`))
	require.NoError(t, err)

	leaf := n.Child("x").Leaf
	assert.Equal(t, TypeOther, leaf.Type)
	assert.Equal(t, "shadow", leaf.RawType)
}

func TestParse_Arrays(t *testing.T) {
	n, err := Parse([]byte(`{"list": [{"type": "number", "value": 1}, "two", 3.5]}`))
	require.NoError(t, err)

	list := n.Child("list")
	require.Equal(t, KindArray, list.Kind)
	require.Len(t, list.Items, 3)
	assert.Equal(t, KindLeaf, list.Items[0].Kind)
	text, _ := list.Items[1].Text()
	assert.Equal(t, "two", text)
	text, _ = list.Items[2].Text()
	assert.Equal(t, "3.5", text)
}

func TestParse_EscapedStrings(t *testing.T) {
	n, err := Parse([]byte(`{"s": "line\nbreak \"quoted\""}`))
	require.NoError(t, err)

	text, _ := n.Child("s").Text()
	assert.Equal(t, "line\nbreak \"quoted\"", text)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = Parse([]byte(`{"a": `))
	assert.Error(t, err)
}

func TestParseSet_JoinsErrors(t *testing.T) {
	_, err := ParseSet([]byte(`{}`), []byte(`[]`), []byte(`nope`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme:")
	assert.Contains(t, err.Error(), "spec:")
	assert.NotContains(t, err.Error(), "tokens:")
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("ab"), []byte("c"), []byte("{}"))
	b := Digest([]byte("a"), []byte("bc"), []byte("{}"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Digest([]byte("ab"), []byte("c"), []byte("{}")))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "4", FormatNumber(4))
	assert.Equal(t, "0.5", FormatNumber(0.5))
	assert.Equal(t, "-12.25", FormatNumber(-12.25))
}

func TestParseLeafType(t *testing.T) {
	assert.Equal(t, TypeDimension, ParseLeafType(" Dimension "))
	assert.Equal(t, TypeColor, ParseLeafType("color"))
	assert.Equal(t, TypeOther, ParseLeafType("gradient"))
}

func TestLoadSet(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		return p
	}

	paths := Paths{
		Tokens: write("tokens.json", `{"tokens": {}}`),
		Theme:  write("brand.json", `{"brand": {}}`),
		Spec:   write("uikit.json", `{"ui-kit": {}}`),
	}

	cache := util.NewFileCache(nil)
	defer cache.Close()

	set, err := LoadSet(cache, paths)
	require.NoError(t, err)
	assert.NotNil(t, set.Tokens.Child("tokens"))
	assert.NotNil(t, set.Theme.Child("brand"))
	assert.NotNil(t, set.Spec.Child("ui-kit"))
	assert.Len(t, set.Digest, 64)
}

func TestLoadSet_MissingPaths(t *testing.T) {
	cache := util.NewFileCache(nil)
	defer cache.Close()

	_, err := LoadSet(cache, Paths{Tokens: "a.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme document path is required")
	assert.Contains(t, err.Error(), "spec document path is required")

	_, err = LoadSet(cache, Paths{Tokens: "missing-a.json", Theme: "missing-b.json", Spec: "missing-c.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-c.json")
}
