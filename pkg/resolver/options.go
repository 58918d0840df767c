// Package resolver turns the token, theme, and component-specification
// documents into a flat binding map.
//
// The engine is a pure function of its inputs: every call allocates its own
// state, reads the documents without modifying them, and finishes in bounded
// time (reference depth and settle passes are both capped).
//
// Usage:
//
//	set, _ := document.ParseSet(tokens, theme, spec)
//	res := resolver.Resolve(set, resolver.Options{Mode: "light"})
//	fmt.Println(res.Bindings["recursica-components-button-padding"])
package resolver

import (
	"log/slog"

	"github.com/borderux/recursica-forge-sub006/pkg/document"
	"github.com/borderux/recursica-forge-sub006/pkg/util"
)

const (
	// DefaultNamespace prefixes every binding name.
	DefaultNamespace = "recursica"

	// DefaultWrapperKey is the outer key of the component-specification document.
	DefaultWrapperKey = "ui-kit"

	// DefaultMode is used when neither the options nor the theme name a mode.
	DefaultMode = "light"

	// MaxDepth bounds nested reference resolution.
	MaxDepth = 10

	// MaxPasses bounds the settle loop.
	MaxPasses = 10
)

// specModeKeys maps display modes to the keys of a mode-indexed
// component-specification root.
var specModeKeys = []struct {
	mode string
	key  string
}{
	{mode: "light", key: "0"},
	{mode: "dark", key: "3"},
}

// Options tunes a resolution run. The zero value is valid.
type Options struct {
	// Namespace prefixes binding names. Defaults to DefaultNamespace.
	Namespace string

	// WrapperKey is dropped from leaf paths. Defaults to DefaultWrapperKey.
	WrapperKey string

	// Mode selects the display mode ("light", "dark"). Empty picks the first
	// mode the theme document declares, then DefaultMode.
	Mode string

	// Lenient also resolves shorthand references: brand/theme paths without a
	// display mode, self references without a mode index (ui-kit.global.x),
	// and token references outside the brand/theme branch (tokens.x). Off by
	// default, which leaves those shapes raw for the audit to report.
	Lenient bool

	// Logger receives debug summaries. Output never depends on it.
	Logger *slog.Logger
}

func (o Options) withDefaults(theme *document.Node) Options {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.WrapperKey == "" {
		o.WrapperKey = DefaultWrapperKey
	}
	if o.Mode == "" {
		if modes := Modes(theme); len(modes) > 0 {
			o.Mode = modes[0]
		} else {
			o.Mode = DefaultMode
		}
	}
	if o.Logger == nil {
		o.Logger = util.Discard()
	}
	return o
}

// Modes lists the display modes a theme document declares, in document order.
// It understands brand.themes.<mode>, themes.<mode>, and top-level light/dark.
func Modes(theme *document.Node) []string {
	for _, path := range [][]string{{"brand", "themes"}, {"themes"}} {
		if n := theme.Lookup(path...); n != nil && n.Kind == document.KindGroup {
			modes := make([]string, 0, len(n.Keys))
			for _, k := range n.Keys {
				if n.Children[k].Kind == document.KindGroup {
					modes = append(modes, k)
				}
			}
			if len(modes) > 0 {
				return modes
			}
		}
	}

	var modes []string
	if theme != nil && theme.Kind == document.KindGroup {
		for _, k := range theme.Keys {
			if k == "light" || k == "dark" {
				modes = append(modes, k)
			}
		}
	}
	return modes
}

// SpecModeKey returns the mode-indexed root key for mode ("light" → "0").
func SpecModeKey(mode string) (string, bool) {
	for _, mk := range specModeKeys {
		if mk.mode == mode {
			return mk.key, true
		}
	}
	return "", false
}

func isSpecModeKey(key string) bool {
	for _, mk := range specModeKeys {
		if mk.key == key {
			return true
		}
	}
	return false
}
