package resolver

import (
	"regexp"
	"strings"

	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
)

// rule describes one reference dialect. Rules are evaluated in table order and
// the first pattern that matches decides the outcome:
//   - sub set: the subject capture is matched against the sub rules; no sub
//     match means unresolved (no fall-through to later rules)
//   - custom set: the reference is built in code by the named builder
//   - template set: captures (after rewrite) expand into a binding name
//   - none set: the shape is recognized but deliberately left unresolved
type rule struct {
	name     string
	pattern  *regexp.Regexp
	template string
	rewrite  map[string]func(string) string
	sub      []rule
	subject  string
	custom   builder
}

// builder selects a rule whose reference is built in code rather than from a
// template.
type builder int

const (
	noBuilder builder = iota
	selfBuilder
	tokenBuilder
)

type captures map[string]string

var templateVar = regexp.MustCompile(`\$\{(\w+)\}`)

func (c captures) expand(template string) string {
	return templateVar.ReplaceAllStringFunc(template, func(v string) string {
		return c[v[2:len(v)-1]]
	})
}

func remap(from, to string) func(string) string {
	return func(s string) string {
		if s == from {
			return to
		}
		return s
	}
}

var (
	defaultToPrimary  = remap("default", "primary")
	interactiveColor  = remap("interactive", "interactive-color")
	elementRewrite    = map[string]func(string) string{"path": interactiveColor}
	paletteLevelRemap = map[string]func(string) string{"level": defaultToPrimary}
)

// dialects is the top-level rule table. Brand/theme references name their
// display mode and self references their mode index.
var dialects = []rule{
	{
		name:     "brand-dimension",
		pattern:  regexp.MustCompile(`^brand\.dimensions?\.(?P<path>.+)$`),
		template: "brand-dimensions-${path}",
	},
	{
		name:     "brand-typography",
		pattern:  regexp.MustCompile(`^brand\.typography\.(?P<style>[^.]+)\.(?P<prop>.+)$`),
		template: "brand-typography-${style}-${prop}",
	},
	{
		// A bare style is a bundle of properties; consumers must ask for one.
		name:    "brand-typography-style",
		pattern: regexp.MustCompile(`^brand\.typography(?:\.[^.]+)?$`),
	},
	{
		name:    "theme",
		pattern: regexp.MustCompile(`^(?:brand|theme)\.(?:themes\.)?(?P<mode>light|dark)\.(?P<rest>.+)$`),
		subject: "rest",
		sub:     themeDialects,
	},
	{
		name:    "self",
		pattern: regexp.MustCompile(`^ui-kit\.?(?P<mode>\d+)\.(?P<rest>.+)$`),
		custom:  selfBuilder,
	},
}

// lenientDialects extends dialects with shorthand shapes: brand/theme paths
// without a mode (resolved under the caller's mode), self references without a
// mode index, and token references outside the brand/theme branch.
var lenientDialects = append(dialects[:len(dialects):len(dialects)],
	rule{
		name:    "theme-modeless",
		pattern: regexp.MustCompile(`^(?:brand|theme)\.(?:themes\.)?(?P<rest>.+)$`),
		subject: "rest",
		sub:     themeDialects,
	},
	rule{
		name:    "self-modeless",
		pattern: regexp.MustCompile(`^ui-kit\.(?P<rest>.+)$`),
		custom:  selfBuilder,
	},
	rule{
		name:    "top-level-tokens",
		pattern: tokenRule.pattern,
		custom:  tokenBuilder,
	},
)

// themeDialects are matched against the part of a brand/theme path after the
// mode. ${mode} expands to the path's mode or the caller's mode.
var themeDialects = []rule{
	{
		name:     "layer-property",
		pattern:  regexp.MustCompile(`^layers?\.(?:layer-)?(?P<n>\d+)\.propert(?:y|ies)\.(?P<prop>.+)$`),
		template: "brand-themes-${mode}-layer-layer-${n}-property-${prop}",
	},
	{
		name:     "layer-element",
		pattern:  regexp.MustCompile(`^layers?\.(?:layer-)?(?P<n>\d+)\.elements?\.(?P<path>.+)$`),
		template: "brand-themes-${mode}-layer-layer-${n}-property-element-${path}",
		rewrite:  elementRewrite,
	},
	{
		name:     "alternate-layer-property",
		pattern:  regexp.MustCompile(`^layers?\.layer-alternative\.(?P<key>[^.]+)\.propert(?:y|ies)\.(?P<prop>.+)$`),
		template: "brand-themes-${mode}-layer-layer-alternative-${key}-property-${prop}",
	},
	{
		name:     "alternate-layer-element",
		pattern:  regexp.MustCompile(`^layers?\.layer-alternative\.(?P<key>[^.]+)\.elements?\.(?P<path>.+)$`),
		template: "brand-themes-${mode}-layer-layer-alternative-${key}-property-element-${path}",
		rewrite:  elementRewrite,
	},
	{
		// State names are kept as written.
		name:     "core-color-state",
		pattern:  regexp.MustCompile(`^palettes\.core-colors?\.(?P<color>[^.]+)\.(?P<state>[^.]+)\.(?P<tone>tone|on-tone)$`),
		template: "brand-themes-${mode}-palettes-core-${color}-${state}-${tone}",
	},
	{
		name:     "core-color",
		pattern:  regexp.MustCompile(`^palettes\.core-colors?\.(?P<color>alert|warning|success|interactive|black|white)(?:\.(?P<tone>tone|on-tone))?$`),
		template: "brand-themes-${mode}-palettes-core-${color}-${tone}",
	},
	{
		name:     "palette-level",
		pattern:  regexp.MustCompile(`^palettes\.(?P<key>[^.]+)\.(?P<level>[^.]+)\.color\.(?P<tone>tone|on-tone)$`),
		template: "brand-themes-${mode}-palettes-${key}-${level}-${tone}",
		rewrite:  paletteLevelRemap,
	},
	{
		name:     "palette-level-legacy",
		pattern:  regexp.MustCompile(`^palettes\.(?P<key>[^.]+)\.(?P<level>\d+|default|primary)\.(?P<tone>tone|on-tone)$`),
		template: "brand-themes-${mode}-palettes-${key}-${level}-${tone}",
		rewrite:  paletteLevelRemap,
	},
	{
		name:     "palette-default",
		pattern:  regexp.MustCompile(`^palettes\.(?P<key>[^.]+)\.(?P<level>default|primary)$`),
		template: "brand-themes-${mode}-palettes-${key}-${level}-tone",
		rewrite:  paletteLevelRemap,
	},
	{
		name:     "core-black-white",
		pattern:  regexp.MustCompile(`^palettes\.(?:core\.)?(?P<color>white|black)$`),
		template: "brand-themes-${mode}-palettes-core-${color}",
	},
	{
		name:     "core-color-legacy",
		pattern:  regexp.MustCompile(`^palettes\.(?P<color>alert|warning|success)$`),
		template: "brand-themes-${mode}-palettes-core-${color}",
	},
	{
		name:     "dimension",
		pattern:  regexp.MustCompile(`^dimensions?\.(?P<path>.+)$`),
		template: "brand-dimensions-${path}",
	},
	{
		name:     "elevation",
		pattern:  regexp.MustCompile(`^elevations?\.(?P<name>elevation-\d+)$`),
		template: "brand-themes-${mode}-elevations-${name}",
	},
	{
		name:     "state",
		pattern:  regexp.MustCompile(`^states?\.(?P<path>.+)$`),
		template: "brand-themes-${mode}-state-${path}",
	},
	{
		name:     "text-emphasis",
		pattern:  regexp.MustCompile(`^text-emphasis\.(?P<level>low|high)$`),
		template: "brand-themes-${mode}-text-emphasis-${level}",
	},
	tokenRule,
}

// tokenRule passes references to primitive tokens through from inside the
// brand/theme branch.
var tokenRule = rule{
	name:    "tokens",
	pattern: regexp.MustCompile(`^tokens?\.(?P<path>.+)$`),
	custom:  tokenBuilder,
}

// Resolver maps normalized reference paths onto binding references.
type Resolver struct {
	mapper Mapper
	tokens *TokenIndex
	mode   string
	table  []rule
}

// NewResolver builds a Resolver. A nil index resolves no token references.
// lenient enables the shorthand shapes of lenientDialects.
func NewResolver(mapper Mapper, tokens *TokenIndex, mode string, lenient bool) *Resolver {
	if tokens == nil {
		tokens = NewTokenIndex(nil)
	}
	if mode == "" {
		mode = DefaultMode
	}
	table := dialects
	if lenient {
		table = lenientDialects
	}
	return &Resolver{mapper: mapper, tokens: tokens, mode: mode, table: table}
}

// Resolve returns the reference a normalized path stands for. ok is false
// when no dialect produces a reference, including references into the
// component namespace whose target is not in soFar yet, and whenever depth
// exceeds MaxDepth.
func (r *Resolver) Resolve(path, mode string, soFar bindings.Map, depth int) (string, bool) {
	if depth > MaxDepth {
		return "", false
	}
	if mode == "" {
		mode = r.mode
	}
	return r.apply(r.table, path, captures{}, mode, soFar, depth)
}

// Dialect names the rule a path matches, or "" when none does. Shorthand
// shapes are named too ("theme-modeless", "self-modeless",
// "top-level-tokens") so diagnostics can explain them. Used to explain
// unresolved references.
func Dialect(path string) string {
	return dialectName(lenientDialects, path, "")
}

func dialectName(table []rule, subject, parent string) string {
	for _, rl := range table {
		m := rl.pattern.FindStringSubmatch(subject)
		if m == nil {
			continue
		}
		name := rl.name
		if parent != "" {
			name = parent + "/" + name
		}
		if rl.sub != nil {
			inner := m[rl.pattern.SubexpIndex(rl.subject)]
			if subName := dialectName(rl.sub, inner, name); subName != "" {
				return subName
			}
		}
		return name
	}
	return ""
}

func (r *Resolver) apply(table []rule, subject string, inherited captures, mode string, soFar bindings.Map, depth int) (string, bool) {
	for _, rl := range table {
		m := rl.pattern.FindStringSubmatch(subject)
		if m == nil {
			continue
		}

		c := make(captures, len(inherited)+len(m))
		for k, v := range inherited {
			c[k] = v
		}
		for i, name := range rl.pattern.SubexpNames() {
			if name == "" || m[i] == "" {
				continue
			}
			c[name] = m[i]
		}
		for name, fn := range rl.rewrite {
			c[name] = fn(c[name])
		}
		if c["mode"] == "" || !isDisplayMode(c["mode"]) {
			c["mode"] = mode
		}

		switch {
		case rl.sub != nil:
			return r.apply(rl.sub, c[rl.subject], c, c["mode"], soFar, depth)
		case rl.custom == selfBuilder:
			return r.selfReference(c, soFar)
		case rl.custom == tokenBuilder:
			return r.tokenReference(c["path"], depth)
		case rl.template != "":
			return bindings.Ref(r.mapper.Join(c.expand(rl.template))), true
		default:
			return "", false
		}
	}
	return "", false
}

func isDisplayMode(s string) bool {
	return s == "light" || s == "dark"
}

// selfReference points into the component namespace. The reference is only
// produced once the target binding exists; until then it stays deferred.
func (r *Resolver) selfReference(c captures, soFar bindings.Map) (string, bool) {
	name := r.mapper.PathName(c["rest"])
	if _, ok := soFar[name]; !ok {
		return "", false
	}
	return bindings.Ref(name), true
}

// tokenReference points at a token binding. Alias tokens ({tokens.x}) are
// followed so the reference lands on the token holding the primitive value;
// when an alias cannot be followed the alias token itself is referenced.
func (r *Resolver) tokenReference(path string, depth int) (string, bool) {
	if depth > MaxDepth {
		return "", false
	}
	canonical, value, ok := r.tokens.Lookup(path)
	if !ok {
		return "", false
	}
	if s, isString := value.(string); isString {
		if alias, isRef := Unwrap(s); isRef {
			if m := tokenRule.pattern.FindStringSubmatch(alias); m != nil {
				if ref, ok := r.tokenReference(m[1], depth+1); ok {
					return ref, true
				}
			}
		}
	}
	return bindings.Ref(r.mapper.Join(append([]string{"tokens"}, strings.Split(canonical, "/")...)...)), true
}
