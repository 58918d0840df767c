// Package audit inspects a resolved binding map for references that did not
// settle. The resolver never fails on them; this is where they get reported.
package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
	"github.com/borderux/recursica-forge-sub006/pkg/resolver"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule names.
const (
	RuleDangling      = "dangling-reference"
	RuleUnknownTarget = "unknown-target"
)

// Finding is a single problem with one binding.
type Finding struct {
	Name       string   `json:"name"`
	Value      string   `json:"value"`
	Rule       string   `json:"rule"`
	Dialect    string   `json:"dialect,omitempty"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Report is the result of auditing one binding map.
type Report struct {
	Checked  int       `json:"checked"`
	Valid    bool      `json:"valid"`
	Findings []Finding `json:"findings"`
}

// Errors returns the number of error-severity findings.
func (r Report) Errors() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Run audits a resolver result. Verbatim bindings are not checked for
// dangling references. namespace defaults to resolver.DefaultNamespace.
func Run(res resolver.Result, namespace string) Report {
	findings := append(Dangling(res.Bindings, res.Verbatim), Unknown(res.Bindings, namespace)...)
	sort.SliceStable(findings, func(i, j int) bool { return findings[i].Name < findings[j].Name })

	r := Report{Checked: len(res.Bindings), Findings: findings}
	r.Valid = r.Errors() == 0
	return r
}

// Dangling reports entries still holding raw reference text, sorted by name.
// Names in skip are ignored.
func Dangling(m bindings.Map, skip []string) []Finding {
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}

	var findings []Finding
	for _, name := range m.Unresolved() {
		if skipped[name] {
			continue
		}
		value := m[name]
		path, _ := resolver.Unwrap(value)
		dialect := resolver.Dialect(path)
		msg, suggestion := explain(path, dialect)
		findings = append(findings, Finding{
			Name:       name,
			Value:      value,
			Rule:       RuleDangling,
			Dialect:    dialect,
			Message:    msg,
			Severity:   SeverityError,
			Suggestion: suggestion,
		})
	}
	return findings
}

func explain(path, dialect string) (message, suggestion string) {
	switch {
	case dialect == "":
		return fmt.Sprintf("reference %q matches no known dialect", path),
			"use a brand., theme., tokens., or ui-kit. path"
	case dialect == "self":
		return fmt.Sprintf("no binding is produced for %q", path),
			"check the component-specification path the reference points at"
	case dialect == "brand-typography-style":
		return fmt.Sprintf("typography style %q is a bundle of properties", path),
			"reference a single property, e.g. " + path + ".font-size"
	case dialect == "theme":
		return fmt.Sprintf("brand/theme reference %q matches no theme dialect", path), ""
	case strings.HasPrefix(dialect, "theme-modeless"):
		return fmt.Sprintf("brand/theme reference %q names no display mode", path),
			"insert the mode, e.g. brand.themes.light." + afterThemeRoot(path)
	case dialect == "self-modeless":
		return fmt.Sprintf("self reference %q names no mode index", path),
			"insert the mode index, e.g. ui-kit.0." + strings.TrimPrefix(path, "ui-kit.")
	case dialect == "top-level-tokens":
		return fmt.Sprintf("token reference %q is outside the brand/theme branch", path),
			"use brand.themes.light." + path + " or enable lenient resolution"
	case strings.HasSuffix(dialect, "tokens"):
		return fmt.Sprintf("token %q does not exist", path), ""
	default:
		return fmt.Sprintf("reference %q could not be resolved", path), ""
	}
}

// afterThemeRoot strips the brand./theme. root and an optional themes. group.
func afterThemeRoot(path string) string {
	_, rest, _ := strings.Cut(path, ".")
	return strings.TrimPrefix(rest, "themes.")
}

// Unknown reports references to component-namespace bindings that are not
// in m. Theme and token bindings are produced elsewhere and are not checked.
func Unknown(m bindings.Map, namespace string) []Finding {
	if namespace == "" {
		namespace = resolver.DefaultNamespace
	}
	external := []string{namespace + "-brand-", namespace + "-tokens-"}

	var findings []Finding
	for _, name := range m.Names() {
		target, ok := bindings.RefTarget(m[name])
		if !ok || !strings.HasPrefix(target, namespace+"-") {
			continue
		}
		if _, exists := m[target]; exists || hasAnyPrefix(target, external) {
			continue
		}
		findings = append(findings, Finding{
			Name:     name,
			Value:    m[name],
			Rule:     RuleUnknownTarget,
			Message:  fmt.Sprintf("references %s, which is not in the map", target),
			Severity: SeverityWarning,
		})
	}
	return findings
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
