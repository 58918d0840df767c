package resolver

import (
	"regexp"
	"strings"

	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
)

var (
	spaceAroundDot = regexp.MustCompile(`\s*\.\s*`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	dotRun         = regexp.MustCompile(`\.{2,}`)
)

// Normalize turns raw brace content into a canonical dot path. It is
// idempotent.
func Normalize(raw string) string {
	p := spaceAroundDot.ReplaceAllString(raw, ".")
	p = whitespaceRun.ReplaceAllString(p, ".")
	p = dotRun.ReplaceAllString(p, ".")
	return strings.Trim(p, ".")
}

// Unwrap strips the braces of reference text and normalizes the path inside.
func Unwrap(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if !bindings.IsRaw(v) {
		return "", false
	}
	return Normalize(v[1 : len(v)-1]), true
}
