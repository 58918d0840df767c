package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/borderux/recursica-forge-sub006/pkg/audit"
	"github.com/borderux/recursica-forge-sub006/pkg/catalog"
	"github.com/borderux/recursica-forge-sub006/pkg/host"
	"github.com/borderux/recursica-forge-sub006/pkg/resolver"
)

const maxWidth = 100

// printBindingsTable renders the binding map with dynamic column widths,
// followed by a one-line summary.
func printBindingsTable(w io.Writer, res resolver.Result) {
	rows := make([][2]string, 0, len(res.Bindings))
	for _, name := range res.Bindings.Names() {
		rows = append(rows, [2]string{name, res.Bindings[name]})
	}
	printTable(w, "NAME", "VALUE", rows)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d bindings, mode %s, %d unresolved, %d verbatim, %d settle passes\n",
		len(res.Bindings), res.Mode, len(res.Unresolved), len(res.Verbatim), res.Passes)
}

// printTable prints two columns; the second is truncated at maxWidth.
func printTable(w io.Writer, left, right string, rows [][2]string) {
	nameW := len(left)
	for _, r := range rows {
		if len(r[0]) > nameW {
			nameW = len(r[0])
		}
	}

	fmt.Fprintf(w, "%-*s  %s\n", nameW, left, right)
	fmt.Fprintln(w, strings.Repeat("─", min(nameW+2+len(right)+20, maxWidth)))
	for _, r := range rows {
		fmt.Fprintf(w, "%-*s  %s\n", nameW, r[0], truncate(r[1], max(maxWidth-nameW-2, 20)))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// printDiff prints one line per changed binding.
func printDiff(w io.Writer, u host.Update) {
	for _, name := range u.Diff.Added {
		fmt.Fprintf(w, "+ %s: %s\n", name, u.Result.Bindings[name])
	}
	for _, name := range u.Diff.Changed {
		fmt.Fprintf(w, "~ %s: %s -> %s\n", name, u.Previous[name], u.Result.Bindings[name])
	}
	for _, name := range u.Diff.Removed {
		fmt.Fprintf(w, "- %s\n", name)
	}
}

// printAudit prints findings grouped by severity-tagged lines.
func printAudit(w io.Writer, r audit.Report) {
	for _, f := range r.Findings {
		sev := fmt.Sprintf("[%s]", f.Severity)
		fmt.Fprintf(w, "%-9s %s\n", sev, f.Name)
		fmt.Fprintf(w, "          %s\n", f.Message)
		if f.Suggestion != "" {
			printWrapped(w, "hint: "+f.Suggestion, 10, maxWidth)
		}
	}
	if len(r.Findings) > 0 {
		fmt.Fprintln(w)
	}

	warnings := len(r.Findings) - r.Errors()
	fmt.Fprintf(w, "%d bindings checked, %d errors, %d warnings\n", r.Checked, r.Errors(), warnings)
}

// printBinding prints one binding with its reference chain and referrers.
func printBinding(w io.Writer, b *catalog.Binding, chain catalog.Chain, referrers []string) {
	header := b.Name
	if b.Component != "" {
		header += fmt.Sprintf("  (component %s)", b.Component)
	}
	fmt.Fprintf(w, "%s  [%s]\n", header, b.Kind)
	fmt.Fprintf(w, "  value  %s\n", b.Value)

	fmt.Fprintln(w)
	if len(chain.Steps) == 0 {
		fmt.Fprintln(w, "References  (none)")
	} else {
		fmt.Fprintln(w, "References")
		for i, step := range chain.Steps {
			fmt.Fprintf(w, "  %s→ %s\n", strings.Repeat("  ", i), step)
		}
		switch {
		case chain.Cycle:
			fmt.Fprintln(w, "  (cycle)")
		case chain.Missing:
			fmt.Fprintln(w, "  (ends outside the map)")
		default:
			fmt.Fprintf(w, "  = %s\n", chain.Value)
		}
	}

	fmt.Fprintln(w)
	if len(referrers) == 0 {
		fmt.Fprintln(w, "Referenced by  (none)")
		return
	}
	fmt.Fprintln(w, "Referenced by")
	for _, r := range referrers {
		fmt.Fprintf(w, "  %s\n", r)
	}
}

// printWrapped prints text word-wrapped at width with the given left indent.
func printWrapped(w io.Writer, text string, indent, width int) {
	words := strings.Fields(text)
	prefix := strings.Repeat(" ", indent)
	line := prefix
	for _, word := range words {
		if len(line)+len(word)+1 > width && line != prefix {
			fmt.Fprintln(w, line)
			line = prefix + word
		} else if line == prefix {
			line += word
		} else {
			line += " " + word
		}
	}
	if line != prefix {
		fmt.Fprintln(w, line)
	}
}
