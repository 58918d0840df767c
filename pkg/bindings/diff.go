package bindings

import "sort"

// Diff lists the names that differ between two maps.
type Diff struct {
	Added   []string `json:"added,omitempty"`
	Changed []string `json:"changed,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Compare returns the names added, changed, and removed going from prev to next.
// A nil prev treats every name in next as added.
func Compare(prev, next Map) Diff {
	var d Diff
	for name, value := range next {
		old, ok := prev[name]
		switch {
		case !ok:
			d.Added = append(d.Added, name)
		case old != value:
			d.Changed = append(d.Changed, name)
		}
	}
	for name := range prev {
		if _, ok := next[name]; !ok {
			d.Removed = append(d.Removed, name)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Changed)
	sort.Strings(d.Removed)
	return d
}

// Empty reports whether the diff holds no changes.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// Names returns every affected name, sorted.
func (d Diff) Names() []string {
	out := make([]string, 0, len(d.Added)+len(d.Changed)+len(d.Removed))
	out = append(out, d.Added...)
	out = append(out, d.Changed...)
	out = append(out, d.Removed...)
	sort.Strings(out)
	return out
}
