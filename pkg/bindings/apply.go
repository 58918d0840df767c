package bindings

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// StyleContext is a live custom-property root that bindings are written onto.
type StyleContext interface {
	SetProperty(name, value string)
	RemoveProperty(name string)
}

// Apply writes every entry of next onto ctx, removes names that disappeared
// since prev, and returns the change set for notification.
func Apply(ctx StyleContext, prev, next Map) Diff {
	for _, name := range next.Names() {
		ctx.SetProperty("--"+name, next[name])
	}
	d := Compare(prev, next)
	for _, name := range d.Removed {
		ctx.RemoveProperty("--" + name)
	}
	return d
}

// Root is an in-memory StyleContext, safe for concurrent use.
type Root struct {
	mu    sync.RWMutex
	props map[string]string
}

// NewRoot creates an empty Root.
func NewRoot() *Root {
	return &Root{props: make(map[string]string)}
}

func (r *Root) SetProperty(name, value string) {
	r.mu.Lock()
	r.props[name] = value
	r.mu.Unlock()
}

func (r *Root) RemoveProperty(name string) {
	r.mu.Lock()
	delete(r.props, name)
	r.mu.Unlock()
}

// Property returns the current value of a custom property (with its "--").
func (r *Root) Property(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.props[name]
	return v, ok
}

// Len returns the number of properties set.
func (r *Root) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.props)
}

// RenderCSS writes m as a custom-property block under selector (":root" when empty).
func RenderCSS(w io.Writer, m Map, selector string) error {
	if selector == "" {
		selector = ":root"
	}
	if _, err := fmt.Fprintf(w, "%s {\n", selector); err != nil {
		return err
	}
	for _, name := range m.Names() {
		if _, err := fmt.Fprintf(w, "  --%s: %s;\n", name, m[name]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// RenderJSON writes m as an indented JSON object with sorted keys.
func RenderJSON(w io.Writer, m Map) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string]string(m))
}
