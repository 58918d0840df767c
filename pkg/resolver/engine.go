package resolver

import (
	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
	"github.com/borderux/recursica-forge-sub006/pkg/document"
)

// Result is the outcome of one resolution run.
type Result struct {
	// Bindings is newly allocated per run and owned by the caller.
	Bindings bindings.Map `json:"bindings"`

	// Unresolved lists, sorted, the bindings still holding raw reference text
	// after the settle loop. Verbatim bindings are not included.
	Unresolved []string `json:"unresolved,omitempty"`

	// Verbatim lists, sorted, the bindings stored as written (typography).
	Verbatim []string `json:"verbatim,omitempty"`

	// Components lists, sorted, the component names found under the
	// specification's "components" group.
	Components []string `json:"components,omitempty"`

	// Leaves is the number of leaves visited; Passes the settle passes run.
	Leaves int `json:"leaves"`
	Passes int `json:"passes"`

	// Mode is the display mode the run resolved under.
	Mode string `json:"mode"`
}

// Resolve converts a document set into a binding map. It never fails:
// references that cannot be resolved keep their raw text and are listed in
// Result.Unresolved.
func Resolve(docs document.Set, opts Options) Result {
	opts = opts.withDefaults(docs.Theme)

	mapper := NewMapper(opts.Namespace, opts.WrapperKey)
	f := &formatter{
		mapper:   mapper,
		resolver: NewResolver(mapper, NewTokenIndex(docs.Tokens), opts.Mode, opts.Lenient),
		mode:     opts.Mode,
	}

	w := newWalker(f)
	root, prefix := specRoot(docs.Spec, mapper.WrapperKey, opts.Mode)
	w.walk(root, prefix)
	deferredAfterWalk := len(w.deferred)
	passes := w.settle()

	res := Result{
		Bindings:   w.out,
		Unresolved: w.pending(),
		Verbatim:   sortedKeys(w.verbatim),
		Components: sortedKeys(w.components),
		Leaves:     w.leaves,
		Passes:     passes,
		Mode:       opts.Mode,
	}

	opts.Logger.Debug("Resolved bindings",
		"mode", res.Mode,
		"bindings", len(res.Bindings),
		"leaves", res.Leaves,
		"deferred", deferredAfterWalk,
		"unresolved", len(res.Unresolved),
		"passes", res.Passes)

	return res
}

// Recompute resolves docs and reports how the result differs from prev. prev
// may be nil for the first run.
func Recompute(prev bindings.Map, docs document.Set, opts Options) (Result, bindings.Diff) {
	res := Resolve(docs, opts)
	return res, bindings.Compare(prev, res.Bindings)
}
