package resolver

// settle re-resolves deferred entries against the current map until a pass
// makes no progress or MaxPasses is reached. It returns the number of passes
// run. Entries that never resolve keep their raw text.
func (w *walker) settle() int {
	passes := 0
	for passes < MaxPasses && len(w.deferred) > 0 {
		passes++
		progress := false
		for _, name := range sortedKeys(w.deferred) {
			ref, ok := w.fmt.reference(name, w.out[name], w.out)
			if !ok {
				continue
			}
			w.out[name] = ref
			delete(w.deferred, name)
			progress = true
		}
		if !progress {
			break
		}
	}
	return passes
}

// pending lists the deferred names in sorted order.
func (w *walker) pending() []string {
	return sortedKeys(w.deferred)
}
