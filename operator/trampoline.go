package operator

import "sync"

// trampoline prevents an operator from recursively re-entering a downstream
// call from within its own downstream call. A depth-1 queue guarded by an
// "emitting" flag collects nested emissions and drains them iteratively
// after the outermost frame unwinds, instead of letting the call stack grow.
type trampoline struct {
	mu       sync.Mutex
	emitting bool
	pending  []func()
}

// run executes f immediately if no emission is currently in flight for this
// trampoline, otherwise appends it to the pending queue to be drained by the
// outermost call.
func (t *trampoline) run(f func()) {
	t.mu.Lock()
	if t.emitting {
		t.pending = append(t.pending, f)
		t.mu.Unlock()
		return
	}
	t.emitting = true
	t.mu.Unlock()

	task := f
	for task != nil {
		task()
		t.mu.Lock()
		if len(t.pending) == 0 {
			t.emitting = false
			t.mu.Unlock()
			return
		}
		task = t.pending[0]
		t.pending = t.pending[1:]
		t.mu.Unlock()
	}
}
