package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds hooks keyed by Phase, sorted by descending priority, per
// spec §4.F. Grounded on the teacher's internal/hooks.Registry
// (priority-sorted slice, register/unregister-by-name, run-in-order
// dispatch with per-handler panic recovery), generalized from Nexus's
// string event keys to the typed Phase enum this spec requires.
type Registry struct {
	mu    sync.RWMutex
	byPhase map[Phase][]*Hook
	byName  map[string][]*Hook // a Hook name may be registered under several phases
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byPhase: make(map[Phase][]*Hook),
		byName:  make(map[string][]*Hook),
	}
}

// Register inserts h into its Phase's priority-sorted chain.
func (r *Registry) Register(h *Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byPhase[h.Phase] = append(r.byPhase[h.Phase], h)
	sort.SliceStable(r.byPhase[h.Phase], func(i, j int) bool {
		return r.byPhase[h.Phase][i].Priority > r.byPhase[h.Phase][j].Priority
	})
	r.byName[h.Name] = append(r.byName[h.Name], h)
}

// Unregister removes every Hook registered under name, across all phases
// it was adapted onto.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	hooks, ok := r.byName[name]
	if !ok {
		return false
	}
	delete(r.byName, name)
	for _, h := range hooks {
		list := r.byPhase[h.Phase]
		for i, candidate := range list {
			if candidate == h {
				r.byPhase[h.Phase] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	return true
}

// Run executes the chain registered for phase in descending-priority
// order. Each Hook's returned Result.Err is recorded but does not abort
// the chain unless ShouldContinue is also false. The final Data in effect
// (after any Modified replacements) and the accumulated errors are
// returned.
func (r *Registry) Run(ctx context.Context, data *Data) (*Data, []error) {
	r.mu.RLock()
	chain := append([]*Hook(nil), r.byPhase[data.Phase]...)
	r.mu.RUnlock()

	var errs []error
	current := data
	for _, h := range chain {
		res := r.invoke(ctx, h, current)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("hook %q (%s): %w", h.Name, h.Phase, res.Err))
		}
		if res.Modified != nil {
			current = res.Modified
		}
		if !res.ShouldContinue {
			break
		}
	}
	return current, errs
}

func (r *Registry) invoke(ctx context.Context, h *Hook, data *Data) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{ShouldContinue: true, Err: fmt.Errorf("hook panic: %v", p)}
		}
	}()
	return h.Run(ctx, data)
}

// Count returns the number of hooks registered for phase.
func (r *Registry) Count(phase Phase) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPhase[phase])
}

// Names returns every distinct registered Hook name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}
