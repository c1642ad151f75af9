package fsm

// Registry maps every state identifier to its TimedState and behavior.
// The set of identifiers is fixed when the registry is created.
type Registry[S StateID, C any] struct {
	order     []S
	states    map[S]*TimedState[S]
	behaviors map[S]Behavior[C]
}

// NewRegistry creates a registry for the closed set of ids.
// Duplicate ids are ignored.
func NewRegistry[S StateID, C any](ids ...S) *Registry[S, C] {
	r := &Registry[S, C]{
		order:     make([]S, 0, len(ids)),
		states:    make(map[S]*TimedState[S], len(ids)),
		behaviors: make(map[S]Behavior[C], len(ids)),
	}
	for _, id := range ids {
		if _, ok := r.states[id]; ok {
			continue
		}
		r.order = append(r.order, id)
		r.states[id] = &TimedState[S]{ID: id}
	}
	return r
}

// RegisterStateBehavior binds fn to id. Each id accepts exactly one behavior.
func (r *Registry[S, C]) RegisterStateBehavior(id S, fn Behavior[C]) error {
	if _, ok := r.states[id]; !ok {
		return configErrorf("behavior for unknown state %s", id)
	}
	if fn == nil {
		return configErrorf("nil behavior for state %s", id)
	}
	if _, ok := r.behaviors[id]; ok {
		return configErrorf("duplicate behavior for state %s", id)
	}
	r.behaviors[id] = fn
	return nil
}

// State returns the TimedState for id, or nil if id is not registered.
func (r *Registry[S, C]) State(id S) *TimedState[S] {
	return r.states[id]
}

// Has reports whether id belongs to the registry.
func (r *Registry[S, C]) Has(id S) bool {
	_, ok := r.states[id]
	return ok
}

// States returns the registered ids in declaration order.
func (r *Registry[S, C]) States() []S {
	out := make([]S, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry[S, C]) behavior(id S) Behavior[C] {
	return r.behaviors[id]
}

func (r *Registry[S, C]) validate() []error {
	var errs []error
	for _, id := range r.order {
		if _, ok := r.behaviors[id]; !ok {
			errs = append(errs, configErrorf("state %s has no behavior", id))
		}
	}
	return errs
}
