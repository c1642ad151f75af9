package fsm

import "slices"

// Target is the destination of a transition: a state, or a pop of the current frame.
type Target[S StateID] struct {
	ID  S
	pop bool
}

// To targets state id.
func To[S StateID](id S) Target[S] {
	return Target[S]{ID: id}
}

// Pop targets the frame beneath the current one.
func Pop[S StateID]() Target[S] {
	return Target[S]{pop: true}
}

func (t Target[S]) String() string {
	if t.pop {
		return "pop"
	}
	return t.ID.String()
}

// TransitionRule is a single entry of a state's ordered rule list.
type TransitionRule[S StateID, C any] struct {
	From      S
	To        Target[S]
	Interrupt bool
	Predicate Predicate[C]
	Action    Action[C]
}

// TransitionTable holds ordered rules per state.
// Registration errors are collected and reported by NewMachine.
type TransitionTable[S StateID, C any] struct {
	registry *Registry[S, C]
	rules    map[S][]TransitionRule[S, C]
	errs     []error
}

// NewTransitionTable creates an empty table over the states of registry.
func NewTransitionTable[S StateID, C any](registry *Registry[S, C]) *TransitionTable[S, C] {
	return &TransitionTable[S, C]{
		registry: registry,
		rules:    make(map[S][]TransitionRule[S, C], len(registry.order)),
	}
}

// RegisterTransition appends a rule to from's list. Rules fire in registration order.
func (t *TransitionTable[S, C]) RegisterTransition(from S, to Target[S], interrupt bool, predicate Predicate[C], action Action[C]) {
	switch {
	case !t.registry.Has(from):
		t.errs = append(t.errs, configErrorf("transition from unknown state %s", from))
		return
	case !to.pop && !t.registry.Has(to.ID):
		t.errs = append(t.errs, configErrorf("transition %s -> unknown state %s", from, to.ID))
		return
	case to.pop && interrupt:
		t.errs = append(t.errs, configErrorf("transition %s: interrupt cannot pop", from))
		return
	case predicate == nil:
		t.errs = append(t.errs, configErrorf("transition %s -> %s: nil predicate", from, to))
		return
	}

	t.rules[from] = append(t.rules[from], TransitionRule[S, C]{
		From:      from,
		To:        to,
		Interrupt: interrupt,
		Predicate: predicate,
		Action:    action,
	})
}

// ApplyToAllStatesExcept registers the same rule for every state not in exclusions.
// The rule lands at the current end of each state's list, so rules registered
// through it before any per-state rule take precedence over them.
func (t *TransitionTable[S, C]) ApplyToAllStatesExcept(to Target[S], interrupt bool, predicate Predicate[C], action Action[C], exclusions ...S) {
	for _, id := range t.registry.order {
		if slices.Contains(exclusions, id) {
			continue
		}
		t.RegisterTransition(id, to, interrupt, predicate, action)
	}
}
