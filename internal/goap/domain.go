package goap

import (
	"cmp"
	"fmt"
	"slices"
	"sync/atomic"
)

// MaxPreconditions bounds the preconditions of one action, and therefore the
// target conditions of one search node.
const MaxPreconditions = 8

// ActionID identifies an action within a Domain.
type ActionID string

// Action is an operation with exactly one effect condition and up to
// MaxPreconditions preconditions. Actions are copied on registration and are
// immutable afterwards.
type Action struct {
	ID            ActionID
	Cost          int
	Effect        Condition
	Preconditions []Condition
}

type domainAction struct {
	Action
	composer ActionComposer
	// order is the registration index, used as the Sort tie-break.
	order int
}

// Domain is the catalogue of actions and resolvers for one planning context.
// Build it with NewDomain, AddAction and AddResolver, then Sort it (or Seal
// it) before planning. A sealed Domain is read-only and may be shared by any
// number of agents and goroutines.
type Domain struct {
	id         string
	actions    []*domainAction
	byID       map[ActionID]int
	candidates map[ConditionID][]int
	resolvers  map[ConditionID]ResolverFactory
	sealed     atomic.Bool
	sorted     bool
}

// NewDomain returns an empty, unsealed Domain.
func NewDomain(id string) *Domain {
	return &Domain{
		id:         id,
		byID:       make(map[ActionID]int),
		candidates: make(map[ConditionID][]int),
		resolvers:  make(map[ConditionID]ResolverFactory),
	}
}

// ID returns the domain id agents refer to.
func (d *Domain) ID() string { return d.id }

// AddAction registers action as a candidate for its effect condition, with
// composer supplying its runtime behavior (nil means the action has no
// atom-actions and completes as soon as it is reached).
//
// The action is rejected with an *AuthoringError if it is malformed, if its
// id is already taken, if the domain is sealed, or if its preconditions
// transitively reach its own effect condition through the actions already
// registered. A rejected action leaves the domain unchanged.
func (d *Domain) AddAction(action Action, composer ActionComposer) error {
	fail := func(err error) error {
		return &AuthoringError{Domain: d.id, Action: action.ID, Err: err}
	}
	switch {
	case d.sealed.Load():
		return fail(ErrDomainSealed)
	case action.ID == "":
		return fail(fmt.Errorf("%w: empty action id", ErrInvalidAction))
	case action.Effect.ID == "":
		return fail(fmt.Errorf("%w: empty effect condition", ErrInvalidAction))
	case action.Cost < 0:
		return fail(fmt.Errorf("%w: negative cost %d", ErrInvalidAction, action.Cost))
	case len(action.Preconditions) > MaxPreconditions:
		return fail(ErrTooManyPreconditions)
	}
	if _, ok := d.byID[action.ID]; ok {
		return fail(ErrDuplicateAction)
	}
	if cycle := d.findCycle(&action); cycle != nil {
		return &AuthoringError{Domain: d.id, Action: action.ID, Cycle: cycle, Err: ErrCyclicDomain}
	}

	action.Preconditions = slices.Clone(action.Preconditions)
	if composer == nil {
		composer = Composer{}
	}
	index := len(d.actions)
	d.actions = append(d.actions, &domainAction{Action: action, composer: composer, order: index})
	d.byID[action.ID] = index
	d.candidates[action.Effect.ID] = append(d.candidates[action.Effect.ID], index)
	return nil
}

// MustAddAction is like AddAction but panics on error. It suits domains built
// from static declarations, where a rejected action is an authoring bug.
func (d *Domain) MustAddAction(action Action, composer ActionComposer) {
	if err := d.AddAction(action, composer); err != nil {
		panic(err)
	}
}

// findCycle walks from the preconditions of a through the candidate chains
// already registered, returning the condition path back to a's effect if one
// exists.
func (d *Domain) findCycle(a *Action) []ConditionID {
	target := a.Effect.ID
	visited := make(map[ConditionID]bool)
	var path []ConditionID
	var visit func(id ConditionID) bool
	visit = func(id ConditionID) bool {
		path = append(path, id)
		if id == target {
			return true
		}
		if !visited[id] {
			visited[id] = true
			for _, index := range d.candidates[id] {
				for _, pre := range d.actions[index].Preconditions {
					if visit(pre.ID) {
						return true
					}
				}
			}
		}
		path = path[:len(path)-1]
		return false
	}
	for _, pre := range a.Preconditions {
		if visit(pre.ID) {
			return append([]ConditionID{target}, path...)
		}
	}
	return nil
}

// AddResolver registers the resolver factory for a condition. A condition has
// at most one resolver; the search consults it before searching actions.
func (d *Domain) AddResolver(id ConditionID, factory ResolverFactory) error {
	fail := func(err error) error {
		return &AuthoringError{Domain: d.id, Condition: id, Err: err}
	}
	switch {
	case d.sealed.Load():
		return fail(ErrDomainSealed)
	case id == "":
		return fail(fmt.Errorf("%w: empty condition id", ErrInvalidResolver))
	case factory == nil:
		return fail(fmt.Errorf("%w: nil factory", ErrInvalidResolver))
	}
	if _, ok := d.resolvers[id]; ok {
		return fail(ErrDuplicateResolver)
	}
	d.resolvers[id] = factory
	return nil
}

// MustAddResolver is like AddResolver but panics on error.
func (d *Domain) MustAddResolver(id ConditionID, factory ResolverFactory) {
	if err := d.AddResolver(id, factory); err != nil {
		panic(err)
	}
}

// Sort orders every candidate list by ascending cost, ties broken by
// registration order, and seals the domain. Without Sort, candidates are
// tried in registration order.
func (d *Domain) Sort() error {
	if d.sealed.Load() {
		return &AuthoringError{Domain: d.id, Err: ErrDomainSealed}
	}
	for id, list := range d.candidates {
		slices.SortStableFunc(list, func(i, j int) int {
			a, b := d.actions[i], d.actions[j]
			return cmp.Or(cmp.Compare(a.Cost, b.Cost), cmp.Compare(a.order, b.order))
		})
		d.candidates[id] = list
	}
	d.sorted = true
	d.sealed.Store(true)
	return nil
}

// Seal freezes the domain without reordering candidates. It is idempotent,
// and is applied automatically when the domain is registered with a Planner.
func (d *Domain) Seal() { d.sealed.Store(true) }

// Sealed reports whether the domain is read-only.
func (d *Domain) Sealed() bool { return d.sealed.Load() }

// Sorted reports whether Sort has been applied.
func (d *Domain) Sorted() bool { return d.sorted }

// Len returns the number of registered actions.
func (d *Domain) Len() int { return len(d.actions) }

// Action returns the action registered under id.
func (d *Domain) Action(id ActionID) (Action, bool) {
	index, ok := d.byID[id]
	if !ok {
		return Action{}, false
	}
	return d.actions[index].copyAction(), true
}

// Actions returns every action in registration order.
func (d *Domain) Actions() []Action {
	out := make([]Action, len(d.actions))
	for i, a := range d.actions {
		out[i] = a.copyAction()
	}
	return out
}

// Candidates returns the actions whose effect satisfies cond, in the order the
// search tries them.
func (d *Domain) Candidates(cond Condition) []Action {
	indices := d.candidateIndices(cond)
	out := make([]Action, len(indices))
	for i, index := range indices {
		out[i] = d.actions[index].copyAction()
	}
	return out
}

// Conditions returns the ids of all conditions with at least one candidate
// action or a resolver, sorted.
func (d *Domain) Conditions() []ConditionID {
	seen := make(map[ConditionID]struct{}, len(d.candidates)+len(d.resolvers))
	for id := range d.candidates {
		seen[id] = struct{}{}
	}
	for id := range d.resolvers {
		seen[id] = struct{}{}
	}
	out := make([]ConditionID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// HasResolver reports whether a resolver is registered for id.
func (d *Domain) HasResolver(id ConditionID) bool {
	_, ok := d.resolvers[id]
	return ok
}

func (d *Domain) resolver(id ConditionID) (ResolverFactory, bool) {
	factory, ok := d.resolvers[id]
	return factory, ok
}

// candidateIndices filters the candidate list for cond.ID down to actions
// whose effect value matches, preserving priority order.
func (d *Domain) candidateIndices(cond Condition) []int {
	list := d.candidates[cond.ID]
	out := make([]int, 0, len(list))
	for _, index := range list {
		if d.actions[index].Effect.Value == cond.Value {
			out = append(out, index)
		}
	}
	return out
}

func (a *domainAction) copyAction() Action {
	out := a.Action
	out.Preconditions = slices.Clone(a.Preconditions)
	return out
}
