package goap

import (
	bt "github.com/joeycumines/go-behaviortree"
)

// AtomAction is one executable step of an action's runtime behavior.
//
// Start is called exactly once, on the first tick the atom-action is reached,
// and may already return a terminal status. While the status is Running,
// Update is called once per subsequent tick. Any status other than Running or
// Success is treated as Failure.
type AtomAction interface {
	Start(agent *Agent) Status
	Update(agent *Agent) Status
}

// ActionComposer supplies the runtime behavior of one action. Both methods
// are called for each execution, so they must return fresh atom-actions.
type ActionComposer interface {
	// Compose returns the atom-actions run, in order, to perform the action.
	Compose(agent *Agent) []AtomAction
	// ComposeOnFail returns the atom-actions run when a plan containing the
	// action fails after the action was attempted.
	ComposeOnFail(agent *Agent) []AtomAction
}

// Composer is a function-backed ActionComposer. Nil fields compose nothing.
type Composer struct {
	Atoms  func(agent *Agent) []AtomAction
	OnFail func(agent *Agent) []AtomAction
}

func (c Composer) Compose(agent *Agent) []AtomAction {
	if c.Atoms == nil {
		return nil
	}
	return c.Atoms(agent)
}

func (c Composer) ComposeOnFail(agent *Agent) []AtomAction {
	if c.OnFail == nil {
		return nil
	}
	return c.OnFail(agent)
}

// AtomFunc is a function-backed AtomAction. A nil OnStart returns Running, so
// the work happens in OnUpdate; a nil OnUpdate returns Success.
type AtomFunc struct {
	OnStart  func(agent *Agent) Status
	OnUpdate func(agent *Agent) Status
}

func (a AtomFunc) Start(agent *Agent) Status {
	if a.OnStart == nil {
		return Running
	}
	return a.OnStart(agent)
}

func (a AtomFunc) Update(agent *Agent) Status {
	if a.OnUpdate == nil {
		return Success
	}
	return a.OnUpdate(agent)
}

// Do returns an atom-action that runs fn when started and succeeds at once.
func Do(fn func(agent *Agent)) AtomAction {
	return AtomFunc{OnStart: func(agent *Agent) Status {
		fn(agent)
		return Success
	}}
}

// Wait returns an atom-action that reports Running for its first ticks steps,
// Start included, and then reports done(agent). A nil done means Success.
func Wait(ticks int, done func(agent *Agent) Status) AtomAction {
	return &waitAtom{remaining: ticks, done: done}
}

type waitAtom struct {
	remaining int
	done      func(agent *Agent) Status
}

func (a *waitAtom) Start(agent *Agent) Status {
	return a.step(agent)
}

func (a *waitAtom) Update(agent *Agent) Status {
	return a.step(agent)
}

func (a *waitAtom) step(agent *Agent) Status {
	if a.remaining > 0 {
		a.remaining--
		return Running
	}
	if a.done == nil {
		return Success
	}
	return a.done(agent)
}

// NodeAtom adapts a behavior tree to an AtomAction: both Start and Update
// tick the tree once. A tick error is reported as Failure.
func NodeAtom(node bt.Node) AtomAction {
	if node == nil {
		panic("goap.NodeAtom: node must not be nil")
	}
	return nodeAtom{node: node}
}

type nodeAtom struct {
	node bt.Node
}

func (a nodeAtom) Start(*Agent) Status { return a.tick() }

func (a nodeAtom) Update(*Agent) Status { return a.tick() }

func (a nodeAtom) tick() Status {
	status, err := a.node.Tick()
	if err != nil {
		return Failure
	}
	return status
}
