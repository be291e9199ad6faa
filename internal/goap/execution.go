package goap

import (
	"slices"
	"sync/atomic"
)

// atomRun tracks one atom-action's lifecycle.
type atomRun struct {
	atom    AtomAction
	started bool
	status  Status
}

func (a *atomRun) tick(agent *Agent) Status {
	if !a.started {
		a.started = true
		a.status = normalize(a.atom.Start(agent))
	} else {
		a.status = normalize(a.atom.Update(agent))
	}
	return a.status
}

func (a *atomRun) cancel() {
	if !a.started || a.status != Running {
		return
	}
	if c, ok := a.atom.(Canceler); ok {
		c.Cancel()
	}
}

func normalize(s Status) Status {
	switch s {
	case Running, Success:
		return s
	default:
		return Failure
	}
}

// atomSetExecution runs a list of atom-actions in order, one step per tick.
// With keepGoing set, a failed atom-action does not stop the set; this is how
// on-fail chains are walked.
type atomSetExecution struct {
	atoms     []atomRun
	cursor    int
	keepGoing bool
	done      bool
	status    Status
}

func newAtomSet(atoms []AtomAction, keepGoing bool) *atomSetExecution {
	s := &atomSetExecution{
		atoms:     make([]atomRun, 0, len(atoms)),
		keepGoing: keepGoing,
		status:    Running,
	}
	for _, a := range atoms {
		if a != nil {
			s.atoms = append(s.atoms, atomRun{atom: a})
		}
	}
	return s
}

func (s *atomSetExecution) tick(agent *Agent) Status {
	if s.done {
		return s.status
	}
	if s.cursor >= len(s.atoms) {
		return s.finish(Success)
	}
	switch s.atoms[s.cursor].tick(agent) {
	case Running:
		return Running
	case Success:
		s.cursor++
	default:
		if !s.keepGoing {
			return s.finish(Failure)
		}
		s.cursor++
	}
	if s.cursor >= len(s.atoms) {
		return s.finish(Success)
	}
	return Running
}

func (s *atomSetExecution) finish(status Status) Status {
	s.done, s.status = true, status
	return status
}

func (s *atomSetExecution) cancel() {
	if s.done || s.cursor >= len(s.atoms) {
		return
	}
	s.atoms[s.cursor].cancel()
	s.done, s.status = true, Failure
}

// PlanExecution walks a successful plan one action at a time. Each action is
// composed into atom-actions when it is reached. If any atom-action fails,
// the on-fail atom-actions of every attempted action are run, most recently
// attempted first, before the execution finishes as Failure.
//
// Status and Done may be polled from any goroutine; the remaining accessors
// are only meaningful between ticks.
type PlanExecution struct {
	request *PlanRequest
	agent   *Agent
	domain  *Domain
	actions []ActionID

	cursor    int
	current   *atomSetExecution
	attempted []int
	onFail    *atomSetExecution
	failed    ActionID
	status    atomic.Int32
	canceled  bool
}

func newPlanExecution(req *PlanRequest) *PlanExecution {
	e := &PlanExecution{
		request: req,
		agent:   req.agent,
		domain:  req.domain,
		actions: req.Result(),
	}
	e.status.Store(int32(Running))
	return e
}

// Request returns the plan request whose result is being executed.
func (e *PlanExecution) Request() *PlanRequest { return e.request }

// Actions returns the plan being executed.
func (e *PlanExecution) Actions() []ActionID { return slices.Clone(e.actions) }

// Status returns Running until the execution finishes.
func (e *PlanExecution) Status() Status { return Status(e.status.Load()) }

// Done reports whether the execution finished.
func (e *PlanExecution) Done() bool { return e.Status() != Running }

// Cursor returns the index of the action being executed.
func (e *PlanExecution) Cursor() int { return e.cursor }

// Current returns the action being executed, if any.
func (e *PlanExecution) Current() (ActionID, bool) {
	if e.Done() || e.onFail != nil || e.cursor >= len(e.actions) {
		return "", false
	}
	return e.actions[e.cursor], true
}

// Failing reports whether the on-fail chain is running.
func (e *PlanExecution) Failing() bool { return e.onFail != nil && !e.Done() }

// FailedAction returns the action whose atom-action failed, if any.
func (e *PlanExecution) FailedAction() (ActionID, bool) { return e.failed, e.failed != "" }

// Attempted returns the actions that were started, in order.
func (e *PlanExecution) Attempted() []ActionID {
	out := make([]ActionID, len(e.attempted))
	for i, index := range e.attempted {
		out[i] = e.domain.actions[index].ID
	}
	return out
}

// Canceled reports whether the execution was torn down before finishing.
func (e *PlanExecution) Canceled() bool { return e.Done() && e.canceled }

// tick is tick phase 4 for one agent.
func (e *PlanExecution) tick() {
	if e.Done() {
		return
	}
	if e.onFail != nil {
		if e.onFail.tick(e.agent) != Running {
			e.finish(Failure)
		}
		return
	}

	if e.current == nil {
		if e.cursor >= len(e.actions) {
			e.finish(Success)
			return
		}
		index := e.domain.byID[e.actions[e.cursor]]
		e.attempted = append(e.attempted, index)
		e.current = newAtomSet(e.domain.actions[index].composer.Compose(e.agent), false)
	}

	switch e.current.tick(e.agent) {
	case Running:
	case Success:
		e.current = nil
		e.cursor++
		if e.cursor >= len(e.actions) {
			e.finish(Success)
		}
	default:
		e.current = nil
		e.failed = e.actions[e.cursor]
		e.beginOnFail()
	}
}

func (e *PlanExecution) beginOnFail() {
	var chain []AtomAction
	for i := len(e.attempted) - 1; i >= 0; i-- {
		chain = append(chain, e.domain.actions[e.attempted[i]].composer.ComposeOnFail(e.agent)...)
	}
	e.onFail = newAtomSet(chain, true)
	if len(e.onFail.atoms) == 0 {
		e.finish(Failure)
	}
}

func (e *PlanExecution) finish(status Status) {
	e.status.Store(int32(status))
}

// cancel tears down the nested atom-set and on-fail executions.
func (e *PlanExecution) cancel() {
	if e.Done() {
		return
	}
	if e.current != nil {
		e.current.cancel()
		e.current = nil
	}
	if e.onFail != nil {
		e.onFail.cancel()
	}
	e.canceled = true
	e.finish(Failure)
}
