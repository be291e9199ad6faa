package goap

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// PlanRequest is one planning session for one agent. Its status starts
// Running and moves exactly once to Success or Failure; on Success, Result
// holds the ordered action list.
//
// Status, Result, FallbackIndex and Ticks may be polled from any goroutine. Once a
// request finishes, its search state has already been torn down.
type PlanRequest struct {
	id      string
	agent   *Agent
	domain  *Domain
	log     *slog.Logger
	metrics *plannerMetrics
	span    trace.Span

	status   atomic.Int32
	result   []ActionID
	fallback atomic.Int32
	ticks    atomic.Int32

	arena    searchArena
	root     nodeID
	active   nodeID
	resolver *resolverInstance
	started  bool
	canceled bool
}

func newPlanRequest(agent *Agent, domain *Domain, log *slog.Logger, metrics *plannerMetrics) *PlanRequest {
	r := &PlanRequest{
		id:      uuid.NewString(),
		agent:   agent,
		domain:  domain,
		log:     log,
		metrics: metrics,
		root:    noNode,
		active:  noNode,
	}
	r.status.Store(int32(Running))
	return r
}

// ID returns the request's unique id.
func (r *PlanRequest) ID() string { return r.id }

// Agent returns the agent being planned for.
func (r *PlanRequest) Agent() *Agent { return r.agent }

// Status returns Running, Success or Failure.
func (r *PlanRequest) Status() Status { return Status(r.status.Load()) }

// Done reports whether the request reached a terminal status.
func (r *PlanRequest) Done() bool { return r.Status() != Running }

// Canceled reports whether the request was torn down by Planner.Cancel,
// RemoveAgent or a newer request for the same agent before it finished. A
// canceled request reports Failure.
func (r *PlanRequest) Canceled() bool { return r.Done() && r.canceled }

// Result returns a copy of the planned action ids, in execution order. It is
// nil unless the status is Success.
func (r *PlanRequest) Result() []ActionID {
	if r.Status() != Success {
		return nil
	}
	return slices.Clone(r.result)
}

// FallbackIndex returns the goal being (or last) searched: 0 for the primary
// goal, i for the i-th fallback.
func (r *PlanRequest) FallbackIndex() int { return int(r.fallback.Load()) }

// Ticks returns the number of search steps taken.
func (r *PlanRequest) Ticks() int { return int(r.ticks.Load()) }

// advanceResolver is tick phase 1.
func (r *PlanRequest) advanceResolver() {
	if r.resolver != nil && !r.Done() {
		r.resolver.advance(r.agent)
	}
}

// consumeResolver is tick phase 2: a completed resolver's value is cached and
// its node either treats the condition as resolved or falls through to
// action search.
func (r *PlanRequest) consumeResolver() {
	res := r.resolver
	if res == nil || res.status != ResolverDone || r.Done() {
		return
	}
	r.resolver = nil
	r.agent.remember(res.condition, res.result)

	n := r.arena.get(res.node)
	if n.phase != phaseResolving {
		panic("goap: resolver completed for a node that is not resolving")
	}
	c := n.target()
	r.log.Debug("goap: condition resolved",
		"request", r.id, "condition", c.ID, "value", res.result, "ticks", res.ticks)
	if c.Matches(res.result) {
		n.condCursor++
		n.phase = phaseAdvance
		return
	}
	r.beginSearch(n, c)
}

// step is tick phase 3: the search runs until it suspends on a resolver or
// the request finishes.
func (r *PlanRequest) step() {
	if r.Done() {
		return
	}
	r.ticks.Add(1)
	if !r.started {
		r.started = true
		r.agent.resetCache()
		r.startRoot()
	}
	for !r.Done() {
		id := r.active
		n := r.arena.get(id)
		switch n.phase {
		case phaseResolving:
			return

		case phaseAdvance:
			if n.condCursor >= n.numTargets {
				r.succeed(id)
				continue
			}
			c := n.target()
			if r.arena.ancestorSatisfied(id, c) {
				n.condCursor++
				continue
			}
			if v, ok := r.agent.Cached(c.ID); ok {
				if c.Matches(v) {
					n.condCursor++
				} else {
					r.beginSearch(n, c)
				}
				continue
			}
			if factory, ok := r.domain.resolver(c.ID); ok {
				r.resolver = startResolver(factory, r.agent, c.ID, id)
				n.phase = phaseResolving
				if r.metrics != nil {
					r.metrics.resolvers.Add(context.Background(), 1)
				}
				return
			}
			r.beginSearch(n, c)

		case phaseSearching:
			r.tryCandidate(id)

		default:
			panic("goap: active search node is waiting on a child")
		}
	}
}

func (r *PlanRequest) startRoot() {
	goal := r.agent.goals[r.FallbackIndex()]
	r.root = r.arena.alloc(noNode, -1, goal)
	r.active = r.root
}

func (r *PlanRequest) beginSearch(n *searchNode, c Condition) {
	n.candidates = r.domain.candidateIndices(c)
	n.actionCursor = 0
	n.phase = phaseSearching
}

// tryCandidate expands the candidate at id's action cursor into a child
// node, or fails id once its candidates are exhausted.
func (r *PlanRequest) tryCandidate(id nodeID) {
	n := r.arena.get(id)
	if n.actionCursor >= len(n.candidates) {
		r.fail(id)
		return
	}
	index := n.candidates[n.actionCursor]
	n.phase = phaseWaiting
	child := r.arena.alloc(id, index, r.domain.actions[index].Preconditions)
	r.arena.get(id).child = child
	r.active = child
}

func (r *PlanRequest) succeed(id nodeID) {
	n := r.arena.get(id)
	if n.parent == noNode {
		r.finish(Success, n.plan)
		return
	}

	action := r.domain.actions[n.action]
	parentID := n.parent
	p := r.arena.get(parentID)
	p.plan = append(p.plan, n.plan...)
	p.plan = append(p.plan, action.ID)
	for cid, v := range n.satisfied {
		p.satisfy(Condition{ID: cid, Value: v})
	}
	p.satisfy(action.Effect)
	p.child = noNode
	p.condCursor++
	p.phase = phaseAdvance

	r.arena.release(id)
	r.active = parentID
}

func (r *PlanRequest) fail(id nodeID) {
	n := r.arena.get(id)
	if n.parent != noNode {
		parentID := n.parent
		p := r.arena.get(parentID)
		p.child = noNode
		p.actionCursor++
		p.phase = phaseSearching
		r.arena.release(id)
		r.active = parentID
		return
	}

	r.arena.release(id)
	r.root, r.active = noNode, noNode
	next := r.FallbackIndex() + 1
	if next < r.agent.GoalCount() {
		r.log.Debug("goap: trying fallback goal", "request", r.id, "agent", r.agent.name, "fallback", next)
		r.fallback.Store(int32(next))
		r.startRoot()
		return
	}
	r.finish(Failure, nil)
}

func (r *PlanRequest) finish(status Status, plan []ActionID) {
	r.teardown()
	if status == Success {
		r.result = slices.Clone(plan)
		if r.result == nil {
			r.result = []ActionID{}
		}
	}
	r.status.Store(int32(status))
}

// cancel tears the request down and marks it failed.
func (r *PlanRequest) cancel() {
	if r.Done() {
		return
	}
	r.canceled = true
	r.finish(Failure, nil)
}

// teardown destroys the in-flight resolver and every live search node. The
// search is depth-first, so the live nodes are exactly the active node and
// its ancestors.
func (r *PlanRequest) teardown() {
	if r.resolver != nil {
		r.resolver.cancel()
		r.resolver = nil
	}
	for id := r.active; id != noNode; {
		parent := r.arena.get(id).parent
		if parent != noNode {
			r.arena.get(parent).child = noNode
		}
		r.arena.release(id)
		id = parent
	}
	r.root, r.active = noNode, noNode
}
