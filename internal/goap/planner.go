package goap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// agentSlot is the planner's runtime state for one agent. At most one of
// request and execution is live at a time.
type agentSlot struct {
	agent     *Agent
	domain    *Domain
	request   *PlanRequest
	execution *PlanExecution
}

// Planner owns registered domains and drives planning and execution for every
// agent given a plan request. All methods are safe for concurrent use, but
// they serialize with Tick: a method called while a tick is in progress waits
// for the tick to finish.
type Planner struct {
	mu      sync.Mutex
	domains map[string]*Domain
	slots   []*agentSlot
	byAgent map[*Agent]*agentSlot
	ticks   uint64

	opts    options
	log     *slog.Logger
	metrics *plannerMetrics
	tracer  trace.Tracer
}

// NewPlanner returns a Planner with no domains or agents.
func NewPlanner(opts ...Option) *Planner {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = slog.Default()
	}
	metrics, tracer, err := initTelemetry(&o)
	if err != nil {
		log.Warn("goap: telemetry disabled", "error", err)
	}
	return &Planner{
		domains: make(map[string]*Domain),
		byAgent: make(map[*Agent]*agentSlot),
		opts:    o,
		log:     log,
		metrics: metrics,
		tracer:  tracer,
	}
}

// RegisterDomain makes d available to agents naming its id, sealing it. It
// returns an error if another domain already uses the id.
func (p *Planner) RegisterDomain(d *Domain) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.domains[d.id]; ok {
		if existing == d {
			return nil
		}
		return fmt.Errorf("goap: domain %q already registered", d.id)
	}
	d.Seal()
	p.domains[d.id] = d
	return nil
}

// Domain returns the domain registered as id.
func (p *Planner) Domain(id string) (*Domain, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.domains[id]
	return d, ok
}

// CreatePlanRequest starts planning for agent. The search begins on the next
// Tick. Any request or execution already live for the agent is torn down
// first.
//
// It panics if the agent's domain is not registered.
func (p *Planner) CreatePlanRequest(agent *Agent) *PlanRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.byAgent[agent]
	if !ok {
		d, ok := p.domains[agent.domain]
		if !ok {
			panic(fmt.Sprintf("goap: agent %q refers to unregistered domain %q", agent.name, agent.domain))
		}
		slot = &agentSlot{agent: agent, domain: d}
		p.byAgent[agent] = slot
		p.slots = append(p.slots, slot)
	}
	p.teardown(slot)
	return p.spawnRequest(context.Background(), slot)
}

// Cancel tears down req, its search nodes and any in-flight resolver. The
// agent stays idle until it is given a new request. Cancel is a no-op for
// finished requests.
func (p *Planner) Cancel(req *PlanRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	slot, ok := p.byAgent[req.agent]
	if !ok || slot.request != req {
		return
	}
	p.teardown(slot)
}

// RemoveAgent tears down everything live for agent and forgets it.
func (p *Planner) RemoveAgent(agent *Agent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	slot, ok := p.byAgent[agent]
	if !ok {
		return
	}
	p.teardown(slot)
	delete(p.byAgent, agent)
	for i, s := range p.slots {
		if s == slot {
			p.slots = append(p.slots[:i], p.slots[i+1:]...)
			break
		}
	}
}

// Request returns the agent's live plan request, if any.
func (p *Planner) Request(agent *Agent) *PlanRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slot, ok := p.byAgent[agent]; ok {
		return slot.request
	}
	return nil
}

// Execution returns the agent's live plan execution, if any.
func (p *Planner) Execution(agent *Agent) *PlanExecution {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slot, ok := p.byAgent[agent]; ok {
		return slot.execution
	}
	return nil
}

// Agents returns the agents known to the planner, in the order they were
// first given a plan request.
func (p *Planner) Agents() []*Agent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Agent, len(p.slots))
	for i, s := range p.slots {
		out[i] = s.agent
	}
	return out
}

// Ticks returns the number of completed ticks.
func (p *Planner) Ticks() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}

// Tick advances every agent by one generation: resolvers, then resolver
// results, then search, then execution. Each phase completes for all agents
// before the next begins. The only error returned is ctx's, in which case
// the tick may have been applied to some agents only.
func (p *Planner) Tick(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	slots := p.slots
	phases := []func(context.Context, *agentSlot){
		p.tickResolvers,
		p.tickResults,
		p.tickSearch,
		p.tickExecution,
	}
	for _, phase := range phases {
		if err := p.forEach(ctx, slots, phase); err != nil {
			return err
		}
	}
	p.ticks++
	return nil
}

func (p *Planner) forEach(ctx context.Context, slots []*agentSlot, fn func(context.Context, *agentSlot)) error {
	if p.opts.parallelism < 2 || len(slots) < 2 {
		for _, slot := range slots {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(ctx, slot)
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.parallelism)
	for _, slot := range slots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, slot)
			return nil
		})
	}
	return g.Wait()
}

// tickResolvers is phase 1.
func (p *Planner) tickResolvers(_ context.Context, slot *agentSlot) {
	if slot.request != nil {
		slot.request.advanceResolver()
	}
}

// tickResults is phase 2.
func (p *Planner) tickResults(_ context.Context, slot *agentSlot) {
	if slot.request != nil {
		slot.request.consumeResolver()
	}
}

// tickSearch is phase 3. A successful request hands over to a new
// execution; a failed one is replaced when retries are enabled.
func (p *Planner) tickSearch(ctx context.Context, slot *agentSlot) {
	req := slot.request
	if req == nil {
		return
	}
	req.step()
	if !req.Done() {
		return
	}
	slot.request = nil
	p.planFinished(ctx, req)

	switch {
	case req.Status() == Success:
		slot.execution = newPlanExecution(req)
		p.log.Debug("goap: execution started",
			"agent", slot.agent.name, "request", req.id, "actions", len(req.result))
	case p.opts.retryFailed:
		p.spawnRequest(ctx, slot)
	}
}

// tickExecution is phase 4. A finished execution is replaced by a fresh plan
// request when replanning is enabled.
func (p *Planner) tickExecution(ctx context.Context, slot *agentSlot) {
	exec := slot.execution
	if exec == nil {
		return
	}
	exec.tick()
	if !exec.Done() {
		return
	}
	slot.execution = nil
	p.executionFinished(ctx, exec)
	if p.opts.replan {
		p.spawnRequest(ctx, slot)
	}
}

func (p *Planner) spawnRequest(ctx context.Context, slot *agentSlot) *PlanRequest {
	req := newPlanRequest(slot.agent, slot.domain, p.log, p.metrics)
	_, req.span = p.tracer.Start(ctx, "goap.plan", trace.WithAttributes(
		attribute.String("goap.agent", slot.agent.name),
		attribute.String("goap.domain", slot.domain.id),
		attribute.String("goap.request", req.id),
	))
	slot.request = req
	p.log.Debug("goap: plan request created", "agent", slot.agent.name, "request", req.id)
	return req
}

// teardown destroys whatever is live for slot. Callers hold p.mu.
func (p *Planner) teardown(slot *agentSlot) {
	if req := slot.request; req != nil {
		slot.request = nil
		req.cancel()
		p.planFinished(context.Background(), req)
	}
	if exec := slot.execution; exec != nil {
		slot.execution = nil
		exec.cancel()
		p.executionFinished(context.Background(), exec)
	}
}

func (p *Planner) planFinished(ctx context.Context, req *PlanRequest) {
	endPlanSpan(req)
	p.metrics.recordPlan(ctx, req)
	switch {
	case req.Canceled():
		p.log.Debug("goap: plan request canceled", "agent", req.agent.name, "request", req.id)
	case req.Status() == Success:
		p.log.Info("goap: plan found",
			"agent", req.agent.name, "request", req.id, "goal", req.FallbackIndex(),
			"actions", req.result, "ticks", req.Ticks())
	default:
		p.log.Info("goap: no plan",
			"agent", req.agent.name, "request", req.id, "ticks", req.Ticks())
	}
	if p.opts.observer != nil {
		p.opts.observer.PlanFinished(req)
	}
}

func (p *Planner) executionFinished(ctx context.Context, exec *PlanExecution) {
	p.metrics.recordExecution(ctx, exec)
	switch {
	case exec.Canceled():
		p.log.Debug("goap: execution canceled", "agent", exec.agent.name, "request", exec.request.id)
	case exec.Status() == Success:
		p.log.Info("goap: execution succeeded", "agent", exec.agent.name, "request", exec.request.id)
	default:
		p.log.Warn("goap: execution failed",
			"agent", exec.agent.name, "request", exec.request.id,
			"action", exec.failed, "attempted", exec.Attempted())
	}
	if p.opts.observer != nil {
		p.opts.observer.ExecutionFinished(exec)
	}
}
