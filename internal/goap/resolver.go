package goap

// ResolverStatus is the progress of one resolution.
type ResolverStatus int

const (
	// ResolverRunning means the result is not known yet; the resolver is
	// advanced again on the next tick.
	ResolverRunning ResolverStatus = iota
	// ResolverDone means the result is definitive. A done resolver is never
	// advanced again.
	ResolverDone
)

func (s ResolverStatus) String() string {
	switch s {
	case ResolverRunning:
		return "running"
	case ResolverDone:
		return "done"
	default:
		return "unknown"
	}
}

// Resolver determines the truth value of one condition for one agent,
// possibly over several ticks.
//
// Start is called once, during the search step that needs the condition.
// Advance is called once per subsequent tick until it returns ResolverDone,
// at which point the second result is the condition's value.
type Resolver interface {
	Start(agent *Agent, id ConditionID)
	Advance(agent *Agent) (ResolverStatus, bool)
}

// Canceler is implemented by resolvers and atom-actions that hold resources
// beyond their own memory. Cancel is called if the owning plan request or
// execution is torn down before they reach a terminal state.
type Canceler interface {
	Cancel()
}

// ResolverFactory creates a fresh Resolver for each resolution.
type ResolverFactory func() Resolver

// ResolverFunc adapts a function to the Resolver interface. Start is a no-op.
type ResolverFunc func(agent *Agent) (ResolverStatus, bool)

func (f ResolverFunc) Start(*Agent, ConditionID) {}

func (f ResolverFunc) Advance(agent *Agent) (ResolverStatus, bool) { return f(agent) }

// Instant returns a factory for resolvers that report sense(agent) on their
// first tick.
func Instant(sense func(agent *Agent) bool) ResolverFactory {
	return Delayed(0, sense)
}

// Const returns a factory for resolvers that report value on their first tick.
func Const(value bool) ResolverFactory {
	return Instant(func(*Agent) bool { return value })
}

// Delayed returns a factory for resolvers that stay running for ticks ticks
// and then report sense(agent). The agent is sensed on the tick the resolver
// finishes, not when it starts.
func Delayed(ticks int, sense func(agent *Agent) bool) ResolverFactory {
	if sense == nil {
		panic("goap.Delayed: sense must not be nil")
	}
	return func() Resolver {
		return &delayedResolver{remaining: ticks, sense: sense}
	}
}

type delayedResolver struct {
	remaining int
	sense     func(agent *Agent) bool
}

func (r *delayedResolver) Start(*Agent, ConditionID) {}

func (r *delayedResolver) Advance(agent *Agent) (ResolverStatus, bool) {
	if r.remaining > 0 {
		r.remaining--
		return ResolverRunning, false
	}
	return ResolverDone, r.sense(agent)
}

// resolverInstance is the search layer's handle on one in-flight resolution.
type resolverInstance struct {
	impl      Resolver
	condition ConditionID
	node      nodeID
	status    ResolverStatus
	result    bool
	ticks     int
}

func startResolver(factory ResolverFactory, agent *Agent, id ConditionID, node nodeID) *resolverInstance {
	r := &resolverInstance{
		impl:      factory(),
		condition: id,
		node:      node,
	}
	r.impl.Start(agent, id)
	return r
}

func (r *resolverInstance) advance(agent *Agent) {
	if r.status == ResolverDone {
		return
	}
	r.ticks++
	r.status, r.result = r.impl.Advance(agent)
}

func (r *resolverInstance) cancel() {
	if r.status == ResolverDone {
		return
	}
	if c, ok := r.impl.(Canceler); ok {
		c.Cancel()
	}
}
