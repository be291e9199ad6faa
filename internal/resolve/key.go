package resolve

import "github.com/joeycumines/goap/internal/goap"

// Key returns a factory for resolvers reporting the bool stored under key in
// the agent's blackboard. A missing or non-bool value resolves to false.
func Key(key string, opts ...Option) goap.ResolverFactory {
	o := buildOptions(opts)
	return goap.Delayed(o.delay, func(agent *goap.Agent) bool {
		v, ok := agent.State().Bool(key)
		if !ok && agent.State().Has(key) {
			o.logger.Warn("resolve: blackboard value is not a bool",
				"agent", agent.Name(), "key", key)
		}
		return v
	})
}

// Not returns a factory for resolvers reporting the negation of factory's
// result.
func Not(factory goap.ResolverFactory) goap.ResolverFactory {
	return func() goap.Resolver {
		return &notResolver{inner: factory()}
	}
}

type notResolver struct {
	inner goap.Resolver
}

func (r *notResolver) Start(agent *goap.Agent, id goap.ConditionID) { r.inner.Start(agent, id) }

func (r *notResolver) Advance(agent *goap.Agent) (goap.ResolverStatus, bool) {
	status, v := r.inner.Advance(agent)
	if status != goap.ResolverDone {
		return status, false
	}
	return status, !v
}

func (r *notResolver) Cancel() {
	if c, ok := r.inner.(goap.Canceler); ok {
		c.Cancel()
	}
}
