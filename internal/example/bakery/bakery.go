// Package bakery is a small GOAP domain used by the simulate command and as
// an end-to-end fixture: a baker turns cocoa into chocolate, icing and
// finally a cake.
//
// World state lives on the agent's blackboard under the State* keys. Each
// condition is sensed from the blackboard by a different resolver kind, and
// each action's atom-actions take a configurable number of ticks before they
// write their result back.
package bakery

import (
	"fmt"
	"log/slog"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/resolve"
)

// DomainID is the id the bakery domain is registered under.
const DomainID = "bakery"

// Conditions.
const (
	HasCocoa     goap.ConditionID = "HAS_COCOA"
	HasChocolate goap.ConditionID = "HAS_CHOCOLATE"
	HasIcing     goap.ConditionID = "HAS_ICING"
	HasCake      goap.ConditionID = "HAS_CAKE"
)

// Actions.
const (
	GetCocoa      goap.ActionID = "GET_COCOA"
	MakeChocolate goap.ActionID = "MAKE_CHOCOLATE"
	MakeIcing     goap.ActionID = "MAKE_ICING"
	BakeCake      goap.ActionID = "BAKE_CAKE"
)

// Blackboard keys.
const (
	StateCocoa        = "cocoa"
	StateChocolate    = "chocolate"
	StateIcing        = "icing"
	StateCake         = "cake"
	StateOvenDirty    = "oven_dirty"
	StateBakeAttempts = "bake_attempts"
)

// Config tunes the domain's timing and failure behavior.
type Config struct {
	// FetchTicks is how long GET_COCOA takes.
	FetchTicks int
	// MixTicks is how long MAKE_CHOCOLATE and MAKE_ICING take.
	MixTicks int
	// BakeTicks is how long the oven runs in BAKE_CAKE.
	BakeTicks int
	// SenseDelay is how many ticks resolving HAS_CAKE takes.
	SenseDelay int
	// Flaky makes the first bake attempt of every agent burn the cake.
	Flaky bool
	// Logger receives progress messages. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the timing used by the simulate command.
func DefaultConfig() Config {
	return Config{
		FetchTicks: 2,
		MixTicks:   1,
		BakeTicks:  3,
		SenseDelay: 1,
	}
}

// NewDomain builds and sorts the bakery domain.
func NewDomain(cfg Config) (*goap.Domain, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	k := kitchen{cfg: cfg, log: log}

	d := goap.NewDomain(DomainID)
	resolvers := []struct {
		id      goap.ConditionID
		factory func() (goap.ResolverFactory, error)
	}{
		{HasCocoa, func() (goap.ResolverFactory, error) {
			return resolve.Key(StateCocoa, resolve.WithLogger(log)), nil
		}},
		{HasChocolate, func() (goap.ResolverFactory, error) {
			return resolve.Expr(StateChocolate+" == true", resolve.WithLogger(log))
		}},
		{HasIcing, func() (goap.ResolverFactory, error) {
			return resolve.CEL("has(state.icing) && state.icing == true", resolve.WithLogger(log))
		}},
		{HasCake, func() (goap.ResolverFactory, error) {
			return resolve.Key(StateCake, resolve.WithDelay(cfg.SenseDelay), resolve.WithLogger(log)), nil
		}},
	}
	for _, r := range resolvers {
		factory, err := r.factory()
		if err != nil {
			return nil, fmt.Errorf("bakery: resolver %s: %w", r.id, err)
		}
		if err := d.AddResolver(r.id, factory); err != nil {
			return nil, err
		}
	}

	actions := []struct {
		action   goap.Action
		composer goap.ActionComposer
	}{
		{
			goap.Action{ID: GetCocoa, Cost: 1, Effect: goap.True(HasCocoa)},
			goap.Composer{Atoms: k.produce(GetCocoa, StateCocoa, cfg.FetchTicks)},
		},
		{
			goap.Action{ID: MakeChocolate, Cost: 2, Effect: goap.True(HasChocolate),
				Preconditions: []goap.Condition{goap.True(HasCocoa)}},
			goap.Composer{Atoms: k.produce(MakeChocolate, StateChocolate, cfg.MixTicks)},
		},
		{
			goap.Action{ID: MakeIcing, Cost: 2, Effect: goap.True(HasIcing),
				Preconditions: []goap.Condition{goap.True(HasChocolate)}},
			goap.Composer{Atoms: k.produce(MakeIcing, StateIcing, cfg.MixTicks)},
		},
		{
			goap.Action{ID: BakeCake, Cost: 3, Effect: goap.True(HasCake),
				Preconditions: []goap.Condition{goap.True(HasIcing), goap.True(HasChocolate), goap.True(HasCocoa)}},
			goap.Composer{Atoms: k.bake, OnFail: k.cleanOven},
		},
	}
	for _, a := range actions {
		if err := d.AddAction(a.action, a.composer); err != nil {
			return nil, err
		}
	}
	if err := d.Sort(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewAgent returns a baker whose goal is a cake, falling back to chocolate.
func NewAgent(name string) *goap.Agent {
	agent := goap.NewAgent(name, DomainID)
	agent.AddGoal(goap.True(HasCake))
	agent.AddFallbackGoal(goap.True(HasChocolate))
	return agent
}

// Baked reports whether agent has a cake.
func Baked(agent *goap.Agent) bool {
	v, _ := agent.State().Bool(StateCake)
	return v
}

type kitchen struct {
	cfg Config
	log *slog.Logger
}

// produce returns atoms that work for ticks ticks, then set key.
func (k kitchen) produce(action goap.ActionID, key string, ticks int) func(*goap.Agent) []goap.AtomAction {
	return func(*goap.Agent) []goap.AtomAction {
		return []goap.AtomAction{
			goap.Wait(ticks, nil),
			goap.Do(func(agent *goap.Agent) {
				agent.State().Set(key, true)
				k.log.Debug("bakery: produced", "agent", agent.Name(), "action", action, "key", key)
			}),
		}
	}
}

// bake runs the oven as a behavior tree: the oven must be clean, then it
// bakes for BakeTicks ticks.
func (k kitchen) bake(agent *goap.Agent) []goap.AtomAction {
	remaining := k.cfg.BakeTicks

	ovenClean := bt.New(func([]bt.Node) (bt.Status, error) {
		if dirty, _ := agent.State().Bool(StateOvenDirty); dirty {
			return bt.Failure, nil
		}
		return bt.Success, nil
	})
	runOven := bt.New(func([]bt.Node) (bt.Status, error) {
		if remaining > 0 {
			remaining--
			return bt.Running, nil
		}
		var attempts int
		agent.State().Update(StateBakeAttempts, func(current any) any {
			n, _ := current.(int)
			attempts = n + 1
			return attempts
		})
		if k.cfg.Flaky && attempts == 1 {
			agent.State().Set(StateOvenDirty, true)
			k.log.Info("bakery: cake burned", "agent", agent.Name())
			return bt.Failure, nil
		}
		agent.State().Set(StateCake, true)
		k.log.Info("bakery: cake baked", "agent", agent.Name(), "attempts", attempts)
		return bt.Success, nil
	})
	return []goap.AtomAction{goap.NodeAtom(bt.New(bt.Sequence, ovenClean, runOven))}
}

// cleanOven is BAKE_CAKE's on-fail chain.
func (k kitchen) cleanOven(*goap.Agent) []goap.AtomAction {
	return []goap.AtomAction{
		goap.Wait(1, func(agent *goap.Agent) goap.Status {
			agent.State().Delete(StateOvenDirty)
			k.log.Info("bakery: oven cleaned", "agent", agent.Name())
			return goap.Success
		}),
	}
}
