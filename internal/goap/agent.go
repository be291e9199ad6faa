package goap

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/joeycumines/goap/internal/blackboard"
)

// Agent is one planning subject. It refers to its Domain by id, holds an
// ordered goal list (the primary goal first, then fallbacks), a blackboard of
// world state, and the condition cache used by its current planning pass.
//
// Goals must be configured before the agent's first plan request. The
// condition cache is only written by the agent's own planning steps, and may
// be read with Cached at any time.
type Agent struct {
	id      string
	name    string
	domain  string
	goals   [][]Condition
	cacheMu sync.RWMutex
	cache   map[ConditionID]bool
	state   *blackboard.Blackboard
}

// NewAgent returns an agent planning against the domain registered as
// domainID.
func NewAgent(name, domainID string) *Agent {
	return &Agent{
		id:     uuid.NewString(),
		name:   name,
		domain: domainID,
		goals:  [][]Condition{nil},
		cache:  make(map[ConditionID]bool),
		state:  new(blackboard.Blackboard),
	}
}

// ID returns the agent's unique id.
func (a *Agent) ID() string { return a.id }

// Name returns the name given to NewAgent.
func (a *Agent) Name() string { return a.name }

// DomainID returns the id of the domain the agent plans against.
func (a *Agent) DomainID() string { return a.domain }

// State returns the agent's world-state blackboard.
func (a *Agent) State() *blackboard.Blackboard { return a.state }

// AddGoal adds cond to the primary goal. The primary goal is satisfied when
// all of its conditions are. It panics if the goal would exceed
// MaxPreconditions conditions.
func (a *Agent) AddGoal(cond Condition) {
	if len(a.goals[0]) >= MaxPreconditions {
		panic(fmt.Sprintf("goap: agent %q: primary goal exceeds %d conditions", a.name, MaxPreconditions))
	}
	a.goals[0] = append(a.goals[0], cond)
}

// AddFallbackGoal appends a fallback goal made of conds. Fallbacks are tried
// in the order they were added, and only once the previous goal's search has
// failed entirely.
func (a *Agent) AddFallbackGoal(conds ...Condition) {
	if len(conds) == 0 {
		panic(fmt.Sprintf("goap: agent %q: empty fallback goal", a.name))
	}
	if len(conds) > MaxPreconditions {
		panic(fmt.Sprintf("goap: agent %q: fallback goal exceeds %d conditions", a.name, MaxPreconditions))
	}
	a.goals = append(a.goals, slices.Clone(conds))
}

// Goal returns goal i, where 0 is the primary goal and i > 0 the fallbacks.
func (a *Agent) Goal(i int) []Condition {
	return slices.Clone(a.goals[i])
}

// GoalCount returns the number of goals, the primary goal included.
func (a *Agent) GoalCount() int { return len(a.goals) }

// Cached returns the value recorded for id by the current planning pass.
func (a *Agent) Cached(id ConditionID) (value bool, ok bool) {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()
	value, ok = a.cache[id]
	return
}

func (a *Agent) remember(id ConditionID, value bool) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	if _, ok := a.cache[id]; ok {
		panic(fmt.Sprintf("goap: agent %q: condition %q resolved twice in one pass", a.name, id))
	}
	a.cache[id] = value
}

func (a *Agent) resetCache() {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	clear(a.cache)
}

func (a *Agent) String() string {
	return fmt.Sprintf("%s(%s)", a.name, a.id)
}
