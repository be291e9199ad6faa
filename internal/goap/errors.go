package goap

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCyclicDomain is reported when an action's preconditions transitively
	// depend on its own effect condition.
	ErrCyclicDomain = errors.New("cyclic action graph")
	// ErrTooManyPreconditions is reported for actions with more than
	// MaxPreconditions preconditions.
	ErrTooManyPreconditions = fmt.Errorf("more than %d preconditions", MaxPreconditions)
	// ErrDuplicateAction is reported when an action id is registered twice.
	ErrDuplicateAction = errors.New("duplicate action id")
	// ErrDuplicateResolver is reported when a condition already has a resolver.
	ErrDuplicateResolver = errors.New("condition already has a resolver")
	// ErrDomainSealed is reported for mutations after Sort, Seal or registration.
	ErrDomainSealed = errors.New("domain is sealed")
	// ErrInvalidAction is reported for actions missing an id or effect, or
	// with a negative cost.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidResolver is reported for nil resolver factories or empty
	// condition ids.
	ErrInvalidResolver = errors.New("invalid resolver")
)

// AuthoringError describes a rejected Domain mutation. It is fatal for the
// domain being built: the caller is expected to abort construction.
type AuthoringError struct {
	Domain    string
	Action    ActionID
	Condition ConditionID
	// Cycle is the condition path that closes the cycle, starting and ending
	// at the rejected action's effect. Only set for ErrCyclicDomain.
	Cycle []ConditionID
	Err   error
}

func (e *AuthoringError) Error() string {
	var b strings.Builder
	b.WriteString("goap: domain ")
	b.WriteString(fmt.Sprintf("%q", e.Domain))
	if e.Action != "" {
		b.WriteString(fmt.Sprintf(": action %q", e.Action))
	}
	if e.Condition != "" {
		b.WriteString(fmt.Sprintf(": condition %q", e.Condition))
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if len(e.Cycle) > 0 {
		parts := make([]string, len(e.Cycle))
		for i, id := range e.Cycle {
			parts[i] = string(id)
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, " -> "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *AuthoringError) Unwrap() error { return e.Err }
