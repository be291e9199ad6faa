package goap

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"
)

// ConditionID identifies an atomic fact within a Domain.
type ConditionID string

// Condition is an atomic fact: a condition id paired with the desired value.
// Two conditions are equal when both fields are equal.
type Condition struct {
	ID    ConditionID
	Value bool
}

// True returns the condition id=true.
func True(id ConditionID) Condition { return Condition{ID: id, Value: true} }

// False returns the condition id=false.
func False(id ConditionID) Condition { return Condition{ID: id, Value: false} }

// Not returns the condition with the opposite value.
func (c Condition) Not() Condition { return Condition{ID: c.ID, Value: !c.Value} }

// Matches reports whether value satisfies c.
func (c Condition) Matches(value bool) bool { return c.Value == value }

func (c Condition) String() string { return fmt.Sprintf("%s=%t", c.ID, c.Value) }

// Status is the outcome of a plan request, a plan execution or an atom-action.
// It is the go-behaviortree status type, so behavior tree nodes can be used
// as atom-actions without translation.
type Status = bt.Status

const (
	Running = bt.Running
	Success = bt.Success
	Failure = bt.Failure
)
