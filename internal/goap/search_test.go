package goap

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchArena_AllocReuse(t *testing.T) {
	t.Parallel()

	var a searchArena
	root := a.alloc(noNode, -1, []Condition{True("a"), False("b")})
	child := a.alloc(root, 3, nil)
	require.Equal(t, 2, a.live())

	n := a.get(root)
	require.Equal(t, 2, n.numTargets)
	require.Equal(t, True("a"), n.targets[0])
	require.Equal(t, False("b"), n.targets[1])
	require.Equal(t, noNode, n.parent)
	require.Equal(t, noNode, n.child)

	c := a.get(child)
	require.Equal(t, root, c.parent)
	require.Equal(t, 3, c.action)
	require.Zero(t, c.numTargets)

	a.release(child)
	require.Equal(t, 1, a.live())

	// released slots are handed out again, fully reset
	again := a.alloc(root, 5, []Condition{True("z")})
	require.Equal(t, child, again)
	n2 := a.get(again)
	require.Equal(t, 5, n2.action)
	require.Equal(t, 1, n2.numTargets)
	require.Nil(t, n2.satisfied)
	require.Nil(t, n2.plan)
}

func TestSearchArena_ReleaseWithLiveChildPanics(t *testing.T) {
	t.Parallel()

	var a searchArena
	root := a.alloc(noNode, -1, nil)
	child := a.alloc(root, 0, nil)
	a.get(root).child = child

	require.PanicsWithValue(t, "goap: releasing search node 0 with live child 1", func() {
		a.release(root)
	})
}

func TestSearchArena_UseAfterReleasePanics(t *testing.T) {
	t.Parallel()

	var a searchArena
	id := a.alloc(noNode, -1, nil)
	a.release(id)
	require.Panics(t, func() { a.get(id) })
}

func TestSearchArena_TargetCapacity(t *testing.T) {
	t.Parallel()

	var a searchArena
	targets := make([]Condition, MaxPreconditions+1)
	require.Panics(t, func() { a.alloc(noNode, -1, targets) })
}

func TestSearchArena_AncestorSatisfied(t *testing.T) {
	t.Parallel()

	var a searchArena
	root := a.alloc(noNode, -1, nil)
	mid := a.alloc(root, 0, nil)
	leaf := a.alloc(mid, 1, nil)

	a.get(root).satisfy(True("from_root"))
	a.get(mid).satisfy(False("from_mid"))

	require.True(t, a.ancestorSatisfied(leaf, True("from_root")))
	require.True(t, a.ancestorSatisfied(leaf, False("from_mid")))
	require.False(t, a.ancestorSatisfied(leaf, True("from_mid")), "value must match")
	require.False(t, a.ancestorSatisfied(root, False("from_mid")), "descendants are not consulted")
	require.False(t, a.ancestorSatisfied(leaf, True("unknown")))

	require.Equal(t, 2, a.depth(leaf))
	require.Equal(t, 0, a.depth(root))
}

func TestPlanRequest_ChildTargetsArePreconditions(t *testing.T) {
	t.Parallel()

	d := NewDomain("child-targets")
	d.MustAddAction(Action{ID: "MAKE_X", Effect: True("X"), Preconditions: []Condition{True("Y"), False("Z")}}, nil)
	d.MustAddResolver("Y", Delayed(1, func(*Agent) bool { return true }))
	agent := NewAgent("maker", d.ID())
	agent.AddGoal(True("X"))

	req := newPlanRequest(agent, d, slog.Default(), nil)
	req.step()
	require.False(t, req.Done())
	require.NotNil(t, req.resolver, "suspended on Y")

	child := req.arena.get(req.active)
	require.Equal(t, req.root, child.parent)
	require.Equal(t, 2, child.numTargets)
	require.Equal(t, []Condition{True("Y"), False("Z")}, child.targets[:child.numTargets],
		"the action's own effect is not searched again")

	req.cancel()
	require.Zero(t, req.arena.live())
}
