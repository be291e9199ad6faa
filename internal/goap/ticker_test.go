package goap_test

import (
	"context"
	"testing"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestPlanner_DrivenByWallClockTicker(t *testing.T) {
	t.Parallel()

	d := cakeDomain(t, "wall-clock")
	p := newPlanner(t, []*goap.Domain{d}, goap.WithReplan(false))
	agent := goap.NewAgent(testutil.AgentName("baker", t.Name()), "wall-clock")
	agent.AddGoal(goap.True(hasCake))
	req := p.CreatePlanRequest(agent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ticker := bt.NewTicker(ctx, time.Millisecond, bt.New(func([]bt.Node) (bt.Status, error) {
		return bt.Success, p.Tick(ctx)
	}))
	defer ticker.Stop()

	status, err := testutil.WaitForState(ctx, req.Status,
		func(s goap.Status) bool { return s != goap.Running },
		5*time.Second, testutil.PollingInterval)
	require.NoError(t, err)
	require.Equal(t, goap.Success, status)

	// the plan's actions have no atoms, so the execution finishes promptly
	require.NoError(t, testutil.Poll(ctx, func() bool {
		return p.Execution(agent) == nil && p.Request(agent) == nil
	}, 5*time.Second, testutil.PollingInterval))
	require.GreaterOrEqual(t, p.Ticks(), uint64(2))
}
