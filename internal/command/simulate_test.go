package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joeycumines/goap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPlan = "GET_COCOA -> MAKE_CHOCOLATE -> MAKE_ICING -> BAKE_CAKE"

func TestSimulateCommand_BakesACake(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := run(t, NewSimulateCommand(config.NewConfig()))
	require.NoError(t, err)

	assert.Contains(t, stdout, "baker-1: planned for goal 0 in ")
	assert.Contains(t, stdout, fullPlan+"\n")
	assert.Contains(t, stdout, "\nSimulated 19 tick(s): 1 of 1 baker(s) baked a cake\n")
	assert.Contains(t, stdout, "Executions: ")
	assert.Contains(t, stdout, "  baker-1: baked on the 1st attempt\n")
	assert.NotContains(t, stdout, "execution failed")
	assert.Contains(t, stderr, "goap: plan found")
}

func TestSimulateCommand_FlakyOven(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, NewSimulateCommand(config.NewConfig()), "--flaky")
	require.NoError(t, err)

	assert.Contains(t, stdout, "baker-1: execution failed at BAKE_CAKE, compensated 4 action(s)\n")
	assert.Contains(t, stdout, ": BAKE_CAKE\n", "the replan only needs the oven")
	assert.Contains(t, stdout, "\nSimulated 30 tick(s): 1 of 1 baker(s) baked a cake\n")
	assert.Contains(t, stdout, " 1 failed\n")
	assert.Contains(t, stdout, "  baker-1: baked on the 2nd attempt\n")
}

func TestSimulateCommand_FlakyFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.SetCommandOption("simulate", "flaky", "yes")

	stdout, _, err := run(t, NewSimulateCommand(cfg))
	require.NoError(t, err)
	assert.Contains(t, stdout, "execution failed at BAKE_CAKE")
}

func TestSimulateCommand_TickLimit(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, NewSimulateCommand(config.NewConfig()), "-ticks", "5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\nSimulated 5 tick(s): 0 of 1 baker(s) baked a cake\n")
	assert.Contains(t, stdout, "  baker-1: no cake\n")
}

func TestSimulateCommand_ManyBakers(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeySimulateAgents, "3")
	cfg.SetGlobalOption(config.KeyPlannerParallelism, "4")

	stdout, _, err := run(t, NewSimulateCommand(cfg))
	require.NoError(t, err)
	assert.Contains(t, stdout, "\nSimulated 19 tick(s): 3 of 3 baker(s) baked a cake\n")
	for _, name := range []string{"baker-1", "baker-2", "baker-3"} {
		assert.Contains(t, stdout, "  "+name+": baked on the 1st attempt\n")
	}

	stdout, _, err = run(t, NewSimulateCommand(cfg), "-agents", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 of 2 baker(s) baked a cake")
}

func TestSimulateCommand_Interval(t *testing.T) {
	t.Parallel()

	start := time.Now()
	stdout, _, err := run(t, NewSimulateCommand(config.NewConfig()), "-interval", "2ms")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\nSimulated 19 tick(s): 1 of 1 baker(s) baked a cake\n")
	assert.GreaterOrEqual(t, time.Since(start), 19*2*time.Millisecond)
}

func TestSimulateCommand_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := NewSimulateCommand(config.NewConfig())
	cmd.ctx = ctx

	stdout, _, err := run(t, cmd)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, stdout, "Simulated")

	cmd = NewSimulateCommand(config.NewConfig())
	cmd.ctx = ctx
	_, _, err = run(t, cmd, "-interval", "1ms")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSimulateCommand_InvalidSettings(t *testing.T) {
	t.Parallel()

	_, stderr, err := run(t, NewSimulateCommand(config.NewConfig()), "-agents", "-1")
	require.EqualError(t, err, "ticks and agents must be positive, got 200 and -1")
	assert.Contains(t, stderr, "invalid settings")

	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyPlannerReplan, "perhaps")
	_, _, err = run(t, NewSimulateCommand(cfg))
	require.ErrorContains(t, err, `option "planner.replan"`)

	cfg = config.NewConfig()
	cfg.SetCommandOption("simulate", "flaky", "burnt")
	_, _, err = run(t, NewSimulateCommand(cfg))
	require.ErrorContains(t, err, `option "flaky" in [simulate]`)

	_, _, err = run(t, NewSimulateCommand(config.NewConfig()), "-log-level", "loud")
	require.EqualError(t, err, "invalid log level: loud")

	_, _, err = run(t, NewSimulateCommand(config.NewConfig()), "surplus")
	require.EqualError(t, err, "unexpected arguments")
}

func TestSimulateCommand_LogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "goap.json")
	_, stderr, err := run(t, NewSimulateCommand(config.NewConfig()), "-log-file", path, "-log-level", "debug")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"goap: plan found"`)
	assert.Contains(t, string(data), `"level":"DEBUG"`)
}
