package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeycumines/goap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config at a fresh file so the developer's own
// configuration cannot leak into the test.
func isolate(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if contents != "" {
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	}
	t.Setenv(config.EnvConfigPath, path)
	t.Setenv("GOAP_LOG_LEVEL", "error")
	return path
}

func runArgs(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_Help(t *testing.T) {
	isolate(t, "")

	for _, args := range [][]string{nil, {"help"}, {"-h"}, {"--help"}} {
		stdout, _, err := runArgs(args...)
		require.NoError(t, err, args)
		assert.Contains(t, stdout, "Usage: goap <command>", args)
	}
}

func TestRun_Version(t *testing.T) {
	isolate(t, "")

	stdout, _, err := runArgs("version")
	require.NoError(t, err)
	assert.Equal(t, "goap version "+version+"\n", stdout)
}

func TestRun_UnknownCommand(t *testing.T) {
	isolate(t, "")

	_, stderr, err := runArgs("nonexistent")
	require.Error(t, err)
	assert.Contains(t, stderr, "Unknown command: nonexistent")
}

func TestRun_BadFlag(t *testing.T) {
	isolate(t, "")

	_, stderr, err := runArgs("simulate", "--no-such-flag")
	require.Error(t, err)
	assert.Contains(t, stderr, "Usage: simulate [options]")

	_, _, err = runArgs("simulate", "-h")
	require.ErrorIs(t, err, flag.ErrHelp)
}

func TestRun_Simulate(t *testing.T) {
	isolate(t, "simulate.ticks 100\n[simulate]\nflaky true\n")

	stdout, _, err := runArgs("simulate", "-agents", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Simulated 30 tick(s): 2 of 2 baker(s) baked a cake")
}

func TestRun_DomainFormatFromConfig(t *testing.T) {
	isolate(t, "[domain]\nformat yaml\n")

	stdout, _, err := runArgs("domain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "domain: bakery\n")
}

func TestRun_ConfigSetPersists(t *testing.T) {
	path := isolate(t, "")

	_, _, err := runArgs("config", config.KeyPlannerParallelism, "8")
	require.NoError(t, err)

	stdout, _, err := runArgs("config", config.KeyPlannerParallelism)
	require.NoError(t, err)
	assert.Equal(t, "planner.parallelism: 8\n", stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "planner.parallelism 8", string(data))
}

func TestRun_ConfigSymlinkIgnored(t *testing.T) {
	target := filepath.Join(t.TempDir(), "target")
	require.NoError(t, os.WriteFile(target, []byte("simulate.ticks 3\n"), 0644))
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	t.Setenv(config.EnvConfigPath, link)

	stdout, stderr, err := runArgs("config", config.KeySimulateTicks)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning: ignoring configuration")
	assert.Equal(t, "simulate.ticks: 200\n", stdout)
}
