package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/goap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewHelpCommand(r))
	r.Register(NewVersionCommand("1.2.3"))
	r.Register(NewConfigCommand(config.NewConfig(), ""))
	r.Register(NewInitCommand())
	r.Register(NewDomainCommand(config.NewConfig()))
	r.Register(NewSimulateCommand(config.NewConfig()))
	return r
}

func TestHelpCommand(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	help, err := r.Get("help")
	require.NoError(t, err)

	t.Run("general", func(t *testing.T) {
		stdout, _, err := run(t, help)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Usage: goap <command> [options] [args...]")
		for _, name := range []string{"config", "domain", "help", "init", "simulate", "version"} {
			assert.Contains(t, stdout, "  "+name+"  ", name)
		}
		assert.Less(t, strings.Index(stdout, "  config"), strings.Index(stdout, "  version"))
	})

	t.Run("command with flags", func(t *testing.T) {
		stdout, _, err := run(t, help, "simulate")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Command: simulate\n")
		assert.Contains(t, stdout, "Usage: simulate [options]\n")
		assert.Contains(t, stdout, "\nFlags:\n")
		for _, f := range []string{"-agents", "-flaky", "-interval", "-log-file", "-log-level", "-ticks"} {
			assert.Contains(t, stdout, f)
		}
	})

	t.Run("command without flags", func(t *testing.T) {
		stdout, _, err := run(t, help, "version")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Command: version\n")
		assert.NotContains(t, stdout, "Flags:")
	})

	t.Run("unknown command", func(t *testing.T) {
		_, stderr, err := run(t, help, "bogus")
		require.EqualError(t, err, "command not found: bogus")
		assert.Equal(t, "Unknown command: bogus\n", stderr)
	})
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCommand("1.2.3")
	stdout, _, err := run(t, cmd)
	require.NoError(t, err)
	assert.Equal(t, "goap version 1.2.3\n", stdout)

	_, stderr, err := run(t, cmd, "extra")
	require.Error(t, err)
	assert.Contains(t, stderr, "unexpected arguments")
}

func TestConfigCommand_Show(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyPlannerReplan, "false")
	cfg.SetGlobalOption(config.KeyLogLevel, "warn")
	cfg.SetCommandOption("simulate", "flaky", "true")
	cfg.SetCommandOption("domain", "format", "json")

	stdout, _, err := run(t, NewConfigCommand(cfg, ""), "--global")
	require.NoError(t, err)
	assert.Equal(t, "Global configuration:\n  log.level: warn\n  planner.replan: false\n", stdout)

	stdout, _, err = run(t, NewConfigCommand(cfg, ""), "--all")
	require.NoError(t, err)
	assert.Equal(t, "Global configuration:\n  log.level: warn\n  planner.replan: false\n"+
		"\nCommand-specific configuration:\n  [domain]\n    format: json\n  [simulate]\n    flaky: true\n", stdout)

	stdout, _, err = run(t, NewConfigCommand(cfg, ""))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration management:")
}

func TestConfigCommand_Get(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyLogFile, "")
	cmd := NewConfigCommand(cfg, "")

	stdout, _, err := run(t, cmd, config.KeySimulateTicks)
	require.NoError(t, err)
	assert.Equal(t, "simulate.ticks: 200\n", stdout)

	stdout, _, err = run(t, cmd, config.KeyLogFile)
	require.NoError(t, err)
	assert.Equal(t, "log.file: \n", stdout)

	stdout, _, err = run(t, cmd, "no.such.key")
	require.NoError(t, err)
	assert.Equal(t, "Configuration key 'no.such.key' not found\n", stdout)
}

func TestConfigCommand_Set(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config")
	cfg := config.NewConfig()

	stdout, stderr, err := run(t, NewConfigCommand(cfg, path), config.KeySimulateAgents, "3")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, "Set configuration: simulate.agents = 3\n", stdout)

	v, ok := cfg.GetGlobalOption(config.KeySimulateAgents)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	onDisk, err := config.LoadFromPath(path)
	require.NoError(t, err)
	v, ok = onDisk.GetGlobalOption(config.KeySimulateAgents)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	_, stderr, err = run(t, NewConfigCommand(cfg, path), "a", "b", "c")
	require.EqualError(t, err, "invalid arguments")
	assert.Equal(t, "Invalid number of arguments\n", stderr)
}

func TestConfigCommand_ValidateAndSchema(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	stdout, _, err := run(t, NewConfigCommand(cfg, ""), "validate")
	require.NoError(t, err)
	assert.Equal(t, "Configuration is valid.\n", stdout)

	cfg.SetGlobalOption(config.KeySimulateTicks, "forever")
	cfg.SetGlobalOption("colour", "red")
	stdout, _, err = run(t, NewConfigCommand(cfg, ""), "validate")
	require.NoError(t, err)
	assert.Equal(t, "Configuration has 2 issue(s):\n"+
		"  - global option \"simulate.ticks\": expected int, got \"forever\"\n"+
		"  - unknown global option: \"colour\" (value: \"red\")\n", stdout)

	stdout, _, err = run(t, NewConfigCommand(cfg, ""), "schema")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSchema().FormatHelp(), stdout)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goap", "config")
	t.Setenv(config.EnvConfigPath, path)

	stdout, stderr, err := run(t, NewInitCommand())
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, "Initialized goap configuration at: "+path+"\n", stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigFile, string(data))

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.False(t, cfg.HasWarnings(), "%v", cfg.Warnings)

	require.NoError(t, os.WriteFile(path, []byte("log.level debug\n"), 0644))
	stdout, _, err = run(t, NewInitCommand())
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration already exists at: "+path)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "log.level debug\n", string(data))

	_, _, err = run(t, NewInitCommand(), "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigFile, string(data))
}
