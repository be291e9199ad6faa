package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/joeycumines/goap/internal/config"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "goap - goal-oriented action planning, one tick at a time")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: goap <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Available commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'goap help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmdName := args[0]
	cmd, err := c.registry.Get(cmdName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", cmdName)
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: %s\n", cmd.Usage())

	// a throwaway FlagSet collects the command's flag defaults
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}

	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

// Execute displays version information.
func (c *VersionCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if err := rejectArgs(args, stderr); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "goap version %s\n", c.version)
	return nil
}

// ConfigCommand manages configuration.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	showGlobal bool
	showAll    bool
}

// NewConfigCommand creates a new config command. If configPath is empty,
// set values are persisted to the default config path when it resolves.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings",
			"config [options] [key] [value]",
		),
		config:     cfg,
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the config command.
func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.showGlobal, "global", false, "Show only global configuration")
	fs.BoolVar(&c.showAll, "all", false, "Show all configuration (global and command-specific)")
}

// Execute manages configuration.
func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		switch {
		case c.showAll:
			c.printGlobal(stdout)
			_, _ = fmt.Fprintln(stdout, "\nCommand-specific configuration:")
			for _, section := range sortedKeys(c.config.Commands) {
				_, _ = fmt.Fprintf(stdout, "  [%s]\n", section)
				options := c.config.Commands[section]
				for _, key := range sortedKeys(options) {
					_, _ = fmt.Fprintf(stdout, "    %s: %s\n", key, options[key])
				}
			}
		case c.showGlobal:
			c.printGlobal(stdout)
		default:
			_, _ = fmt.Fprintln(stdout, "Configuration management:")
			_, _ = fmt.Fprintln(stdout, "  config <key>          - Get configuration value")
			_, _ = fmt.Fprintln(stdout, "  config <key> <value>  - Set configuration value")
			_, _ = fmt.Fprintln(stdout, "  config --global       - Show global configuration")
			_, _ = fmt.Fprintln(stdout, "  config --all          - Show all configuration")
			_, _ = fmt.Fprintln(stdout, "  config validate       - Validate configuration")
			_, _ = fmt.Fprintln(stdout, "  config schema         - Show configuration schema")
		}
		return nil
	}

	switch args[0] {
	case "validate":
		return c.executeValidate(stdout)
	case "schema":
		_, _ = fmt.Fprint(stdout, config.DefaultSchema().FormatHelp())
		return nil
	}

	switch len(args) {
	case 1:
		// env, then file, then schema default
		key := args[0]
		value := config.DefaultSchema().Resolve(c.config, key)
		if _, exists := c.config.GetGlobalOption(key); value != "" || exists {
			_, _ = fmt.Fprintf(stdout, "%s: %s\n", key, value)
		} else {
			_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", key)
		}
		return nil

	case 2:
		key, value := args[0], args[1]
		c.config.SetGlobalOption(key, value)

		configPath := c.configPath
		if configPath == "" {
			configPath, _ = config.GetConfigPath()
		}
		if configPath != "" {
			if err := config.SetKeyInFile(configPath, key, value); err != nil {
				_, _ = fmt.Fprintf(stderr, "Warning: failed to persist config to disk: %v\n", err)
			}
		}

		_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", key, value)
		return nil
	}

	_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
	return fmt.Errorf("invalid arguments")
}

func (c *ConfigCommand) printGlobal(stdout io.Writer) {
	_, _ = fmt.Fprintln(stdout, "Global configuration:")
	for _, key := range sortedKeys(c.config.Global) {
		_, _ = fmt.Fprintf(stdout, "  %s: %s\n", key, c.config.Global[key])
	}
}

func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, config.DefaultSchema())
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

const defaultConfigFile = `# goap configuration file
# Format: optionName remainingLineIsTheValue
# Use [command_name] sections for command-specific options

# Logging: debug, info, warn or error. Set log.file to write JSON logs.
log.level info
# log.file /tmp/goap.log

# Planner
planner.parallelism 1
planner.replan true
planner.retry-failed true

# Simulation defaults
simulate.ticks 200
simulate.agents 1
# simulate.interval 100ms

[domain]
format text

[simulate]
flaky false
`

// InitCommand writes a default configuration file.
type InitCommand struct {
	*BaseCommand
	force bool
}

// NewInitCommand creates a new init command.
func NewInitCommand() *InitCommand {
	return &InitCommand{
		BaseCommand: NewBaseCommand(
			"init",
			"Write a default goap configuration file",
			"init [options]",
		),
	}
}

// SetupFlags configures the flags for the init command.
func (c *InitCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Overwrite an existing configuration file")
}

// Execute initializes the environment.
func (c *InitCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if err := rejectArgs(args, stderr); err != nil {
		return err
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil && !c.force {
		_, _ = fmt.Fprintf(stdout, "Configuration already exists at: %s\n", configPath)
		_, _ = fmt.Fprintln(stdout, "Use --force to overwrite existing configuration")
		return nil
	}

	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigFile), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: Failed to load created config: %v\n", err)
	} else if cfg.HasWarnings() {
		_, _ = fmt.Fprintf(stderr, "Warning: created config has %d issue(s)\n", len(cfg.Warnings))
	}

	_, _ = fmt.Fprintf(stdout, "Initialized goap configuration at: %s\n", configPath)
	return nil
}
