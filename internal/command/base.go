// Package command implements the goap CLI subcommands. Each command parses
// its own flag.FlagSet and writes to the writers it is given, so commands are
// testable without touching the process's stdio.
package command

import (
	"flag"
	"fmt"
	"io"
)

// Command is a CLI subcommand.
type Command interface {
	// Name returns the command name.
	Name() string

	// Description returns a short description of the command.
	Description() string

	// Usage returns the usage string for the command.
	Usage() string

	// SetupFlags registers command-specific flags on fs.
	SetupFlags(fs *flag.FlagSet)

	// Execute runs the command with the arguments left after flag parsing.
	Execute(args []string, stdout, stderr io.Writer) error
}

// BaseCommand implements the descriptive half of Command, for embedding.
type BaseCommand struct {
	name        string
	description string
	usage       string
}

// NewBaseCommand creates a new BaseCommand.
func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{
		name:        name,
		description: description,
		usage:       usage,
	}
}

func (c *BaseCommand) Name() string { return c.name }

func (c *BaseCommand) Description() string { return c.description }

func (c *BaseCommand) Usage() string { return c.usage }

// SetupFlags registers no flags.
func (c *BaseCommand) SetupFlags(*flag.FlagSet) {}

// rejectArgs fails if a command that takes no positional arguments got some.
func rejectArgs(args []string, stderr io.Writer) error {
	if len(args) == 0 {
		return nil
	}
	_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
	return fmt.Errorf("unexpected arguments")
}
