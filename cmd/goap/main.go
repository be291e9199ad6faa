// Command goap is the CLI for the goap planner: it shows the bundled bakery
// domain and simulates bakers planning and executing against it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/goap/internal/command"
	"github.com/joeycumines/goap/internal/config"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: ignoring configuration: %v\n", err)
		cfg = config.NewConfig()
	}

	registry := command.NewRegistry()
	helpCmd := command.NewHelpCommand(registry)
	registry.Register(helpCmd)
	registry.Register(command.NewVersionCommand(version))
	registry.Register(command.NewConfigCommand(cfg, ""))
	registry.Register(command.NewInitCommand())
	registry.Register(command.NewDomainCommand(cfg))
	registry.Register(command.NewSimulateCommand(cfg))

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		return helpCmd.Execute(nil, stdout, stderr)
	}

	cmdName := args[0]
	cmd, err := registry.Get(cmdName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", cmdName)
		_, _ = fmt.Fprintln(stderr, "Use 'goap help' to see available commands.")
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: %s\n", cmd.Usage())
		_, _ = fmt.Fprintf(stderr, "\n%s\n\n", cmd.Description())
		_, _ = fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	return cmd.Execute(fs.Args(), stdout, stderr)
}
