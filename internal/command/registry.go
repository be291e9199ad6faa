package command

import (
	"fmt"
	"sort"
)

// Registry manages the collection of available commands.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd, replacing any command with the same name.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Get returns a command by name.
func (r *Registry) Get(name string) (Command, error) {
	if cmd, exists := r.commands[name]; exists {
		return cmd, nil
	}
	return nil, fmt.Errorf("command not found: %s", name)
}

// List returns the names of all registered commands, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
