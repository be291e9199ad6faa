package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeDuration is a Go time.Duration value (e.g. "30s", "5m", "1h").
	TypeDuration OptionType = "duration"
)

// Option keys.
const (
	KeyLogLevel           = "log.level"
	KeyLogFile            = "log.file"
	KeyPlannerParallelism = "planner.parallelism"
	KeyPlannerReplan      = "planner.replan"
	KeyPlannerRetryFailed = "planner.retry-failed"
	KeySimulateTicks      = "simulate.ticks"
	KeySimulateInterval   = "simulate.interval"
	KeySimulateAgents     = "simulate.agents"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file.
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Default is the default value as a string, or "" for no default.
	Default string
	// Allowed restricts string values to a fixed set, if non-empty.
	Allowed []string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a command name.
	Section string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
}

// ConfigSchema declares the expected configuration options. It drives
// validation, documentation and env var resolution.
type ConfigSchema struct {
	options   []*ConfigOption
	byKey     map[string]*ConfigOption
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds a ConfigOption to the schema. The last registration of a key
// within a section wins.
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
		return
	}
	if s.bySection[opt.Section] == nil {
		s.bySection[opt.Section] = make(map[string]*ConfigOption)
	}
	s.bySection[opt.Section][opt.Key] = ref
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the ConfigOption for a key in a given section ("" for global).
// Returns nil if the key is not registered.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	if sec, ok := s.bySection[section]; ok {
		return sec[key]
	}
	return nil
}

// IsKnown returns true if the key is registered in the given section. Global
// keys are known in every command section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if section != "" && s.Lookup(section, key) != nil {
		return true
	}
	return s.byKey[key] != nil
}

// GlobalOptions returns all registered global options.
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	return s.SectionOptions("")
}

// SectionOptions returns all registered options for a specific section.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted names of all sections with options.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value for a global key by checking, in
// order: the option's environment variable, the config value, the schema
// default. Returns "" if the key is not found anywhere.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if c != nil {
		if v, ok := c.GetGlobalOption(key); ok {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ResolveBool is Resolve parsed as a bool.
func (s *ConfigSchema) ResolveBool(c *Config, key string) (bool, error) {
	v := s.Resolve(c, key)
	b, err := parseBool(v)
	if err != nil {
		return false, fmt.Errorf("option %q: %w", key, err)
	}
	return b, nil
}

// ResolveInt is Resolve parsed as an int.
func (s *ConfigSchema) ResolveInt(c *Config, key string) (int, error) {
	v := s.Resolve(c, key)
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option %q: expected int, got %q", key, v)
	}
	return i, nil
}

// ResolveDuration is Resolve parsed as a time.Duration. An empty value is 0.
func (s *ConfigSchema) ResolveDuration(c *Config, key string) (time.Duration, error) {
	v := s.Resolve(c, key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("option %q: expected duration, got %q", key, v)
	}
	return d, nil
}

// ResolveCommand returns the effective value of key for command section:
// the [section] value, then the section's schema default, then Resolve.
func (s *ConfigSchema) ResolveCommand(c *Config, section, key string) string {
	if c != nil {
		if v, ok := c.Commands[section][key]; ok {
			return v
		}
	}
	if opt := s.Lookup(section, key); opt != nil {
		return opt.Default
	}
	return s.Resolve(c, key)
}

// ResolveCommandBool is ResolveCommand parsed as a bool.
func (s *ConfigSchema) ResolveCommandBool(c *Config, section, key string) (bool, error) {
	b, err := parseBool(s.ResolveCommand(c, section, key))
	if err != nil {
		return false, fmt.Errorf("option %q in [%s]: %w", key, section, err)
	}
	return b, nil
}

// ValidateConfig checks a loaded Config against the schema and returns a
// sorted list of human-readable issues: unknown options, and values that do
// not match their declared type or allowed set.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateValue(opt, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Commands {
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
				continue
			}
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if err := validateValue(opt, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

func validateValue(opt *ConfigOption, value string) error {
	switch opt.Type {
	case TypeString, "":
		if len(opt.Allowed) > 0 && !slices.Contains(opt.Allowed, value) {
			return fmt.Errorf("expected one of %s, got %q", strings.Join(opt.Allowed, ", "), value)
		}
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", opt.Type)
	}
	return nil
}

// FormatHelp returns a human-readable reference of all registered options,
// grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	if globals := s.GlobalOptions(); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-25s %s", o.Key, o.Description)
	parts := make([]string, 0, 4)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if len(o.Allowed) > 0 {
		parts = append(parts, fmt.Sprintf("one of: %s", strings.Join(o.Allowed, "|")))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %s", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// DefaultSchema returns the schema of every option goap understands.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: KeyLogLevel, Default: "info", Allowed: []string{"debug", "info", "warn", "error"},
			Description: "Log level", EnvVar: "GOAP_LOG_LEVEL"},
		{Key: KeyLogFile, Description: "Log file path (JSON output); logs go to stderr if unset",
			EnvVar: "GOAP_LOG_FILE"},

		{Key: KeyPlannerParallelism, Type: TypeInt, Default: "1",
			Description: "Agents advanced concurrently within a tick phase"},
		{Key: KeyPlannerReplan, Type: TypeBool, Default: "true",
			Description: "Start a new plan request when an execution finishes"},
		{Key: KeyPlannerRetryFailed, Type: TypeBool, Default: "true",
			Description: "Retry planning on the next tick when no goal is reachable"},

		{Key: KeySimulateTicks, Type: TypeInt, Default: "200",
			Description: "Maximum ticks run by the simulate command"},
		{Key: KeySimulateInterval, Type: TypeDuration, Default: "",
			Description: "Wall-clock interval between simulated ticks; 0 runs flat out"},
		{Key: KeySimulateAgents, Type: TypeInt, Default: "1",
			Description: "Number of bakers in the simulation"},

		{Key: "format", Section: "domain", Default: "text", Allowed: []string{"text", "json", "yaml"},
			Description: "Output format of the domain command"},
		{Key: "flaky", Section: "simulate", Type: TypeBool, Default: "false",
			Description: "Burn the first cake of every baker"},
	})
	return s
}
