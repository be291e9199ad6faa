package command

import (
	"cmp"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/example/bakery"
	"github.com/joeycumines/goap/internal/goap"
	"gopkg.in/yaml.v3"
)

// DomainCommand prints the bakery domain's action catalogue.
type DomainCommand struct {
	*BaseCommand
	config *config.Config
	format string
}

// NewDomainCommand creates a new domain command.
func NewDomainCommand(cfg *config.Config) *DomainCommand {
	return &DomainCommand{
		BaseCommand: NewBaseCommand(
			"domain",
			"Show the bakery domain's actions and conditions",
			"domain [options]",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the domain command.
func (c *DomainCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", "", "Output format: text, json or yaml (default from config, else text)")
}

type catalogue struct {
	Domain     string           `json:"domain" yaml:"domain"`
	Sorted     bool             `json:"sorted" yaml:"sorted"`
	Actions    []catalogueEntry `json:"actions" yaml:"actions"`
	Conditions []conditionEntry `json:"conditions" yaml:"conditions"`
}

type catalogueEntry struct {
	ID            string   `json:"id" yaml:"id"`
	Cost          int      `json:"cost" yaml:"cost"`
	Effect        string   `json:"effect" yaml:"effect"`
	Preconditions []string `json:"preconditions,omitempty" yaml:"preconditions,omitempty"`
}

type conditionEntry struct {
	ID       string `json:"id" yaml:"id"`
	Resolver bool   `json:"resolver" yaml:"resolver"`
	// Achievers and Negators list candidate actions in search order.
	Achievers []string `json:"achievers,omitempty" yaml:"achievers,omitempty"`
	Negators  []string `json:"negators,omitempty" yaml:"negators,omitempty"`
}

// Execute prints the catalogue.
func (c *DomainCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if err := rejectArgs(args, stderr); err != nil {
		return err
	}

	format := c.format
	if format == "" {
		format = config.DefaultSchema().ResolveCommand(c.config, c.Name(), "format")
	}

	d, err := bakery.NewDomain(bakery.DefaultConfig())
	if err != nil {
		return fmt.Errorf("building domain: %w", err)
	}
	cat := newCatalogue(d)

	switch format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cat)
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cat); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		printCatalogue(stdout, cat)
		return nil
	default:
		_, _ = fmt.Fprintf(stderr, "unknown format: %s\n", format)
		return fmt.Errorf("unknown format %q", format)
	}
}

// newCatalogue lists actions in priority order: cheapest first when the
// domain is sorted, registration order otherwise.
func newCatalogue(d *goap.Domain) catalogue {
	cat := catalogue{Domain: d.ID(), Sorted: d.Sorted()}

	actions := d.Actions()
	if d.Sorted() {
		slices.SortStableFunc(actions, func(a, b goap.Action) int { return cmp.Compare(a.Cost, b.Cost) })
	}
	for _, a := range actions {
		entry := catalogueEntry{ID: string(a.ID), Cost: a.Cost, Effect: a.Effect.String()}
		for _, p := range a.Preconditions {
			entry.Preconditions = append(entry.Preconditions, p.String())
		}
		cat.Actions = append(cat.Actions, entry)
	}

	for _, id := range d.Conditions() {
		entry := conditionEntry{ID: string(id), Resolver: d.HasResolver(id)}
		for _, a := range d.Candidates(goap.True(id)) {
			entry.Achievers = append(entry.Achievers, string(a.ID))
		}
		for _, a := range d.Candidates(goap.False(id)) {
			entry.Negators = append(entry.Negators, string(a.ID))
		}
		cat.Conditions = append(cat.Conditions, entry)
	}
	return cat
}

func printCatalogue(w io.Writer, cat catalogue) {
	_, _ = fmt.Fprintf(w, "Domain: %s (sorted: %t)\n\n", cat.Domain, cat.Sorted)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ACTION\tCOST\tEFFECT\tPRECONDITIONS")
	for _, a := range cat.Actions {
		pre := "-"
		if len(a.Preconditions) > 0 {
			pre = strings.Join(a.Preconditions, ", ")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", a.ID, a.Cost, a.Effect, pre)
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintln(w, "")
	tw = tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CONDITION\tRESOLVER\tACHIEVERS")
	for _, cond := range cat.Conditions {
		achievers := "-"
		if len(cond.Achievers) > 0 {
			achievers = strings.Join(cond.Achievers, ", ")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%t\t%s\n", cond.ID, cond.Resolver, achievers)
	}
	_ = tw.Flush()
}
