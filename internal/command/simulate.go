package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/example/bakery"
	"github.com/joeycumines/goap/internal/goap"
)

// SimulateCommand runs the bakery scenario.
type SimulateCommand struct {
	*BaseCommand
	config *config.Config

	ticks    int
	interval time.Duration
	agents   int
	flaky    bool
	logFile  string
	logLevel string

	// ctx is the parent context; nil means context.Background.
	ctx context.Context
}

// NewSimulateCommand creates a new simulate command.
func NewSimulateCommand(cfg *config.Config) *SimulateCommand {
	return &SimulateCommand{
		BaseCommand: NewBaseCommand(
			"simulate",
			"Run bakers through the bakery domain and print what they plan and do",
			"simulate [options]",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the simulate command.
func (c *SimulateCommand) SetupFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.ticks, "ticks", 0, "Maximum number of ticks (default from config)")
	fs.DurationVar(&c.interval, "interval", 0, "Wall-clock time between ticks; 0 runs flat out (default from config)")
	fs.IntVar(&c.agents, "agents", 0, "Number of bakers (default from config)")
	fs.BoolVar(&c.flaky, "flaky", false, "Burn every baker's first cake")
	fs.StringVar(&c.logFile, "log-file", "", "Write JSON logs to this file")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

type simulateSettings struct {
	ticks       int
	interval    time.Duration
	agents      int
	flaky       bool
	parallelism int
	replan      bool
	retryFailed bool
}

func (c *SimulateCommand) settings() (simulateSettings, error) {
	schema := config.DefaultSchema()
	var (
		s   simulateSettings
		err error
	)

	resolveInt := func(flagValue int, key string) (int, error) {
		if flagValue != 0 {
			return flagValue, nil
		}
		return schema.ResolveInt(c.config, key)
	}
	if s.ticks, err = resolveInt(c.ticks, config.KeySimulateTicks); err != nil {
		return s, err
	}
	if s.agents, err = resolveInt(c.agents, config.KeySimulateAgents); err != nil {
		return s, err
	}
	if s.parallelism, err = schema.ResolveInt(c.config, config.KeyPlannerParallelism); err != nil {
		return s, err
	}
	if s.ticks < 1 || s.agents < 1 {
		return s, fmt.Errorf("ticks and agents must be positive, got %d and %d", s.ticks, s.agents)
	}

	s.interval = c.interval
	if s.interval == 0 {
		if s.interval, err = schema.ResolveDuration(c.config, config.KeySimulateInterval); err != nil {
			return s, err
		}
	}
	if s.replan, err = schema.ResolveBool(c.config, config.KeyPlannerReplan); err != nil {
		return s, err
	}
	if s.retryFailed, err = schema.ResolveBool(c.config, config.KeyPlannerRetryFailed); err != nil {
		return s, err
	}

	s.flaky = c.flaky
	if !s.flaky {
		if s.flaky, err = schema.ResolveCommandBool(c.config, c.Name(), "flaky"); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Execute runs the simulation until every baker has a cake or the tick limit
// is reached.
func (c *SimulateCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if err := rejectArgs(args, stderr); err != nil {
		return err
	}

	s, err := c.settings()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid settings: %v\n", err)
		return err
	}

	lc, err := resolveLogConfig(c.logFile, c.logLevel, c.config)
	if err != nil {
		return err
	}
	defer lc.Close()
	logger := lc.logger(stderr)

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sim, err := newSimulation(s, stdout, logger)
	if err != nil {
		return err
	}
	if err := sim.run(ctx, s.interval); err != nil {
		return err
	}
	sim.summarize()
	return nil
}

type simulation struct {
	planner  *goap.Planner
	agents   []*goap.Agent
	maxTicks int
	ticks    int

	// tick is the 1-based tick in progress, read by the observer.
	tick atomic.Int64

	mu        sync.Mutex
	out       io.Writer
	plans     int
	noPlans   int
	succeeded int
	failed    int
}

func newSimulation(s simulateSettings, out io.Writer, logger *slog.Logger) (*simulation, error) {
	cfg := bakery.DefaultConfig()
	cfg.Flaky = s.flaky
	cfg.Logger = logger
	d, err := bakery.NewDomain(cfg)
	if err != nil {
		return nil, fmt.Errorf("building domain: %w", err)
	}

	sim := &simulation{maxTicks: s.ticks, out: out}
	sim.planner = goap.NewPlanner(
		goap.WithLogger(logger),
		goap.WithParallelism(s.parallelism),
		goap.WithReplan(s.replan),
		goap.WithRetryFailed(s.retryFailed),
		goap.WithObserver(goap.ObserverFuncs{
			OnPlanFinished:      sim.planFinished,
			OnExecutionFinished: sim.executionFinished,
		}),
	)
	if err := sim.planner.RegisterDomain(d); err != nil {
		return nil, err
	}

	for i := range s.agents {
		agent := bakery.NewAgent(fmt.Sprintf("baker-%d", i+1))
		sim.agents = append(sim.agents, agent)
		sim.planner.CreatePlanRequest(agent)
	}
	return sim, nil
}

func (s *simulation) run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		for {
			if done, err := s.step(ctx); err != nil || done {
				return err
			}
		}
	}

	var stepErr error
	// Failure stops the ticker once the simulation is over.
	ticker := bt.NewTickerStopOnFailure(ctx, interval, bt.New(func([]bt.Node) (bt.Status, error) {
		done, err := s.step(ctx)
		if err != nil {
			stepErr = err
			return bt.Failure, nil
		}
		if done {
			return bt.Failure, nil
		}
		return bt.Success, nil
	}))
	<-ticker.Done()
	if stepErr != nil {
		return stepErr
	}
	return ctx.Err()
}

// step runs one tick, reporting whether the simulation is over.
func (s *simulation) step(ctx context.Context) (bool, error) {
	if s.finished() {
		return true, nil
	}
	s.tick.Store(int64(s.ticks + 1))
	if err := s.planner.Tick(ctx); err != nil {
		return true, err
	}
	s.ticks++
	return s.finished(), nil
}

func (s *simulation) finished() bool {
	return s.ticks >= s.maxTicks || s.baked() == len(s.agents)
}

func (s *simulation) baked() int {
	n := 0
	for _, agent := range s.agents {
		if bakery.Baked(agent) {
			n++
		}
	}
	return n
}

func (s *simulation) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "tick %4d  "+format+"\n", append([]any{s.tick.Load()}, args...)...)
}

func (s *simulation) planFinished(req *goap.PlanRequest) {
	if req.Canceled() {
		return
	}
	name := req.Agent().Name()
	if req.Status() != goap.Success {
		s.count(&s.noPlans)
		s.printf("%s: no plan after %d tick(s)", name, req.Ticks())
		return
	}
	s.count(&s.plans)
	plan := "(nothing to do)"
	if result := req.Result(); len(result) > 0 {
		steps := make([]string, len(result))
		for i, id := range result {
			steps[i] = string(id)
		}
		plan = strings.Join(steps, " -> ")
	}
	s.printf("%s: planned for goal %d in %d tick(s): %s", name, req.FallbackIndex(), req.Ticks(), plan)
}

func (s *simulation) executionFinished(exec *goap.PlanExecution) {
	if exec.Canceled() {
		return
	}
	name := exec.Request().Agent().Name()
	if exec.Status() == goap.Success {
		s.count(&s.succeeded)
		s.printf("%s: execution succeeded", name)
		return
	}
	s.count(&s.failed)
	action, _ := exec.FailedAction()
	s.printf("%s: execution failed at %s, compensated %d action(s)", name, action, len(exec.Attempted()))
}

func (s *simulation) count(n *int) {
	s.mu.Lock()
	*n++
	s.mu.Unlock()
}

func (s *simulation) summarize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.out, "\nSimulated %s tick(s): %d of %d baker(s) baked a cake\n",
		humanize.Comma(int64(s.ticks)), s.baked(), len(s.agents))
	_, _ = fmt.Fprintf(s.out, "Plans: %s found, %s without a plan. Executions: %s succeeded, %s failed\n",
		humanize.Comma(int64(s.plans)), humanize.Comma(int64(s.noPlans)),
		humanize.Comma(int64(s.succeeded)), humanize.Comma(int64(s.failed)))
	for _, agent := range s.agents {
		if !bakery.Baked(agent) {
			_, _ = fmt.Fprintf(s.out, "  %s: no cake\n", agent.Name())
			continue
		}
		attempts, _ := agent.State().Int(bakery.StateBakeAttempts)
		_, _ = fmt.Fprintf(s.out, "  %s: baked on the %s attempt\n", agent.Name(), humanize.Ordinal(attempts))
	}
}
