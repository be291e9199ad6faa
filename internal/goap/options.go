package goap

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Planner.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	parallelism    int
	replan         bool
	retryFailed    bool
	observer       Observer
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

func defaultOptions() options {
	return options{
		parallelism: 1,
		replan:      true,
		retryFailed: true,
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithParallelism sets how many agents each tick phase advances
// concurrently. Values below 2 advance agents sequentially, in the order
// they were first given a plan request.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// WithReplan controls whether a finished execution spawns a fresh plan
// request for its agent. Enabled by default.
func WithReplan(enabled bool) Option {
	return func(o *options) { o.replan = enabled }
}

// WithRetryFailed controls whether a failed plan request is replaced by a
// fresh one, searched from the next tick. Enabled by default, so a goal that
// cannot currently be reached is retried until the world changes.
func WithRetryFailed(enabled bool) Option {
	return func(o *options) { o.retryFailed = enabled }
}

// WithObserver registers hooks for plan and execution outcomes.
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}

// WithMeterProvider sets the OpenTelemetry meter provider. The default is
// the global provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = provider }
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The default is
// the global provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = provider }
}

// Observer receives plan and execution outcomes. Methods are called from
// inside Planner.Tick, possibly concurrently for different agents, and must
// not call back into the Planner.
type Observer interface {
	PlanFinished(req *PlanRequest)
	ExecutionFinished(exec *PlanExecution)
}

// ObserverFuncs is a function-backed Observer. Nil fields are ignored.
type ObserverFuncs struct {
	OnPlanFinished      func(req *PlanRequest)
	OnExecutionFinished func(exec *PlanExecution)
}

func (o ObserverFuncs) PlanFinished(req *PlanRequest) {
	if o.OnPlanFinished != nil {
		o.OnPlanFinished(req)
	}
}

func (o ObserverFuncs) ExecutionFinished(exec *PlanExecution) {
	if o.OnExecutionFinished != nil {
		o.OnExecutionFinished(exec)
	}
}
