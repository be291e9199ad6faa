package goap

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/joeycumines/goap/internal/goap"

// plannerMetrics holds the OpenTelemetry instruments of one Planner.
type plannerMetrics struct {
	// plans counts finished plan requests, by status and goal index.
	plans metric.Int64Counter
	// planLength records the action count of successful plans.
	planLength metric.Int64Histogram
	// planTicks records the search steps taken by finished plan requests.
	planTicks metric.Int64Histogram
	// executions counts finished executions, by status.
	executions metric.Int64Counter
	// resolvers counts resolutions started.
	resolvers metric.Int64Counter
}

func newPlannerMetrics(meter metric.Meter) (*plannerMetrics, error) {
	m := &plannerMetrics{}
	var err error

	m.plans, err = meter.Int64Counter(
		"goap.plan.requests",
		metric.WithDescription("Finished plan requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create plan counter: %w", err)
	}

	m.planLength, err = meter.Int64Histogram(
		"goap.plan.length",
		metric.WithDescription("Number of actions in successful plans"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create plan length histogram: %w", err)
	}

	m.planTicks, err = meter.Int64Histogram(
		"goap.plan.ticks",
		metric.WithDescription("Search steps taken by finished plan requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create plan ticks histogram: %w", err)
	}

	m.executions, err = meter.Int64Counter(
		"goap.execution.outcomes",
		metric.WithDescription("Finished plan executions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create execution counter: %w", err)
	}

	m.resolvers, err = meter.Int64Counter(
		"goap.resolver.started",
		metric.WithDescription("Condition resolutions started"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create resolver counter: %w", err)
	}

	return m, nil
}

func initTelemetry(o *options) (*plannerMetrics, trace.Tracer, error) {
	mp := o.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	m, err := newPlannerMetrics(mp.Meter(instrumentationName))
	if err != nil {
		// fall back to no-op instruments so planning never depends on telemetry
		m, _ = newPlannerMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return m, tp.Tracer(instrumentationName), err
}

func (m *plannerMetrics) recordPlan(ctx context.Context, req *PlanRequest) {
	status := req.Status()
	m.plans.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status.String()),
		attribute.Int("goal", req.FallbackIndex()),
		attribute.String("domain", req.domain.id),
	))
	m.planTicks.Record(ctx, int64(req.Ticks()))
	if status == Success {
		m.planLength.Record(ctx, int64(len(req.result)))
	}
}

func (m *plannerMetrics) recordExecution(ctx context.Context, exec *PlanExecution) {
	m.executions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", exec.Status().String()),
		attribute.String("domain", exec.domain.id),
	))
}

func endPlanSpan(req *PlanRequest) {
	span := req.span
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.String("goap.status", req.Status().String()),
		attribute.Int("goap.goal", req.FallbackIndex()),
		attribute.Int("goap.ticks", req.Ticks()),
		attribute.Int("goap.plan.length", len(req.result)),
	)
	if req.Status() == Success {
		span.SetStatus(codes.Ok, "plan found")
	} else {
		span.SetStatus(codes.Error, "no plan")
	}
	span.End()
}
