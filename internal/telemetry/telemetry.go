// Package telemetry wraps the span-and-counter bookkeeping shared by the
// synchronizers.
package telemetry

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Providers carries the OpenTelemetry providers. Nil fields fall back to
// noop implementations.
type Providers struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Ops records one span and one counter increment per operation.
type Ops struct {
	tracer  trace.Tracer
	counter metric.Int64Counter
}

// NewOps creates Ops for the named instrumentation scope.
func NewOps(scope string, p Providers) (*Ops, error) {
	tp := p.TracerProvider
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	mp := p.MeterProvider
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}

	counter, err := mp.Meter(scope).Int64Counter("storefront.sync.operations",
		metric.WithDescription("Synchronizer operations by op and result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create operations counter")
	}
	return &Ops{
		tracer:  tp.Tracer(scope),
		counter: counter,
	}, nil
}

// Start opens a span named op. The returned function must be called exactly
// once with the operation's outcome.
func (o *Ops) Start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := o.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		o.counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("result", result),
		))
		span.End()
	}
}
