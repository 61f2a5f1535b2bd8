package msgbus

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/rbaliyan/msgbus"

const (
	spanKeyMessageType = "msgbus.message_type"
	spanKeyBusID       = "msgbus.bus_id"
	spanKeyRegistry    = "msgbus.registry"
	spanKeySubscribers = "msgbus.subscribers"
	spanKeyDelivered   = "msgbus.delivered"
)

// telemetry holds the tracer and instruments shared by all buses of a registry.
// Disabled concerns use noop implementations.
type telemetry struct {
	registry    string
	tracer      trace.Tracer
	published   metric.Int64Counter
	delivered   metric.Int64Counter
	cleared     metric.Int64Counter
	subscribers metric.Int64UpDownCounter
}

func newTelemetry(o *options) *telemetry {
	t := &telemetry{registry: o.name}

	if o.tracingEnabled {
		t.tracer = o.tracerProvider.Tracer(instrumentationName)
	} else {
		t.tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}

	var meter metric.Meter
	if o.metricsEnabled {
		meter = o.meterProvider.Meter(instrumentationName)
	} else {
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}

	// Instrument creation only fails on invalid names; fall back to noop.
	var err error
	if t.published, err = meter.Int64Counter("msgbus.published",
		metric.WithDescription("Total number of messages published"),
		metric.WithUnit("{message}")); err != nil {
		t.published = metricnoop.Int64Counter{}
	}
	if t.delivered, err = meter.Int64Counter("msgbus.delivered",
		metric.WithDescription("Total number of subscriber deliveries"),
		metric.WithUnit("{delivery}")); err != nil {
		t.delivered = metricnoop.Int64Counter{}
	}
	if t.cleared, err = meter.Int64Counter("msgbus.cleared",
		metric.WithDescription("Total number of subscriptions removed by clear-all"),
		metric.WithUnit("{subscription}")); err != nil {
		t.cleared = metricnoop.Int64Counter{}
	}
	if t.subscribers, err = meter.Int64UpDownCounter("msgbus.subscribers",
		metric.WithDescription("Current number of subscriptions"),
		metric.WithUnit("{subscription}")); err != nil {
		t.subscribers = metricnoop.Int64UpDownCounter{}
	}
	return t
}

func (t *telemetry) attrs(busName string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("registry", t.registry),
		attribute.String("message_type", busName))
}

// startPublish opens the producer span for one fan-out
func (t *telemetry) startPublish(ctx context.Context, busName, busID string, subscribers int) (context.Context, trace.Span) {
	t.published.Add(ctx, 1, t.attrs(busName))
	return t.tracer.Start(ctx, busName+".publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String(spanKeyMessageType, busName),
			attribute.String(spanKeyBusID, busID),
			attribute.String(spanKeyRegistry, t.registry),
			attribute.Int(spanKeySubscribers, subscribers)))
}

// endPublish records the outcome of a fan-out and closes its span
func (t *telemetry) endPublish(ctx context.Context, span trace.Span, busName string, delivered int, err error) {
	if delivered > 0 {
		t.delivered.Add(ctx, int64(delivered), t.attrs(busName))
	}
	span.SetAttributes(attribute.Int(spanKeyDelivered, delivered))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *telemetry) subscribed(ctx context.Context, busName string, delta int) {
	if delta != 0 {
		t.subscribers.Add(ctx, int64(delta), t.attrs(busName))
	}
}
