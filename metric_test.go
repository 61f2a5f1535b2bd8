package msgbus

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newInstrumentedRegistry(t *testing.T, opts ...Option) (*Registry, *sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() {
		mp.Shutdown(context.Background())
		tp.Shutdown(context.Background())
	})

	base := []Option{
		WithName("instrumented"),
		WithMeterProvider(mp),
		WithTracerProvider(tp),
	}
	return NewRegistry(append(base, opts...)...), reader, spans
}

// sumOf adds up all data points of an int64 sum instrument
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s has unexpected data %T", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestPublishMetrics(t *testing.T) {
	ctx := context.Background()
	r, reader, _ := newInstrumentedRegistry(t)
	bus := For[Ping](r)

	a, b := NewRecorder[Ping](nil), NewRecorder[Ping](nil)
	bus.Subscribe(a)
	bus.Subscribe(b)
	bus.Publish(ctx, Ping{ID: 1})
	bus.Publish(ctx, Ping{ID: 2})

	if got := sumOf(t, reader, "msgbus.published"); got != 2 {
		t.Errorf("expected 2 published, got %d", got)
	}
	if got := sumOf(t, reader, "msgbus.delivered"); got != 4 {
		t.Errorf("expected 4 delivered, got %d", got)
	}
	if got := sumOf(t, reader, "msgbus.subscribers"); got != 2 {
		t.Errorf("expected 2 subscribers, got %d", got)
	}

	bus.Unsubscribe(a)
	r.ClearAll(ctx)
	if got := sumOf(t, reader, "msgbus.subscribers"); got != 0 {
		t.Errorf("expected 0 subscribers, got %d", got)
	}
	if got := sumOf(t, reader, "msgbus.cleared"); got != 1 {
		t.Errorf("expected 1 cleared, got %d", got)
	}
}

func TestPublishSpans(t *testing.T) {
	ctx := context.Background()
	r, _, spans := newInstrumentedRegistry(t)
	bus := For[Ping](r)
	errBoom := errors.New("boom")

	bus.Subscribe(NewRecorder[Ping](nil))
	bus.Publish(ctx, Ping{ID: 1})

	bus.Subscribe(NewRecorder[Ping](func(context.Context, Ping) error { return errBoom }))
	bus.Publish(ctx, Ping{ID: 2})

	ended := spans.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(ended))
	}
	if ended[0].Name() != "msgbus.Ping.publish" {
		t.Errorf("unexpected span name %q", ended[0].Name())
	}
	if ended[0].Status().Code == codes.Error {
		t.Error("expected first publish span without error")
	}
	if ended[1].Status().Code != codes.Error {
		t.Errorf("expected error status on failed publish, got %v", ended[1].Status().Code)
	}
}

func TestTelemetryDisabled(t *testing.T) {
	ctx := context.Background()
	r, reader, spans := newInstrumentedRegistry(t, WithTracing(false), WithMetrics(false))
	bus := For[Ping](r)
	bus.Subscribe(NewRecorder[Ping](nil))
	bus.Publish(ctx, Ping{ID: 1})

	if len(spans.Ended()) != 0 {
		t.Errorf("expected no spans, got %d", len(spans.Ended()))
	}
	if got := sumOf(t, reader, "msgbus.published"); got != 0 {
		t.Errorf("expected no published metric, got %d", got)
	}
}
