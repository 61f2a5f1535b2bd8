// Package msgbus provides an in-process, type-keyed publish/subscribe message bus.
//
// Every message type has exactly one Bus, owned by a Registry. Publishing a
// message delivers it synchronously, on the caller's goroutine, to every
// subscriber of that exact type. There is no queueing, no persistence and no
// delivery across processes.
//
// Basic example:
//
//	type Ping struct {
//	    msgbus.Marker
//	    ID int
//	}
//
//	type Listener struct{}
//
//	func (l *Listener) Receive(ctx context.Context, p Ping) error {
//	    fmt.Println("ping", p.ID)
//	    return nil
//	}
//
//	// Declare message types up front (usually at package level)
//	var _ = msgbus.Declare[Ping]()
//
//	// Startup: create one bus per declared type
//	if err := msgbus.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	l := &Listener{}
//	msgbus.Subscribe[Ping](l, true)
//	msgbus.Publish(ctx, Ping{ID: 1})
//
//	// Reset point (e.g. end of session): drop every subscription
//	msgbus.ClearAll(ctx)
//
// Dispatch order:
// Subscribers are called most recently subscribed first. A subscriber may
// unsubscribe itself or any other subscriber from Receive; subscribers that
// were removed before their turn are skipped and nobody is called twice.
// Subscribing the same value twice registers it twice.
//
// Errors:
// The first subscriber error stops the fan-out and is returned from Publish
// wrapped in *DeliveryError. Panics are not recovered.
//
// Registry Options:
//   - WithName: registry name used in logs, spans and metrics. Default is "msgbus".
//   - WithLogger: set the slog logger.
//   - WithTracing: enable/disable OpenTelemetry publish spans. Default is true.
//   - WithMetrics: enable/disable OpenTelemetry metrics. Default is true.
//   - WithLazyBuses: create buses on first use (default) or only from Initialize.
//
// Concurrency:
// All operations are safe for concurrent use. Publish works on a snapshot of
// the subscriber list and holds no lock while subscribers run.
package msgbus
