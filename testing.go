package msgbus

import (
	"context"
	"sync"
	"time"
)

// TestRegistry creates a lazy registry with tracing and metrics disabled.
//
//	r := msgbus.TestRegistry()
//	rec := msgbus.NewRecorder[Ping](nil)
//	msgbus.For[Ping](r).Subscribe(rec)
func TestRegistry(opts ...Option) *Registry {
	base := []Option{
		WithName("test-registry"),
		WithTracing(false),
		WithMetrics(false),
	}
	return NewRegistry(append(base, opts...)...)
}

// RecordedCall is a single delivery seen by a Recorder
type RecordedCall[T Message] struct {
	Context context.Context
	Message T
	Time    time.Time
}

// Recorder is a Subscriber that records every message it receives.
// Useful for asserting deliveries in tests.
type Recorder[T Message] struct {
	mu       sync.Mutex
	received []RecordedCall[T]
	fn       func(context.Context, T) error
}

// NewRecorder creates a recorder. fn, if not nil, runs after each message
// is recorded and its error is returned from Receive.
func NewRecorder[T Message](fn func(context.Context, T) error) *Recorder[T] {
	return &Recorder[T]{
		received: make([]RecordedCall[T], 0),
		fn:       fn,
	}
}

// Receive implements Subscriber
func (r *Recorder[T]) Receive(ctx context.Context, msg T) error {
	r.mu.Lock()
	r.received = append(r.received, RecordedCall[T]{
		Context: ctx,
		Message: msg,
		Time:    time.Now(),
	})
	r.mu.Unlock()

	if r.fn != nil {
		return r.fn(ctx, msg)
	}
	return nil
}

// Received returns a copy of all received calls
func (r *Recorder[T]) Received() []RecordedCall[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]RecordedCall[T], len(r.received))
	copy(result, r.received)
	return result
}

// Messages returns the received messages in delivery order
func (r *Recorder[T]) Messages() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]T, len(r.received))
	for i, c := range r.received {
		result[i] = c.Message
	}
	return result
}

// Count returns the number of messages received
func (r *Recorder[T]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

// Last returns the last received call, or nil if none
func (r *Recorder[T]) Last() *RecordedCall[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.received) == 0 {
		return nil
	}
	call := r.received[len(r.received)-1]
	return &call
}

// Reset clears all received calls
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	r.received = make([]RecordedCall[T], 0)
	r.mu.Unlock()
}
