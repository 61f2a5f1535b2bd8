package msgbus

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// NewID generates a new unique ID
func NewID() string {
	return uuid.NewString()
}

// entry is one registration. The same subscriber registered twice
// owns two entries.
type entry[T Message] struct {
	sub     Subscriber[T]
	removed atomic.Bool
}

// Bus holds the subscribers of exactly one message type and fans
// published messages out to them synchronously.
//
// The subscriber list is copy-on-write: Publish iterates over a
// snapshot and never holds the lock while a subscriber runs, so
// subscribers may subscribe, unsubscribe or publish from Receive.
type Bus[T Message] struct {
	id   string
	name string
	typ  reflect.Type
	tel  *telemetry

	mu   sync.Mutex
	subs []*entry[T]
}

func newBus[T Message](tel *telemetry) *Bus[T] {
	typ := reflect.TypeFor[T]()
	return &Bus[T]{
		id:   NewID(),
		name: typeName(typ),
		typ:  typ,
		tel:  tel,
	}
}

// ID returns the bus ID
func (b *Bus[T]) ID() string {
	return b.id
}

// Name returns the message type name
func (b *Bus[T]) Name() string {
	return b.name
}

// Type returns the message type carried by the bus
func (b *Bus[T]) Type() reflect.Type {
	return b.typ
}

// Len returns the number of registrations, counting duplicates
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Subscribe appends sub to the subscriber list.
// There is no uniqueness check: subscribing twice means two deliveries per publish.
func (b *Bus[T]) Subscribe(sub Subscriber[T]) error {
	if isNil(sub) {
		return fmt.Errorf("%w: %s", ErrNilSubscriber, b.name)
	}
	if !isComparable(sub) {
		return fmt.Errorf("%w: %s subscriber %T", ErrUncomparableSubscriber, b.name, sub)
	}

	b.mu.Lock()
	b.subs = append(slices.Clip(b.subs), &entry[T]{sub: sub})
	b.mu.Unlock()

	b.tel.subscribed(context.Background(), b.name, 1)
	return nil
}

// Unsubscribe removes the first registration of sub.
// Returns false if sub was not subscribed; that is not an error.
func (b *Bus[T]) Unsubscribe(sub Subscriber[T]) bool {
	if isNil(sub) || !isComparable(sub) {
		return false
	}
	if !b.remove(sub) {
		return false
	}

	b.tel.subscribed(context.Background(), b.name, -1)
	return true
}

func (b *Bus[T]) remove(sub Subscriber[T]) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := slices.IndexFunc(b.subs, func(e *entry[T]) bool {
		return e.sub == sub
	})
	if idx < 0 {
		return false
	}
	b.subs[idx].removed.Store(true)
	b.subs = slices.Delete(slices.Clone(b.subs), idx, idx+1)
	return true
}

// Publish delivers msg to every current subscriber on the caller's goroutine,
// most recently subscribed first.
//
// A subscriber removed during dispatch is skipped if it has not been called yet.
// A subscriber added during dispatch is not called by this publish.
// The first subscriber error stops delivery and is returned as *DeliveryError.
// Panics raised by subscribers are not recovered.
func (b *Bus[T]) Publish(ctx context.Context, msg T) (err error) {
	if isNil(msg) {
		return fmt.Errorf("%w: %s", ErrNilMessage, b.name)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	snapshot := b.snapshot()

	ctx, span := b.tel.startPublish(ctx, b.name, b.id, len(snapshot))
	ctx = contextWithDelivery(ctx, NewID(), b.id, b.name, b.tel.registry)
	delivered := 0
	defer func() {
		b.tel.endPublish(ctx, span, b.name, delivered, err)
	}()

	for i := len(snapshot) - 1; i >= 0; i-- {
		e := snapshot[i]
		if e.removed.Load() {
			continue
		}
		if rerr := e.sub.Receive(ctx, msg); rerr != nil {
			return &DeliveryError{MessageType: b.name, Position: i, Err: rerr}
		}
		delivered++
	}
	return nil
}

// clear drops every registration and returns how many were removed.
// Only the registry calls it.
func (b *Bus[T]) clear(ctx context.Context) int {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	for _, e := range subs {
		e.removed.Store(true)
	}
	b.mu.Unlock()

	b.tel.subscribed(ctx, b.name, -len(subs))
	return len(subs)
}

func (b *Bus[T]) snapshot() []*entry[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs
}

// isNil reports whether v is nil or a nil pointer, map, slice, func, chan or interface
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isComparable reports whether v can be used with ==.
// Interface fields are checked against their dynamic values.
func isComparable(v any) bool {
	return reflect.ValueOf(v).Comparable()
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
