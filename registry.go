package msgbus

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// busHandle is the type-erased view of a Bus used for bulk operations
type busHandle interface {
	ID() string
	Name() string
	Type() reflect.Type
	Len() int
	clear(ctx context.Context) int
}

// BusInfo describes one bus known to a registry
type BusInfo struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        reflect.Type `json:"-"`
	Subscribers int          `json:"subscribers"`
}

// Registry is the directory of per-type buses.
// It holds exactly one Bus per message type for its whole lifetime,
// and ClearAll empties them without invalidating the Bus values.
type Registry struct {
	id     string
	name   string
	logger *slog.Logger
	lazy   bool
	tel    *telemetry
	ready  atomic.Bool

	mu    sync.RWMutex
	buses map[reflect.Type]busHandle
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	o := newOptions(opts...)
	return &Registry{
		id:     NewID(),
		name:   o.name,
		logger: o.logger.With("component", "msgbus>"+o.name),
		lazy:   o.lazy,
		tel:    newTelemetry(o),
		buses:  make(map[reflect.Type]busHandle),
	}
}

// ID returns the registry ID
func (r *Registry) ID() string {
	return r.id
}

// Name returns the registry name
func (r *Registry) Name() string {
	return r.name
}

// Lazy reports whether buses are created on first reference
func (r *Registry) Lazy() bool {
	return r.lazy
}

// Ready reports whether Initialize has completed at least once
func (r *Registry) Ready() bool {
	return r.ready.Load()
}

// Logger returns the registry logger
func (r *Registry) Logger() *slog.Logger {
	return r.logger
}

// Len returns the number of buses
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buses)
}

// Initialize runs every discoverer and makes sure a bus exists for each
// discovered message type. It can be called again: existing buses are kept
// and newly discovered types are added.
//
// Failing discoverers do not stop the others; their errors are combined
// and returned, and the registry is marked ready regardless.
// Cancelling ctx skips the discoverers that have not run yet.
func (r *Registry) Initialize(ctx context.Context, discoverers ...Discoverer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs error
	before := r.Len()

	for _, d := range discoverers {
		if d == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		types, err := d.Discover(ctx)
		if err != nil {
			r.logger.Warn("message type discovery failed", "error", err)
			errs = multierr.Append(errs, err)
		}
		for _, mt := range types {
			if !mt.valid() {
				errs = multierr.Append(errs, ErrInvalidMessageType)
				continue
			}
			mt.ensure(r)
		}
	}

	r.ready.Store(true)
	r.logger.Debug("initialized", "buses", r.Len(), "added", r.Len()-before)
	return errs
}

// ClearAll removes every subscription from every bus.
// The buses stay registered and usable.
func (r *Registry) ClearAll(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	handles := r.handles()

	removed := 0
	for _, h := range handles {
		removed += h.clear(ctx)
	}
	if removed > 0 {
		r.tel.cleared.Add(ctx, int64(removed), r.tel.attrs("*"))
	}
	r.logger.Debug("cleared all buses", "buses", len(handles), "subscriptions", removed)
}

// Buses returns information about every bus, sorted by name
func (r *Registry) Buses() []BusInfo {
	handles := r.handles()
	infos := make([]BusInfo, 0, len(handles))
	for _, h := range handles {
		infos = append(infos, BusInfo{
			ID:          h.ID(),
			Name:        h.Name(),
			Type:        h.Type(),
			Subscribers: h.Len(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

func (r *Registry) handles() []busHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handles := make([]busHandle, 0, len(r.buses))
	for _, h := range r.buses {
		handles = append(handles, h)
	}
	return handles
}

// Lookup resolves the bus for message type T.
// In lazy mode the bus is created if needed. Otherwise it fails with
// ErrNotInitialized before Initialize, or ErrUnknownMessageType for
// types no discoverer reported.
func Lookup[T Message](r *Registry) (*Bus[T], error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	typ := reflect.TypeFor[T]()

	r.mu.RLock()
	h, ok := r.buses[typ]
	r.mu.RUnlock()
	if ok {
		return h.(*Bus[T]), nil
	}

	if !r.lazy {
		if !r.Ready() {
			return nil, fmt.Errorf("%w: lookup of %s", ErrNotInitialized, typeName(typ))
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, typeName(typ))
	}
	return ensure[T](r), nil
}

// For returns the bus for message type T and panics if it cannot be resolved.
// It never panics on a lazy registry.
func For[T Message](r *Registry) *Bus[T] {
	b, err := Lookup[T](r)
	if err != nil {
		panic("msgbus.For: " + err.Error())
	}
	return b
}

// ensure returns the bus for T, creating and recording it if missing
func ensure[T Message](r *Registry) *Bus[T] {
	typ := reflect.TypeFor[T]()

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.buses[typ]; ok {
		return h.(*Bus[T])
	}
	b := newBus[T](r.tel)
	r.buses[typ] = b
	r.logger.Debug("created bus", "message_type", b.name, "bus_id", b.id)
	return b
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the package-level helpers
func Default() *Registry {
	return defaultRegistry
}

// Initialize initializes the default registry with the default catalog
// and any extra discoverers.
func Initialize(ctx context.Context, discoverers ...Discoverer) error {
	return defaultRegistry.Initialize(ctx, append([]Discoverer{defaultCatalog}, discoverers...)...)
}

// ClearAll removes every subscription from the default registry
func ClearAll(ctx context.Context) {
	defaultRegistry.ClearAll(ctx)
}
