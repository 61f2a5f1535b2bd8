package msgbus

import (
	"context"
	"reflect"
	"sync"
)

// MessageType describes a message type that can be discovered.
// Create it with TypeOf or Declare; the zero value is invalid.
type MessageType struct {
	typ    reflect.Type
	create func(*Registry)
}

// TypeOf returns the descriptor for message type T
func TypeOf[T Message]() MessageType {
	return MessageType{
		typ: reflect.TypeFor[T](),
		create: func(r *Registry) {
			ensure[T](r)
		},
	}
}

// Type returns the Go type
func (m MessageType) Type() reflect.Type {
	return m.typ
}

// Name returns the type name used for buses, logs and metrics
func (m MessageType) Name() string {
	return typeName(m.typ)
}

func (m MessageType) String() string {
	return m.Name()
}

func (m MessageType) valid() bool {
	return m.typ != nil && m.create != nil
}

func (m MessageType) ensure(r *Registry) {
	m.create(r)
}

// Discoverer reports the message types in use by the application.
type Discoverer interface {
	Discover(ctx context.Context) ([]MessageType, error)
}

// DiscovererFunc adapts a function to Discoverer
type DiscovererFunc func(ctx context.Context) ([]MessageType, error)

// Discover calls f
func (f DiscovererFunc) Discover(ctx context.Context) ([]MessageType, error) {
	return f(ctx)
}

// Types returns a Discoverer reporting a fixed list of types
func Types(types ...MessageType) Discoverer {
	list := append([]MessageType(nil), types...)
	return DiscovererFunc(func(context.Context) ([]MessageType, error) {
		return list, nil
	})
}

// Catalog is a set of message types built up by explicit registration,
// typically from package init functions.
type Catalog struct {
	mu    sync.RWMutex
	types []MessageType
	seen  map[reflect.Type]struct{}
}

// NewCatalog creates a catalog holding types
func NewCatalog(types ...MessageType) *Catalog {
	c := &Catalog{seen: make(map[reflect.Type]struct{})}
	c.Add(types...)
	return c
}

// Add records types. Duplicates and invalid descriptors are ignored.
func (c *Catalog) Add(types ...MessageType) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, mt := range types {
		if !mt.valid() {
			continue
		}
		if _, ok := c.seen[mt.typ]; ok {
			continue
		}
		c.seen[mt.typ] = struct{}{}
		c.types = append(c.types, mt)
	}
	return c
}

// Len returns the number of types in the catalog
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

// Discover returns the registered types in registration order
func (c *Catalog) Discover(context.Context) ([]MessageType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]MessageType(nil), c.types...), nil
}

var defaultCatalog = NewCatalog()

// DefaultCatalog returns the process-wide catalog filled by Declare
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Declare adds T to the default catalog and returns its descriptor.
//
//	var PingType = msgbus.Declare[Ping]()
func Declare[T Message]() MessageType {
	mt := TypeOf[T]()
	defaultCatalog.Add(mt)
	return mt
}
