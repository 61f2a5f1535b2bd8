package msgbus

import "context"

// Message marks a value as eligible for bus transport.
// Concrete message types satisfy it by embedding Marker:
//
//	type Ping struct {
//	    msgbus.Marker
//	    ID int
//	}
type Message interface {
	message()
}

// Marker is embedded in message types to implement Message.
type Marker struct{}

func (Marker) message() {}

// Subscriber receives messages of type T.
// A value may implement Subscriber for several message types; each
// registration is tracked by the bus of that type only.
type Subscriber[T Message] interface {
	// Receive is called synchronously on the publisher's goroutine.
	// A non-nil error stops delivery to the remaining subscribers and
	// is returned to the publisher.
	Receive(ctx context.Context, msg T) error
}

// FuncSubscriber adapts a function to Subscriber.
// The pointer returned by Func is the subscriber identity used by Unsubscribe.
type FuncSubscriber[T Message] struct {
	fn func(context.Context, T) error
}

// Func wraps fn as a Subscriber.
func Func[T Message](fn func(ctx context.Context, msg T) error) *FuncSubscriber[T] {
	return &FuncSubscriber[T]{fn: fn}
}

// Receive calls the wrapped function.
func (f *FuncSubscriber[T]) Receive(ctx context.Context, msg T) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, msg)
}
