package msgbus

import "context"

// SubscribeIn subscribes sub to the bus for T in r when enable is true,
// and unsubscribes it otherwise.
func SubscribeIn[T Message](r *Registry, sub Subscriber[T], enable bool) error {
	b, err := Lookup[T](r)
	if err != nil {
		return err
	}
	if enable {
		return b.Subscribe(sub)
	}
	b.Unsubscribe(sub)
	return nil
}

// UnsubscribeIn removes one registration of sub from the bus for T in r.
// Unsubscribing a subscriber that is not registered is a no-op.
func UnsubscribeIn[T Message](r *Registry, sub Subscriber[T]) error {
	b, err := Lookup[T](r)
	if err != nil {
		return err
	}
	b.Unsubscribe(sub)
	return nil
}

// PublishIn publishes msg on the bus for T in r
func PublishIn[T Message](ctx context.Context, r *Registry, msg T) error {
	b, err := Lookup[T](r)
	if err != nil {
		return err
	}
	return b.Publish(ctx, msg)
}

// Subscribe subscribes (enable=true) or unsubscribes (enable=false) sub
// on the default registry. Pass the type explicitly when sub handles
// several message types:
//
//	msgbus.Subscribe[Ping](listener, true)
func Subscribe[T Message](sub Subscriber[T], enable bool) error {
	return SubscribeIn(defaultRegistry, sub, enable)
}

// Unsubscribe removes one registration of sub from the default registry
func Unsubscribe[T Message](sub Subscriber[T]) error {
	return UnsubscribeIn(defaultRegistry, sub)
}

// Publish publishes msg on the default registry
//
//	msgbus.Publish(ctx, Ping{ID: 1})
func Publish[T Message](ctx context.Context, msg T) error {
	return PublishIn(ctx, defaultRegistry, msg)
}
