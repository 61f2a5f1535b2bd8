package msgbus

import "context"

const (
	deliveryContextKey contextKey = iota
)

// contextKey
type contextKey int

type deliveryContextData struct {
	publishID   string
	busID       string
	messageType string
	registry    string
}

// ContextPublishID returns the ID of the Publish call delivering the current message.
// All subscribers reached by one Publish see the same ID.
func ContextPublishID(ctx context.Context) string {
	if s, ok := ctx.Value(deliveryContextKey).(*deliveryContextData); ok {
		return s.publishID
	}
	return ""
}

// ContextBusID returns the ID of the bus delivering the current message
func ContextBusID(ctx context.Context) string {
	if s, ok := ctx.Value(deliveryContextKey).(*deliveryContextData); ok {
		return s.busID
	}
	return ""
}

// ContextMessageType returns the message type name of the current delivery
func ContextMessageType(ctx context.Context) string {
	if s, ok := ctx.Value(deliveryContextKey).(*deliveryContextData); ok {
		return s.messageType
	}
	return ""
}

// ContextRegistry returns the name of the registry owning the delivering bus
func ContextRegistry(ctx context.Context) string {
	if s, ok := ctx.Value(deliveryContextKey).(*deliveryContextData); ok {
		return s.registry
	}
	return ""
}

func contextWithDelivery(ctx context.Context, publishID, busID, messageType, registry string) context.Context {
	return context.WithValue(ctx, deliveryContextKey, &deliveryContextData{
		publishID:   publishID,
		busID:       busID,
		messageType: messageType,
		registry:    registry,
	})
}
