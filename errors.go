package msgbus

import (
	"errors"
	"fmt"
)

// Contract violations. Use errors.Is as they are usually wrapped with the message type.
var (
	ErrNilSubscriber          = errors.New("subscriber is nil")
	ErrUncomparableSubscriber = errors.New("subscriber type is not comparable")
	ErrNilMessage             = errors.New("message is nil")
	ErrNilRegistry            = errors.New("registry is nil")
	ErrInvalidMessageType     = errors.New("invalid message type: use TypeOf or Declare")
	ErrNotInitialized         = errors.New("registry is not initialized")
	ErrUnknownMessageType     = errors.New("message type not discovered")
)

// DeliveryError is returned by Publish when a subscriber fails.
// Subscribers after the failing one in dispatch order were not called.
type DeliveryError struct {
	MessageType string
	// Position of the failing subscriber in the subscriber list at publish time.
	Position int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s to subscriber %d: %v", e.MessageType, e.Position, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsDeliveryError checks if an error was raised by a subscriber during Publish.
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
