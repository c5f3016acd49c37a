package mqtt

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotStarted is returned by operations invoked before Start.
var ErrNotStarted = errors.New("mqtt client not started")

// MessageHandler defines the callback function for processing received MQTT messages.
// The context carries a logr.Logger scoped to the topic.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client defines the interface for a generic MQTT client.
// It abstracts the underlying paho implementation details.
type Client interface {
	// Start initiates the connection to the broker and the background
	// delivery loop. It is non-blocking; use AwaitConnection to wait.
	Start(ctx context.Context) error

	// Disconnect sends DISCONNECT, stops the delivery loop and closes the
	// network connection.
	Disconnect(ctx context.Context) error

	// Publish sends a message to the specified topic. For QoS 1 and 2 it
	// blocks until the broker acknowledges the message or ctx is done.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte, opts ...PublishOption) error

	// Subscribe registers a handler for a specific topic filter.
	// If the connection is lost and restored, the client re-subscribes.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	// Unsubscribe removes the handler and sends an UNSUBSCRIBE packet.
	Unsubscribe(ctx context.Context, topic string) error

	// AwaitConnection blocks until the client is connected to the broker.
	// With FailFast set it returns the first connection error instead.
	AwaitConnection(ctx context.Context) error

	// IsConnected returns true if the client is currently connected.
	IsConnected() bool
}

// PublishError reports a PUBACK carrying a failure reason code.
type PublishError struct {
	Topic      string
	ReasonCode byte
	Reason     string
}

func (e *PublishError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("publish to %s rejected: reason code 0x%02X (%s)", e.Topic, e.ReasonCode, e.Reason)
	}
	return fmt.Sprintf("publish to %s rejected: reason code 0x%02X", e.Topic, e.ReasonCode)
}

// PublishOption customizes a single publish.
type PublishOption func(*publishOptions)

type publishOptions struct {
	contentType   string
	correlationID string
}

// WithContentType sets the MQTT v5 content type property.
func WithContentType(ct string) PublishOption {
	return func(o *publishOptions) { o.contentType = ct }
}

// WithCorrelationID sets the MQTT v5 correlation data property.
func WithCorrelationID(id string) PublishOption {
	return func(o *publishOptions) { o.correlationID = id }
}
