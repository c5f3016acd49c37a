// Package mqtttest provides an in-memory mqtt.Client for tests.
package mqtttest

import (
	"context"
	"sync"

	"github.com/autopeer-io/canpub/pkg/mqtt"
)

var _ mqtt.Client = (*Client)(nil)

// Message is a message captured by Publish.
type Message struct {
	Topic   string
	QoS     int
	Retain  bool
	Payload []byte
}

// Client records calls and lets tests inject failures. The zero value is a
// client whose connection succeeds immediately.
type Client struct {
	// StartErr is returned by Start.
	StartErr error
	// ConnectErr is returned by AwaitConnection.
	ConnectErr error
	// PublishErr is returned by Publish.
	PublishErr error
	// BlockPublish makes Publish wait for ctx to be done, like a broker that
	// never acknowledges.
	BlockPublish bool

	mu          sync.Mutex
	started     bool
	connected   bool
	disconnects int
	published   []Message
	handlers    map[string]mqtt.MessageHandler
}

func (c *Client) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.StartErr != nil {
		return c.StartErr
	}
	c.started = true
	return nil
}

func (c *Client) Disconnect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
	c.connected = false
	return nil
}

func (c *Client) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte, _ ...mqtt.PublishOption) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return mqtt.ErrNotStarted
	}
	block, err := c.BlockPublish, c.PublishErr
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, Message{Topic: topic, QoS: qos, Retain: retain, Payload: append([]byte(nil), payload...)})
	return nil
}

func (c *Client) Subscribe(_ context.Context, topic string, _ int, handler mqtt.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return mqtt.ErrNotStarted
	}
	if c.handlers == nil {
		c.handlers = make(map[string]mqtt.MessageHandler)
	}
	c.handlers[topic] = handler
	return nil
}

func (c *Client) Unsubscribe(_ context.Context, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, topic)
	return nil
}

func (c *Client) AwaitConnection(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return mqtt.ErrNotStarted
	}
	if c.ConnectErr != nil {
		return c.ConnectErr
	}
	c.connected = true
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Deliver calls the handler subscribed to filter synchronously. It reports
// whether a handler was registered.
func (c *Client) Deliver(ctx context.Context, filter, topic string, payload []byte) bool {
	c.mu.Lock()
	h, ok := c.handlers[filter]
	c.mu.Unlock()
	if !ok {
		return false
	}
	h(ctx, topic, payload)
	return true
}

// Published returns a copy of the captured messages.
func (c *Client) Published() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.published...)
}

// Disconnects returns the number of Disconnect calls.
func (c *Client) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

// Subscriptions returns the subscribed topic filters.
func (c *Client) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	filters := make([]string, 0, len(c.handlers))
	for f := range c.handlers {
		filters = append(filters, f)
	}
	return filters
}
