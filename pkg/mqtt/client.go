package mqtt

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/go-logr/logr"

	"github.com/autopeer-io/canpub/pkg/log"
)

type pahoClient struct {
	cfg *ClientConfig
	cm  *autopaho.ConnectionManager

	connected atomic.Bool

	// failed is closed on the first connection error when FailFast is set.
	failed     chan struct{}
	failOnce   sync.Once
	errMu      sync.Mutex
	connectErr error

	// subscriptions holds the registered handlers.
	// Key: topic filter (string), Value: subscriptionEntry
	subscriptions sync.Map
}

type subscriptionEntry struct {
	topic   string
	qos     int
	handler MessageHandler
}

// NewClient creates a new MQTT client implementing the Client interface.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mqtt config is required")
	}

	setDefaultConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}

	return &pahoClient{
		cfg:    cfg,
		failed: make(chan struct{}),
	}, nil
}

func (c *pahoClient) Start(ctx context.Context) error {
	brokerURL, _ := url.Parse(c.cfg.BrokerURL) // Already validated

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{brokerURL},
		KeepAlive:                     c.cfg.KeepAlive,
		CleanStartOnInitialConnection: c.cfg.CleanStart,
		SessionExpiryInterval:         c.cfg.SessionExpiry,
		ReconnectBackoff:              autopaho.NewConstantBackoff(c.cfg.ReconnectBackoff),
		ConnectTimeout:                c.cfg.ConnectTimeout,
		ClientConfig: paho.ClientConfig{
			ClientID:           c.cfg.ClientID,
			OnClientError:      c.onClientError,
			OnServerDisconnect: c.onServerDisconnect,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				c.router,
			},
		},
		OnConnectionUp: c.onConnectionUp,
		OnConnectError: c.onConnectError,
	}

	if c.cfg.Debug {
		pahoCfg.Debug = newPahoLogger("autopaho")
		pahoCfg.PahoDebug = newPahoLogger("paho")
	}

	log.Info("Starting MQTT Client", "broker", c.cfg.BrokerURL, "clientID", c.cfg.ClientID, "keepAlive", c.cfg.KeepAlive)

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return err
	}
	c.cm = cm
	return nil
}

func (c *pahoClient) Disconnect(ctx context.Context) error {
	if c.cm == nil {
		return nil
	}

	err := c.cm.Disconnect(ctx)
	c.connected.Store(false)
	if err != nil {
		return fmt.Errorf("mqtt disconnect: %w", err)
	}

	log.Info("MQTT Client disconnected", "clientID", c.cfg.ClientID)
	return nil
}

func (c *pahoClient) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte, opts ...PublishOption) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	var po publishOptions
	for _, opt := range opts {
		opt(&po)
	}

	msg := &paho.Publish{
		Topic:   topic,
		QoS:     byte(qos),
		Retain:  retain,
		Payload: payload,
	}
	if po.contentType != "" || po.correlationID != "" {
		msg.Properties = &paho.PublishProperties{ContentType: po.contentType}
		if po.correlationID != "" {
			msg.Properties.CorrelationData = []byte(po.correlationID)
		}
	}

	// For QoS > 0 this returns once the PUBACK/PUBCOMP for this packet
	// identifier has been received.
	pr, err := c.cm.Publish(ctx, msg)
	if err != nil {
		return err
	}

	// Codes below 0x80 are successes; 0x10 means no matching subscribers.
	if pr != nil && pr.ReasonCode >= 0x80 {
		pe := &PublishError{Topic: topic, ReasonCode: pr.ReasonCode}
		if pr.Properties != nil {
			pe.Reason = pr.Properties.ReasonString
		}
		return pe
	}

	return nil
}

func (c *pahoClient) Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	// Stored first so that OnConnectionUp re-subscribes after a reconnect.
	c.subscriptions.Store(topic, subscriptionEntry{
		topic:   topic,
		qos:     qos,
		handler: handler,
	})

	_, err := c.cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: topic, QoS: byte(qos)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send subscription packet: %w", err)
	}

	log.Info("Subscribed to topic", "topic", topic, "qos", qos)
	return nil
}

func (c *pahoClient) Unsubscribe(ctx context.Context, topic string) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	c.subscriptions.Delete(topic)

	_, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{
		Topics: []string{topic},
	})
	return err
}

func (c *pahoClient) AwaitConnection(ctx context.Context) error {
	if c.cm == nil {
		return ErrNotStarted
	}
	if !c.cfg.FailFast {
		return c.cm.AwaitConnection(ctx)
	}

	// Buffered so the waiter exits once the manager is shut down.
	done := make(chan error, 1)
	go func() { done <- c.cm.AwaitConnection(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			if cause := c.lastConnectError(); cause != nil {
				return fmt.Errorf("%w (last attempt: %v)", err, cause)
			}
		}
		return err
	case <-c.failed:
		return c.lastConnectError()
	}
}

func (c *pahoClient) IsConnected() bool {
	return c.connected.Load()
}

func (c *pahoClient) lastConnectError() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.connectErr
}

// --- Internal Callbacks ---

// onConnectionUp is called when the connection is established or re-established.
func (c *pahoClient) onConnectionUp(cm *autopaho.ConnectionManager, ack *paho.Connack) {
	c.connected.Store(true)
	log.Info("MQTT Connection established", "broker", c.cfg.BrokerURL, "sessionPresent", ack.SessionPresent)

	c.subscriptions.Range(func(key, value any) bool {
		entry := value.(subscriptionEntry)
		log.Info("Re-subscribing", "topic", entry.topic)
		if _, err := cm.Subscribe(context.Background(), &paho.Subscribe{
			Subscriptions: []paho.SubscribeOptions{
				{Topic: entry.topic, QoS: byte(entry.qos)},
			},
		}); err != nil {
			log.Error(err, "Failed to re-subscribe", "topic", entry.topic)
		}
		return true
	})
}

func (c *pahoClient) onConnectError(err error) {
	c.connected.Store(false)

	c.errMu.Lock()
	c.connectErr = err
	c.errMu.Unlock()

	if c.cfg.FailFast {
		log.Error(err, "MQTT Connection failed", "broker", c.cfg.BrokerURL)
		c.failOnce.Do(func() { close(c.failed) })
		return
	}
	log.Error(err, "MQTT Connection failed, retrying...", "broker", c.cfg.BrokerURL, "backoff", c.cfg.ReconnectBackoff)
}

func (c *pahoClient) onClientError(err error) {
	c.connected.Store(false)
	log.Error(err, "MQTT Client internal error")
}

func (c *pahoClient) onServerDisconnect(d *paho.Disconnect) {
	c.connected.Store(false)
	reason := ""
	if d.Properties != nil {
		reason = d.Properties.ReasonString
	}
	log.Warn("MQTT Server requested disconnect", "reasonCode", d.ReasonCode, "reason", reason)
}

// router dispatches incoming messages to the registered handlers. Each
// handler runs in its own goroutine so the reader loop is never blocked.
func (c *pahoClient) router(p paho.PublishReceived) (bool, error) {
	matched := false
	c.subscriptions.Range(func(key, value any) bool {
		entry := value.(subscriptionEntry)
		if topicsMatch(topicFilter(entry.topic), p.Packet.Topic) {
			ctx := logr.NewContext(context.Background(), log.WithValues("topic", p.Packet.Topic).Logr())
			go entry.handler(ctx, p.Packet.Topic, p.Packet.Payload)
			matched = true
		}
		return true
	})

	if !matched {
		log.Debug("Received message on unhandled topic", "topic", p.Packet.Topic)
	}

	return true, nil
}

// topicsMatch checks if a topic matches a filter (supports wildcards + and #).
func topicsMatch(filter, topic string) bool {
	if filter == topic {
		return true
	}

	if !strings.ContainsAny(filter, "+#") {
		return false
	}

	filterParts := strings.Split(filter, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range filterParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}

	return len(filterParts) == len(topicParts)
}

// topicFilter strips the $share/<group>/ prefix from shared subscriptions.
func topicFilter(filter string) string {
	if strings.HasPrefix(filter, "$share/") {
		parts := strings.SplitN(filter, "/", 3)
		if len(parts) == 3 {
			return parts[2]
		}
	}
	return filter
}
