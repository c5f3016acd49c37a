package canpub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/canpub/internal/canpub/model"
	"github.com/autopeer-io/canpub/internal/pkg/metrics"
	"github.com/autopeer-io/canpub/pkg/can"
	"github.com/autopeer-io/canpub/pkg/log"
	"github.com/autopeer-io/canpub/pkg/mqtt"
)

const (
	contentTypeJSON  = "application/json"
	disconnectBudget = 5 * time.Second
)

// ClientFactory creates the MQTT client used for one send cycle.
type ClientFactory func(cfg *mqtt.ClientConfig) (mqtt.Client, error)

// Publisher publishes encoded CAN frames. Every Send drives a fresh
// connection through connect, publish, acknowledge and disconnect; nothing is
// shared between calls, so a Publisher is safe for concurrent use.
type Publisher struct {
	client      mqtt.ClientConfig
	topic       string
	qos         int
	ackTimeout  time.Duration
	gracePeriod time.Duration

	newClient ClientFactory
	clock     clock.Clock
	observer  TransitionFunc
	logger    log.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClientFactory replaces mqtt.NewClient.
func WithClientFactory(f ClientFactory) Option {
	return func(p *Publisher) { p.newClient = f }
}

// WithClock replaces the clock used for the grace period.
func WithClock(c clock.Clock) Option {
	return func(p *Publisher) { p.clock = c }
}

// WithTransitionObserver registers a callback for connection state changes.
func WithTransitionObserver(fn TransitionFunc) Option {
	return func(p *Publisher) { p.observer = fn }
}

// NewPublisher creates a Publisher. The client configuration is copied for
// every send; FailFast is always enabled since the send cycle does not retry.
func NewPublisher(client *mqtt.ClientConfig, topic string, qos int, ackTimeout, gracePeriod time.Duration, opts ...Option) *Publisher {
	p := &Publisher{
		client:      *client,
		topic:       topic,
		qos:         qos,
		ackTimeout:  ackTimeout,
		gracePeriod: gracePeriod,
		newClient:   mqtt.NewClient,
		clock:       clock.RealClock{},
		logger:      log.WithName("publisher"),
	}
	p.client.FailFast = true

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Send parses a detection event, encodes it and publishes the frame.
func (p *Publisher) Send(ctx context.Context, raw []byte) error {
	ev, err := model.ParseEvent(raw)
	if err != nil {
		metrics.PublishTotal.WithLabelValues(can.AlgorithmUnknown.String(), metrics.ResultMalformed).Inc()
		p.logger.Error(err, "Rejected detection event")
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	return p.Publish(ctx, ev, ev.Frame())
}

// Publish runs one full connection cycle for frame. The connection is torn
// down on every return path.
func (p *Publisher) Publish(ctx context.Context, ev *model.DetectionEvent, frame can.Frame) (err error) {
	algorithm := can.AlgorithmForID(frame.ID).String()
	logger := p.logger.WithValues("algorithm", ev.Algorithm(), "messageID", ev.MessageID)

	defer func() {
		metrics.PublishTotal.WithLabelValues(algorithm, resultOf(err)).Inc()
	}()

	payload, err := model.NewStatusMessage(ev.Algorithm(), frame).Marshal()
	if err != nil {
		return fmt.Errorf("encode status message: %w", err)
	}

	cfg := p.client
	client, err := p.newClient(&cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	sm := newConnectionStateMachine(logger, p.observer)
	if err := sm.fire(ctx, EventDial); err != nil {
		return err
	}
	defer p.release(context.WithoutCancel(ctx), sm, client, logger)

	if err := client.Start(ctx); err != nil {
		logger.Error(err, "Failed to start MQTT connection", "broker", cfg.BrokerURL)
		return fmt.Errorf("%w: %s: %w", ErrConnect, cfg.BrokerURL, err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.AwaitConnection(connectCtx); err != nil {
		logger.Error(err, "Failed to connect to MQTT broker", "broker", cfg.BrokerURL)
		return fmt.Errorf("%w: %s: %w", ErrConnect, cfg.BrokerURL, err)
	}
	logger.Info("Connected to MQTT broker", "broker", cfg.BrokerURL)

	if err := sm.fire(ctx, EventEstablish); err != nil {
		return err
	}
	if err := sm.fire(ctx, EventPublish); err != nil {
		return err
	}

	correlationID := uuid.NewString()
	ackCtx, cancelAck := context.WithTimeout(ctx, p.ackTimeout)
	defer cancelAck()

	start := p.clock.Now()
	err = client.Publish(ackCtx, p.topic, p.qos, false, payload,
		mqtt.WithContentType(contentTypeJSON),
		mqtt.WithCorrelationID(correlationID),
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("publish to %s: %w", p.topic, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error(err, "Broker did not acknowledge publish", "topic", p.topic, "timeout", p.ackTimeout)
			return fmt.Errorf("%w within %s: %w", ErrAckTimeout, p.ackTimeout, err)
		}
		logger.Error(err, "Failed to publish message", "topic", p.topic)
		return fmt.Errorf("%w: %w", ErrPublishRejected, err)
	}
	metrics.AckLatency.WithLabelValues(algorithm).Observe(p.clock.Since(start).Seconds())

	if err := sm.fire(ctx, EventConfirm); err != nil {
		return err
	}
	logger.Info("Published CAN message", "topic", p.topic, "correlationID", correlationID, "payload", string(payload))

	// Lets any trailing acknowledgment bookkeeping settle before teardown.
	p.clock.Sleep(p.gracePeriod)

	return nil
}

func (p *Publisher) release(ctx context.Context, sm *connectionStateMachine, client mqtt.Client, logger log.Logger) {
	if err := sm.fire(ctx, EventStop); err != nil {
		logger.Error(err, "Invalid connection state on stop", "state", sm.Current())
	}

	disconnectCtx, cancel := context.WithTimeout(ctx, disconnectBudget)
	defer cancel()
	if err := client.Disconnect(disconnectCtx); err != nil {
		logger.Error(err, "Failed to disconnect cleanly")
	}

	if err := sm.fire(ctx, EventRelease); err != nil {
		logger.Error(err, "Invalid connection state on release", "state", sm.Current())
		return
	}
	logger.Info("Disconnected from MQTT broker")
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrConnect):
		return metrics.ResultConnect
	case errors.Is(err, ErrAckTimeout):
		return metrics.ResultTimeout
	case errors.Is(err, ErrPublishRejected):
		return metrics.ResultRejected
	default:
		return metrics.ResultFailed
	}
}
