package canrelay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/autopeer-io/canpub/internal/canpub/model"
	"github.com/autopeer-io/canpub/internal/pkg/metrics"
	"github.com/autopeer-io/canpub/pkg/can"
	"github.com/autopeer-io/canpub/pkg/log"
	"github.com/autopeer-io/canpub/pkg/mqtt"
)

const disconnectTimeout = 5 * time.Second

// Relay reads detection events from an input topic and republishes each one
// as an encoded CAN status message over a single long-lived connection.
type Relay struct {
	client     mqtt.Client
	filter     string
	topic      string
	qos        int
	ackTimeout time.Duration
}

// NewRelay creates a Relay. filter is the subscription, topic the egress topic.
func NewRelay(client mqtt.Client, filter, topic string, qos int, ackTimeout time.Duration) *Relay {
	return &Relay{
		client:     client,
		filter:     filter,
		topic:      topic,
		qos:        qos,
		ackTimeout: ackTimeout,
	}
}

// Start connects, subscribes and blocks until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	if err := r.client.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt client: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := r.client.Disconnect(shutdownCtx); err != nil {
			log.Error(err, "Failed to disconnect relay client")
		}
	}()

	if err := r.client.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("await mqtt connection: %w", err)
	}

	if err := r.client.Subscribe(ctx, r.filter, r.qos, r.handle); err != nil {
		return err
	}
	log.Info("Relaying detection events", "from", r.filter, "to", r.topic)

	<-ctx.Done()
	log.Info("Relay shutting down...")
	return nil
}

// Ready reports whether the broker connection is up.
func (r *Relay) Ready() bool {
	return r.client.IsConnected()
}

func (r *Relay) handle(ctx context.Context, topic string, payload []byte) {
	logger := logr.FromContextOrDiscard(ctx)

	ev, err := model.ParseEvent(payload)
	if err != nil {
		metrics.PublishTotal.WithLabelValues(can.AlgorithmUnknown.String(), metrics.ResultMalformed).Inc()
		logger.Error(err, "Dropping malformed detection event", "size", len(payload))
		return
	}

	frame := ev.Frame()
	algorithm := can.AlgorithmForID(frame.ID).String()
	logger = logger.WithValues("algorithm", ev.Algorithm(), "messageID", ev.MessageID)

	out, err := model.NewStatusMessage(ev.Algorithm(), frame).Marshal()
	if err != nil {
		metrics.PublishTotal.WithLabelValues(algorithm, metrics.ResultFailed).Inc()
		logger.Error(err, "Failed to encode status message")
		return
	}

	ackCtx, cancel := context.WithTimeout(ctx, r.ackTimeout)
	defer cancel()

	start := time.Now()
	err = r.client.Publish(ackCtx, r.topic, r.qos, false, out,
		mqtt.WithContentType("application/json"),
		mqtt.WithCorrelationID(uuid.NewString()),
	)
	switch {
	case err == nil:
		metrics.AckLatency.WithLabelValues(algorithm).Observe(time.Since(start).Seconds())
		metrics.PublishTotal.WithLabelValues(algorithm, metrics.ResultSuccess).Inc()
		logger.V(1).Info("Relayed CAN message", "frame", frame.String())
	case errors.Is(err, context.DeadlineExceeded):
		metrics.PublishTotal.WithLabelValues(algorithm, metrics.ResultTimeout).Inc()
		logger.Error(err, "Broker did not acknowledge relayed message", "timeout", r.ackTimeout)
	default:
		metrics.PublishTotal.WithLabelValues(algorithm, metrics.ResultRejected).Inc()
		logger.Error(err, "Failed to relay message", "topic", r.topic)
	}
}
