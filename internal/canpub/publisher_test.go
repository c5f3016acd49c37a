package canpub

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/canpub/internal/pkg/metrics"
	"github.com/autopeer-io/canpub/pkg/mqtt"
	"github.com/autopeer-io/canpub/pkg/mqtt/mqtttest"
	"github.com/autopeer-io/canpub/pkg/options"
)

type recorder struct {
	mu          sync.Mutex
	transitions []string
}

func (r *recorder) observe(_, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, to)
}

func (r *recorder) states() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.transitions...)
}

type harness struct {
	pub      *Publisher
	client   *mqtttest.Client
	clock    *testingclock.FakeClock
	rec      *recorder
	created  int
	lastConf *mqtt.ClientConfig
}

func newHarness(t *testing.T, client *mqtttest.Client, ackTimeout time.Duration) *harness {
	t.Helper()

	h := &harness{
		client: client,
		clock:  testingclock.NewFakeClock(time.Date(2024, 4, 27, 12, 35, 56, 0, time.UTC)),
		rec:    &recorder{},
	}

	cfg := &Config{
		MqttOptions:    options.NewMqttOptions(),
		PublishOptions: options.NewPublishOptions(),
	}
	cfg.MqttOptions.Broker = "tcp://127.0.0.1:1884"
	cfg.PublishOptions.AckTimeout = ackTimeout

	h.pub = cfg.NewPublisher(
		WithClock(h.clock),
		WithTransitionObserver(h.rec.observe),
		WithClientFactory(func(c *mqtt.ClientConfig) (mqtt.Client, error) {
			h.created++
			h.lastConf = c
			return h.client, nil
		}),
	)
	return h
}

func TestSendExamples(t *testing.T) {
	tests := []struct {
		name    string
		event   []byte
		payload string
	}{
		{
			name:    "blind spot",
			event:   ExampleBlindSpot,
			payload: `{"AlgorithmID":"BlindSpotDetection","CAN_Message":{"arbitration_id":256,"data":[1,150,0,1,0,0,0,0]}}`,
		},
		{
			name:    "rear collision",
			event:   ExampleRearCollision,
			payload: `{"AlgorithmID":"RearCollision","CAN_Message":{"arbitration_id":259,"data":[1,200,0,0,0,0,0,0]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &mqtttest.Client{}, time.Second)
			start := h.clock.Now()

			if err := h.pub.Send(context.Background(), tt.event); err != nil {
				t.Fatalf("Send() error = %v", err)
			}

			got := h.client.Published()
			if len(got) != 1 {
				t.Fatalf("published %d messages, want 1", len(got))
			}
			if got[0].Topic != "can/messages" {
				t.Errorf("topic = %q, want can/messages", got[0].Topic)
			}
			if got[0].QoS != 1 {
				t.Errorf("qos = %d, want 1", got[0].QoS)
			}
			if string(got[0].Payload) != tt.payload {
				t.Errorf("payload = %s\nwant      %s", got[0].Payload, tt.payload)
			}

			if h.client.Disconnects() != 1 {
				t.Errorf("disconnects = %d, want 1", h.client.Disconnects())
			}
			if waited := h.clock.Since(start); waited != time.Second {
				t.Errorf("grace wait = %s, want 1s", waited)
			}

			wantStates := []string{
				StateConnecting,
				StateConnected,
				StatePublishPending,
				StatePublishConfirmed,
				StateLoopStopped,
				StateDisconnected,
			}
			if states := h.rec.states(); !reflect.DeepEqual(states, wantStates) {
				t.Errorf("transitions = %v, want %v", states, wantStates)
			}
		})
	}
}

func TestSendUsesClientTemplate(t *testing.T) {
	h := newHarness(t, &mqtttest.Client{}, time.Second)

	if err := h.pub.Send(context.Background(), ExampleBlindSpot); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if h.lastConf.ClientID != "SensorClient" {
		t.Errorf("client id = %q", h.lastConf.ClientID)
	}
	if h.lastConf.KeepAlive != 60 {
		t.Errorf("keep alive = %d", h.lastConf.KeepAlive)
	}
	if !h.lastConf.FailFast {
		t.Error("fail fast not enabled")
	}
}

func TestSendFreshConnectionPerMessage(t *testing.T) {
	h := newHarness(t, &mqtttest.Client{}, time.Second)

	for _, ev := range Examples() {
		if err := h.pub.Send(context.Background(), ev); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	if h.created != 2 {
		t.Errorf("clients created = %d, want 2", h.created)
	}
	if h.client.Disconnects() != 2 {
		t.Errorf("disconnects = %d, want 2", h.client.Disconnects())
	}
}

func TestSendMalformed(t *testing.T) {
	before := testutil.ToFloat64(metrics.PublishTotal.WithLabelValues("Unknown", metrics.ResultMalformed))
	h := newHarness(t, &mqtttest.Client{}, time.Second)

	err := h.pub.Send(context.Background(), []byte(`{"AlgorithmID":"BlindSpotDetection"}`))
	if !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("Send() error = %v, want ErrMalformedEvent", err)
	}
	if h.created != 0 {
		t.Errorf("client created for malformed input")
	}

	after := testutil.ToFloat64(metrics.PublishTotal.WithLabelValues("Unknown", metrics.ResultMalformed))
	if after-before != 1 {
		t.Errorf("malformed counter delta = %v, want 1", after-before)
	}
}

func TestSendConnectFailure(t *testing.T) {
	refused := errors.New("dial tcp 127.0.0.1:1884: connect: connection refused")
	h := newHarness(t, &mqtttest.Client{ConnectErr: refused}, time.Second)

	err := h.pub.Send(context.Background(), ExampleBlindSpot)
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("Send() error = %v, want ErrConnect", err)
	}
	if !errors.Is(err, refused) {
		t.Errorf("Send() error = %v, want cause to be wrapped", err)
	}
	if n := len(h.client.Published()); n != 0 {
		t.Errorf("published %d messages after connect failure", n)
	}
	if h.client.Disconnects() != 1 {
		t.Errorf("disconnects = %d, want 1", h.client.Disconnects())
	}

	wantStates := []string{StateConnecting, StateLoopStopped, StateDisconnected}
	if states := h.rec.states(); !reflect.DeepEqual(states, wantStates) {
		t.Errorf("transitions = %v, want %v", states, wantStates)
	}
}

func TestSendAckTimeout(t *testing.T) {
	h := newHarness(t, &mqtttest.Client{BlockPublish: true}, 20*time.Millisecond)

	err := h.pub.Send(context.Background(), ExampleRearCollision)
	if !errors.Is(err, ErrAckTimeout) {
		t.Fatalf("Send() error = %v, want ErrAckTimeout", err)
	}
	if h.client.Disconnects() != 1 {
		t.Errorf("disconnects = %d, want 1", h.client.Disconnects())
	}
}

func TestSendCanceled(t *testing.T) {
	h := newHarness(t, &mqtttest.Client{BlockPublish: true}, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := h.pub.Send(ctx, ExampleRearCollision)
	if err == nil || errors.Is(err, ErrAckTimeout) {
		t.Fatalf("Send() error = %v, want cancellation error", err)
	}
	if h.client.Disconnects() != 1 {
		t.Errorf("disconnects = %d, want 1", h.client.Disconnects())
	}
}

func TestSendRejected(t *testing.T) {
	rejected := &mqtt.PublishError{Topic: "can/messages", ReasonCode: 0x87, Reason: "not authorized"}
	h := newHarness(t, &mqtttest.Client{PublishErr: rejected}, time.Second)

	err := h.pub.Send(context.Background(), ExampleBlindSpot)
	if !errors.Is(err, ErrPublishRejected) {
		t.Fatalf("Send() error = %v, want ErrPublishRejected", err)
	}

	var pe *mqtt.PublishError
	if !errors.As(err, &pe) || pe.ReasonCode != 0x87 {
		t.Errorf("Send() error = %v, want *mqtt.PublishError with code 0x87", err)
	}
}

func TestResultOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.ResultSuccess},
		{ErrConnect, metrics.ResultConnect},
		{ErrAckTimeout, metrics.ResultTimeout},
		{ErrPublishRejected, metrics.ResultRejected},
		{errors.New("boom"), metrics.ResultFailed},
	}

	for _, tt := range tests {
		if got := resultOf(tt.err); got != tt.want {
			t.Errorf("resultOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
