package canrelay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/autopeer-io/canpub/internal/canpub"
	"github.com/autopeer-io/canpub/pkg/mqtt"
	"github.com/autopeer-io/canpub/pkg/mqtt/mqtttest"
	"github.com/autopeer-io/canpub/pkg/options"
)

func newTestConfig() *Config {
	return &Config{
		MqttOptions:    options.NewMqttOptions(),
		RelayOptions:   options.NewRelayOptions(),
		HttpOptions:    options.NewHttpOptions(),
		PublishOptions: options.NewPublishOptions(),
	}
}

// startRelay runs the relay until the returned cancel func is called.
func startRelay(t *testing.T, r *Relay, client *mqtttest.Client) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(client.Subscriptions()) == 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("relay did not subscribe")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cancel, done
}

func handlerContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logr.NewContext(context.Background(), zapr.NewLogger(zap.New(core))), logs
}

func TestRelayForwardsDetection(t *testing.T) {
	client := &mqtttest.Client{}
	r := newTestConfig().newRelay(client)

	cancel, done := startRelay(t, r, client)

	if !r.Ready() {
		t.Error("relay not ready after connecting")
	}

	ctx, _ := handlerContext()
	if !client.Deliver(ctx, "adas/detections", "adas/detections", canpub.ExampleBlindSpot) {
		t.Fatal("no handler on adas/detections")
	}

	got := client.Published()
	if len(got) != 1 {
		t.Fatalf("published %d messages, want 1", len(got))
	}
	want := `{"AlgorithmID":"BlindSpotDetection","CAN_Message":{"arbitration_id":256,"data":[1,150,0,1,0,0,0,0]}}`
	if got[0].Topic != "can/messages" || string(got[0].Payload) != want {
		t.Errorf("published %s %s, want can/messages %s", got[0].Topic, got[0].Payload, want)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if client.Disconnects() != 1 {
		t.Errorf("disconnects = %d, want 1", client.Disconnects())
	}
}

func TestRelayDropsMalformed(t *testing.T) {
	client := &mqtttest.Client{}
	r := newTestConfig().newRelay(client)
	cancel, done := startRelay(t, r, client)
	defer func() {
		cancel()
		<-done
	}()

	ctx, logs := handlerContext()
	client.Deliver(ctx, "adas/detections", "adas/detections", []byte(`{"Status":true}`))

	if n := len(client.Published()); n != 0 {
		t.Errorf("published %d messages for malformed input", n)
	}
	if logs.FilterMessage("Dropping malformed detection event").Len() != 1 {
		t.Errorf("malformed event not logged, got %v", logs.All())
	}
}

func TestRelayLogsRejectedPublish(t *testing.T) {
	client := &mqtttest.Client{PublishErr: &mqtt.PublishError{Topic: "can/messages", ReasonCode: 0x97}}
	r := newTestConfig().newRelay(client)
	cancel, done := startRelay(t, r, client)
	defer func() {
		cancel()
		<-done
	}()

	ctx, logs := handlerContext()
	client.Deliver(ctx, "adas/detections", "adas/detections", canpub.ExampleRearCollision)

	if logs.FilterMessage("Failed to relay message").Len() != 1 {
		t.Errorf("rejected publish not logged, got %v", logs.All())
	}
}

func TestRelaySharedSubscription(t *testing.T) {
	cfg := newTestConfig()
	cfg.RelayOptions.ShareGroup = "canrelay"

	client := &mqtttest.Client{}
	r := cfg.newRelay(client)
	cancel, done := startRelay(t, r, client)
	defer func() {
		cancel()
		<-done
	}()

	subs := client.Subscriptions()
	if len(subs) != 1 || subs[0] != "$share/canrelay/adas/detections" {
		t.Errorf("subscriptions = %v", subs)
	}
}

func TestRelayConnectFailure(t *testing.T) {
	refused := errors.New("connection refused")
	client := &mqtttest.Client{ConnectErr: refused}
	r := newTestConfig().newRelay(client)

	err := r.Start(context.Background())
	if !errors.Is(err, refused) {
		t.Fatalf("Start() error = %v, want %v", err, refused)
	}
	if client.Disconnects() != 1 {
		t.Errorf("disconnects = %d, want 1", client.Disconnects())
	}
}

type runnableFunc func(ctx context.Context) error

func (f runnableFunc) Start(ctx context.Context) error { return f(ctx) }

func TestServerStopsOnFailure(t *testing.T) {
	boom := errors.New("listen tcp :8080: address already in use")
	stopped := make(chan struct{})

	s := &Server{runnables: []Runnable{
		runnableFunc(func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		}),
		runnableFunc(func(context.Context) error { return boom }),
	}}

	if err := s.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	select {
	case <-stopped:
	default:
		t.Error("sibling runnable was not stopped")
	}
}
