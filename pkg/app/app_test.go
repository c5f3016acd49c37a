package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/canpub/pkg/options"
)

type testOptions struct {
	Mqtt    *options.MqttOptions
	Publish *options.PublishOptions
	Files   []string
}

var _ NamedFlagSetOptions = (*testOptions)(nil)

func newTestOptions() *testOptions {
	return &testOptions{
		Mqtt:    options.NewMqttOptions(),
		Publish: options.NewPublishOptions(),
	}
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.Mqtt.AddFlags(fss.FlagSet("mqtt"))
	o.Publish.AddFlags(fss.FlagSet("publish"))
	fss.FlagSet("input").StringArrayVar(&o.Files, "event-file", nil, "")
	return fss
}

func (o *testOptions) Complete() error { return nil }

func (o *testOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.Publish.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func execute(t *testing.T, opts *testOptions, args ...string) error {
	t.Helper()

	ran := false
	a := NewApp("canpub-test", "test",
		WithOptions(opts),
		WithDefaultValidArgs(),
		WithRunFunc(func() error { ran = true; return nil }),
	)
	cmd := a.Command()
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil && !ran {
		t.Fatal("run func not called")
	}
	return err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigPrecedence(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "canpub.yaml", `
mqtt:
  broker: tcp://10.0.0.1:1883
  client-id: from-file
  keep-alive: 30s
publish:
  grace-period: 250ms
event-file:
  - a.json
  - b.json
`)
	t.Setenv("CANPUB_MQTT_QOS", "2")

	opts := newTestOptions()
	if err := execute(t, opts, "--config", cfg, "--mqtt.client-id", "from-flag"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if opts.Mqtt.Broker != "tcp://10.0.0.1:1883" {
		t.Errorf("broker = %q, want value from file", opts.Mqtt.Broker)
	}
	if opts.Mqtt.ClientID != "from-flag" {
		t.Errorf("client id = %q, want flag to win", opts.Mqtt.ClientID)
	}
	if opts.Mqtt.KeepAlive != 30*time.Second {
		t.Errorf("keep alive = %s", opts.Mqtt.KeepAlive)
	}
	if opts.Mqtt.QoS != 2 {
		t.Errorf("qos = %d, want value from environment", opts.Mqtt.QoS)
	}
	if opts.Publish.GracePeriod != 250*time.Millisecond {
		t.Errorf("grace period = %s", opts.Publish.GracePeriod)
	}
	if len(opts.Files) != 2 || opts.Files[0] != "a.json" || opts.Files[1] != "b.json" {
		t.Errorf("event files = %v", opts.Files)
	}
	if opts.Publish.AckTimeout != 10*time.Second {
		t.Errorf("ack timeout = %s, want default", opts.Publish.AckTimeout)
	}
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "CANPUB_MQTT_TOPIC_ROOT=vehicle/can\n")
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("CANPUB_MQTT_TOPIC_ROOT") })

	opts := newTestOptions()
	if err := execute(t, opts); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if opts.Mqtt.TopicRoot != "vehicle/can" {
		t.Errorf("topic root = %q, want value from .env", opts.Mqtt.TopicRoot)
	}
}

func TestValidationFailure(t *testing.T) {
	opts := newTestOptions()
	if err := execute(t, opts, "--mqtt.qos", "3"); err == nil {
		t.Fatal("Execute() succeeded with an invalid qos")
	}
}

func TestRejectsPositionalArgs(t *testing.T) {
	opts := newTestOptions()
	if err := execute(t, opts, "extra"); err == nil {
		t.Fatal("Execute() accepted a positional argument")
	}
}

func TestMissingConfigFile(t *testing.T) {
	opts := newTestOptions()
	if err := execute(t, opts, "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Execute() succeeded with a missing config file")
	}
}
