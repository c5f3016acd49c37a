package canrelay

import (
	"fmt"

	"github.com/autopeer-io/canpub/internal/pkg/metrics"
	"github.com/autopeer-io/canpub/internal/pkg/mqtt/paths"
	httpserver "github.com/autopeer-io/canpub/internal/pkg/server/http"
	"github.com/autopeer-io/canpub/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/canpub/pkg/mqtt/topic"
	"github.com/autopeer-io/canpub/pkg/options"
)

type Config struct {
	MqttOptions    *options.MqttOptions
	RelayOptions   *options.RelayOptions
	HttpOptions    *options.HttpOptions
	PublishOptions *options.PublishOptions
}

// NewServer wires the relay client, the relay and the HTTP server.
func (cfg *Config) NewServer() (*Server, error) {
	client, err := mqtt.NewClient(cfg.MqttOptions.ToClientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}

	relay := cfg.newRelay(client)
	metrics.SetBrokerProbe(relay.Ready)

	return &Server{
		runnables: []Runnable{
			relay,
			httpserver.NewServer(cfg.HttpOptions, metrics.Registry, relay.Ready),
		},
	}, nil
}

func (cfg *Config) newRelay(client mqtt.Client) *Relay {
	topicBuilder := mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot)

	return NewRelay(
		client,
		mqtttopic.Shared(cfg.RelayOptions.ShareGroup, cfg.RelayOptions.InputTopic),
		topicBuilder.Build(paths.Messages),
		cfg.MqttOptions.QoS,
		cfg.PublishOptions.AckTimeout,
	)
}
