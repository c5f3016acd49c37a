package canpub

import (
	"github.com/autopeer-io/canpub/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/canpub/pkg/mqtt/topic"
	"github.com/autopeer-io/canpub/pkg/options"
)

// Config is the configuration of the one-shot publisher.
type Config struct {
	MqttOptions    *options.MqttOptions
	PublishOptions *options.PublishOptions
}

// Topic returns the egress topic, {root}/messages.
func (c *Config) Topic() string {
	return topic.NewBuilder(c.MqttOptions.TopicRoot).Build(paths.Messages)
}

// NewPublisher creates a Publisher from the configuration.
func (c *Config) NewPublisher(opts ...Option) *Publisher {
	return NewPublisher(
		c.MqttOptions.ToClientConfig(),
		c.Topic(),
		c.MqttOptions.QoS,
		c.PublishOptions.AckTimeout,
		c.PublishOptions.GracePeriod,
		opts...,
	)
}
