package options

import (
	"fmt"
	"os"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/canpub/internal/canrelay"
	"github.com/autopeer-io/canpub/pkg/app"
	"github.com/autopeer-io/canpub/pkg/log"
	"github.com/autopeer-io/canpub/pkg/options"
)

type RelayServerOptions struct {
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	RelayOptions   *options.RelayOptions   `json:"relay" mapstructure:"relay"`
	PublishOptions *options.PublishOptions `json:"publish" mapstructure:"publish"`
	HttpOptions    *options.HttpOptions    `json:"http" mapstructure:"http"`
	Log            *log.Options            `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*RelayServerOptions)(nil)

func NewRelayServerOptions() *RelayServerOptions {
	o := &RelayServerOptions{
		MqttOptions:    options.NewMqttOptions(),
		RelayOptions:   options.NewRelayOptions(),
		PublishOptions: options.NewPublishOptions(),
		HttpOptions:    options.NewHttpOptions(),
		Log:            log.NewOptions(),
	}
	// Derived from the hostname in Complete.
	o.MqttOptions.ClientID = ""

	return o
}

func (o *RelayServerOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.RelayOptions.AddFlags(fss.FlagSet("relay"))
	o.PublishOptions.AddFlags(fss.FlagSet("publish"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *RelayServerOptions) Complete() error {
	if o.MqttOptions.ClientID == "" {
		host, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("derive mqtt client id: %w", err)
		}
		o.MqttOptions.ClientID = "cpeer-canrelay-" + host
	}
	return nil
}

func (o *RelayServerOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.RelayOptions.Validate()...)
	errs = append(errs, o.PublishOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *RelayServerOptions) Config() (*canrelay.Config, error) {
	return &canrelay.Config{
		MqttOptions:    o.MqttOptions,
		RelayOptions:   o.RelayOptions,
		HttpOptions:    o.HttpOptions,
		PublishOptions: o.PublishOptions,
	}, nil
}
