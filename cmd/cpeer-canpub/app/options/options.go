package options

import (
	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/canpub/internal/canpub"
	"github.com/autopeer-io/canpub/pkg/app"
	"github.com/autopeer-io/canpub/pkg/log"
	"github.com/autopeer-io/canpub/pkg/options"
)

type PublisherOptions struct {
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	PublishOptions *options.PublishOptions `json:"publish" mapstructure:"publish"`
	Log            *log.Options            `json:"log" mapstructure:"log"`

	// EventFiles are sent in order; empty sends the built-in examples.
	EventFiles []string `json:"event-file" mapstructure:"event-file"`
	DryRun     bool     `json:"dry-run" mapstructure:"dry-run"`
}

var _ app.NamedFlagSetOptions = (*PublisherOptions)(nil)

func NewPublisherOptions() *PublisherOptions {
	o := &PublisherOptions{
		MqttOptions:    options.NewMqttOptions(),
		PublishOptions: options.NewPublishOptions(),
		Log:            log.NewOptions(),
	}

	return o
}

func (o *PublisherOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.addInputFlags(fss.FlagSet("input"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.PublishOptions.AddFlags(fss.FlagSet("publish"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *PublisherOptions) addInputFlags(fs *pflag.FlagSet) {
	fs.StringArrayVar(&o.EventFiles, "event-file", o.EventFiles,
		"Detection event file (JSON, comments allowed) to publish. Repeatable; '-' reads standard input. Defaults to the built-in examples.")
	fs.BoolVar(&o.DryRun, "dry-run", o.DryRun, "Encode the events and print the frames without connecting to the broker.")
}

func (o *PublisherOptions) Complete() error {
	return nil
}

func (o *PublisherOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.PublishOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *PublisherOptions) Config() (*canpub.Config, error) {
	return &canpub.Config{
		MqttOptions:    o.MqttOptions,
		PublishOptions: o.PublishOptions,
	}, nil
}
