package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RelayOptions)(nil)

// RelayOptions configures the detection ingress of the relay.
type RelayOptions struct {
	// InputTopic is the filter detection events are read from.
	InputTopic string `json:"input-topic" mapstructure:"input-topic"`

	// ShareGroup enables an MQTT v5 shared subscription when non-empty.
	ShareGroup string `json:"share-group" mapstructure:"share-group"`
}

// NewRelayOptions creates a RelayOptions object with default parameters.
func NewRelayOptions() *RelayOptions {
	return &RelayOptions{
		InputTopic: "adas/detections",
	}
}

// Validate rejects empty or malformed topic filters.
func (o *RelayOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if o.InputTopic == "" {
		errs = append(errs, fmt.Errorf("--relay.input-topic must not be empty"))
	}
	if i := strings.Index(o.InputTopic, "#"); i >= 0 && i != len(o.InputTopic)-1 {
		errs = append(errs, fmt.Errorf("--relay.input-topic: '#' must be the last character"))
	}
	if strings.ContainsAny(o.ShareGroup, "/+#") {
		errs = append(errs, fmt.Errorf("--relay.share-group must not contain '/', '+' or '#'"))
	}
	return errs
}

// AddFlags adds flags for RelayOptions to the specified FlagSet.
func (o *RelayOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.InputTopic, "relay.input-topic", o.InputTopic, "Topic filter carrying detection events.")
	fs.StringVar(&o.ShareGroup, "relay.share-group", o.ShareGroup, "Shared subscription group, for running several relays.")
}
