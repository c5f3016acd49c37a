package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*PublishOptions)(nil)

// PublishOptions controls a single acknowledged publish.
type PublishOptions struct {
	// AckTimeout bounds the wait for the broker acknowledgment.
	AckTimeout time.Duration `json:"ack-timeout" mapstructure:"ack-timeout"`

	// GracePeriod keeps the connection open after the acknowledgment.
	GracePeriod time.Duration `json:"grace-period" mapstructure:"grace-period"`
}

// NewPublishOptions creates a PublishOptions object with default parameters.
func NewPublishOptions() *PublishOptions {
	return &PublishOptions{
		AckTimeout:  10 * time.Second,
		GracePeriod: time.Second,
	}
}

// Validate checks that the timeouts are usable.
func (o *PublishOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if o.AckTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--publish.ack-timeout must be positive"))
	}
	if o.GracePeriod < 0 {
		errs = append(errs, fmt.Errorf("--publish.grace-period must not be negative"))
	}
	return errs
}

// AddFlags adds flags for PublishOptions to the specified FlagSet.
func (o *PublishOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.AckTimeout, "publish.ack-timeout", o.AckTimeout, "Maximum wait for the broker to acknowledge a publish.")
	fs.DurationVar(&o.GracePeriod, "publish.grace-period", o.GracePeriod, "Time the connection stays open after the acknowledgment. 0 disables it.")
}
