package canpub

import "errors"

var (
	// ErrMalformedEvent is returned when the input is not a valid detection event.
	ErrMalformedEvent = errors.New("malformed detection event")

	// ErrConnect is returned when the broker connection cannot be established.
	ErrConnect = errors.New("mqtt connect failed")

	// ErrAckTimeout is returned when the broker does not acknowledge a publish in time.
	ErrAckTimeout = errors.New("publish not acknowledged")

	// ErrPublishRejected is returned when the publish fails or the broker rejects it.
	ErrPublishRejected = errors.New("publish rejected")
)
