package messaging

import "errors"

var (
	// ErrClosed is returned when publishing on a closed publisher.
	ErrClosed = errors.New("messaging: publisher closed")

	// ErrNotConnected is returned by health checks while the broker
	// connection is down or reconnecting.
	ErrNotConnected = errors.New("messaging: not connected")
)
