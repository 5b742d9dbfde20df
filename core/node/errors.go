package node

import "errors"

var (
	// ErrNoPublisher is returned by Publish when the node was composed
	// without a publishing facility.
	ErrNoPublisher = errors.New("node: no publisher configured")

	// ErrNoReceiver is returned by Recv when the node was composed without
	// a receiving facility.
	ErrNoReceiver = errors.New("node: no receiver configured")

	// ErrPublishFailed is returned when the publishing facility did not
	// accept an envelope (not running or handoff queue full).
	ErrPublishFailed = errors.New("node: envelope not accepted for publishing")
)
