package publisher

import "errors"

var (
	// ErrAlreadyStarted is returned when starting a running publisher.
	ErrAlreadyStarted = errors.New("publisher: already started")

	// ErrNotStarted is returned when stopping an idle publisher.
	ErrNotStarted = errors.New("publisher: not started")

	// ErrStopTimeout is returned when the send loop does not exit within
	// the stop timeout.
	ErrStopTimeout = errors.New("publisher: stop timed out")
)
