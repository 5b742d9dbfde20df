package receiver

import "errors"

var (
	// ErrAlreadyStarted is returned when starting a running receiver.
	ErrAlreadyStarted = errors.New("receiver: already started")

	// ErrNotStarted is returned when stopping an idle receiver.
	ErrNotStarted = errors.New("receiver: not started")

	// ErrStopTimeout is returned when the receive loop does not exit within
	// the stop timeout.
	ErrStopTimeout = errors.New("receiver: stop timed out")
)
