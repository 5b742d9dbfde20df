package broker

import "errors"

var (
	// ErrAlreadyStarted is returned when starting a running broker.
	ErrAlreadyStarted = errors.New("broker: already started")

	// ErrNotStarted is returned when stopping or waiting on an idle broker.
	ErrNotStarted = errors.New("broker: not started")
)
