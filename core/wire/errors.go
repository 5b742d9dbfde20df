package wire

import "errors"

var (
	// ErrFrameCount is returned when a wire message does not carry exactly
	// four frames.
	ErrFrameCount = errors.New("wire: wrong frame count")

	// ErrBadFrame is returned when a frame does not hold valid JSON of the
	// expected kind.
	ErrBadFrame = errors.New("wire: malformed frame")
)
