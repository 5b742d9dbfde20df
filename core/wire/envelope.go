package wire

import (
	"fmt"
	"time"
)

// Envelope is the transport unit moved between courier components.
//
// Topic is a hierarchical routing key (e.g. "quotes/exchangeA") used for
// subscription filtering. Origin identifies the producing node and is used
// for origin-based filtering on the receive side. Data is either a plain
// JSON-compatible value or a payload implementing Typed.
//
// TS is the Unix timestamp (float seconds) of the last encode, not of the
// logical event: it is refreshed on every Encode call and is the freshness
// signal the receiver uses to detect a slow-subscriber condition. Typed
// payloads carry their own business timestamps where needed.
type Envelope struct {
	Topic  string
	Origin string
	Data   any
	TS     float64
}

// New creates an envelope stamped with the current time.
func New(topic, origin string, data any) *Envelope {
	return &Envelope{
		Topic:  topic,
		Origin: origin,
		Data:   data,
		TS:     Now(),
	}
}

// Now returns the current Unix time in float seconds, the timestamp
// representation used on the wire.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Age reports how long ago the envelope was encoded, relative to at.
func (e *Envelope) Age(at time.Time) time.Duration {
	return at.Sub(time.Unix(0, int64(e.TS*float64(time.Second))))
}

func (e *Envelope) String() string {
	return fmt.Sprintf("Envelope(topic=%q, origin=%q, data=%v, ts=%f)", e.Topic, e.Origin, e.Data, e.TS)
}
