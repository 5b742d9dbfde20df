package wire

import (
	"encoding/json"
	"fmt"
)

// FrameCount is the number of frames in a wire message:
// topic, origin, payload, timestamp, in that order.
const FrameCount = 4

// Typed is implemented by payloads that serialize themselves into the
// envelope payload slot. The wire form is a flat JSON list whose first
// element is the type tag and whose second is the payload timestamp,
// followed by the type's fields in their canonical order.
type Typed interface {
	// Tag returns the registered type name.
	Tag() string

	// Fields returns the full canonical wire list, tag first.
	Fields() []any

	// Hydrate fills the instance positionally from a decoded wire list
	// of the same shape Fields returns. It must reject malformed input
	// without partially constructing the payload.
	Hydrate(fields []any) error
}

// Registry resolves payload type tags to empty instances ready for
// positional hydration. Lookups for unknown tags report ok=false; the codec
// then degrades to the raw decoded value.
type Registry interface {
	Spawn(tag string) (Typed, bool)
}

// Codec encodes envelopes to wire frames and back.
//
// The zero-option codec decodes every payload to its raw JSON value; wire a
// registry with WithRegistry to rehydrate typed payloads by tag.
type Codec struct {
	registry Registry
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithRegistry sets the typed-payload registry consulted during decode.
func WithRegistry(reg Registry) CodecOption {
	return func(c *Codec) {
		c.registry = reg
	}
}

// NewCodec creates a codec.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode refreshes the envelope timestamp and renders the envelope as
// four UTF-8 JSON frames: topic, origin, payload, timestamp.
//
// Payloads implementing Typed serialize themselves; anything else is
// encoded generically. Encode fails only for payloads that JSON cannot
// represent.
func (c *Codec) Encode(e *Envelope) ([][]byte, error) {
	e.TS = Now()

	topic, err := json.Marshal(e.Topic)
	if err != nil {
		return nil, fmt.Errorf("wire: encode topic: %w", err)
	}
	origin, err := json.Marshal(e.Origin)
	if err != nil {
		return nil, fmt.Errorf("wire: encode origin: %w", err)
	}
	ts, err := json.Marshal(e.TS)
	if err != nil {
		return nil, fmt.Errorf("wire: encode timestamp: %w", err)
	}

	var payload []byte
	if typed, ok := e.Data.(Typed); ok {
		payload, err = json.Marshal(typed.Fields())
	} else {
		payload, err = json.Marshal(e.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("wire: encode payload: %w", err)
	}

	return [][]byte{topic, origin, payload, ts}, nil
}

// Decode parses four frames in strict (topic, origin, payload, timestamp)
// order back into an envelope.
//
// A payload list whose first element matches a registered tag is rehydrated
// into its typed form; unknown or absent tags leave the payload as the raw
// decoded value. Wrong frame count, non-JSON frame content, and typed
// payloads that fail hydration are hard decode errors.
func (c *Codec) Decode(frames [][]byte) (*Envelope, error) {
	if len(frames) != FrameCount {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFrameCount, len(frames), FrameCount)
	}

	var topic string
	if err := json.Unmarshal(frames[0], &topic); err != nil {
		return nil, fmt.Errorf("%w: topic: %w", ErrBadFrame, err)
	}
	var origin string
	if err := json.Unmarshal(frames[1], &origin); err != nil {
		return nil, fmt.Errorf("%w: origin: %w", ErrBadFrame, err)
	}
	var data any
	if err := json.Unmarshal(frames[2], &data); err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrBadFrame, err)
	}
	var ts float64
	if err := json.Unmarshal(frames[3], &ts); err != nil {
		return nil, fmt.Errorf("%w: timestamp: %w", ErrBadFrame, err)
	}

	if typed, err := c.rehydrate(data); err != nil {
		return nil, err
	} else if typed != nil {
		data = typed
	}

	return &Envelope{Topic: topic, Origin: origin, Data: data, TS: ts}, nil
}

// rehydrate returns the typed form of a decoded payload, nil if the payload
// is not a recognizable typed list, or an error if a known type rejects it.
func (c *Codec) rehydrate(data any) (Typed, error) {
	if c.registry == nil {
		return nil, nil
	}
	list, ok := data.([]any)
	if !ok || len(list) == 0 {
		return nil, nil
	}
	tag, ok := list[0].(string)
	if !ok {
		return nil, nil
	}
	typed, known := c.registry.Spawn(tag)
	if !known {
		return nil, nil
	}
	if err := typed.Hydrate(list); err != nil {
		return nil, fmt.Errorf("wire: hydrate %s payload: %w", tag, err)
	}
	return typed, nil
}
