package wire_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierbus/courier/core/wire"
)

// stubPayload is a minimal Typed implementation for codec tests:
// wire shape [tag, ts, value].
type stubPayload struct {
	ts    float64
	value string
}

func (s *stubPayload) Tag() string { return "Stub" }

func (s *stubPayload) Fields() []any { return []any{"Stub", s.ts, s.value} }

func (s *stubPayload) Hydrate(fields []any) error {
	if len(fields) != 3 {
		return fmt.Errorf("want 3 fields, got %d", len(fields))
	}
	ts, ok := fields[1].(float64)
	if !ok {
		return fmt.Errorf("ts must be a number")
	}
	value, ok := fields[2].(string)
	if !ok {
		return fmt.Errorf("value must be a string")
	}
	s.ts, s.value = ts, value
	return nil
}

type stubRegistry map[string]func() wire.Typed

func (r stubRegistry) Spawn(tag string) (wire.Typed, bool) {
	factory, ok := r[tag]
	if !ok {
		return nil, false
	}
	return factory(), true
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("reproduces topic, origin and raw list payload", func(t *testing.T) {
		t.Parallel()

		codec := wire.NewCodec()
		env := wire.New("test/message", "testsuite", []any{"this", "is", "data"})

		frames, err := codec.Encode(env)
		require.NoError(t, err)
		require.Len(t, frames, wire.FrameCount)

		got, err := codec.Decode(frames)
		require.NoError(t, err)
		assert.Equal(t, "test/message", got.Topic)
		assert.Equal(t, "testsuite", got.Origin)
		assert.Equal(t, []any{"this", "is", "data"}, got.Data)
		assert.Greater(t, got.TS, 0.0)
	})

	t.Run("reproduces mapping payloads", func(t *testing.T) {
		t.Parallel()

		codec := wire.NewCodec()
		env := wire.New("test/map", "testsuite", map[string]any{"price": "42.1", "n": 3.0})

		frames, err := codec.Encode(env)
		require.NoError(t, err)

		got, err := codec.Decode(frames)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"price": "42.1", "n": 3.0}, got.Data)
	})

	t.Run("refreshes the timestamp on every encode", func(t *testing.T) {
		t.Parallel()

		codec := wire.NewCodec()
		env := wire.New("test/ts", "testsuite", "payload")
		first := env.TS

		time.Sleep(time.Millisecond)
		frames, err := codec.Encode(env)
		require.NoError(t, err)
		assert.Greater(t, env.TS, first)

		got, err := codec.Decode(frames)
		require.NoError(t, err)
		assert.Equal(t, env.TS, got.TS)
	})
}

func TestCodec_TypedPayloads(t *testing.T) {
	t.Parallel()

	registry := stubRegistry{"Stub": func() wire.Typed { return new(stubPayload) }}

	t.Run("rehydrates registered tags positionally", func(t *testing.T) {
		t.Parallel()

		codec := wire.NewCodec(wire.WithRegistry(registry))
		env := wire.New("test/typed", "testsuite", &stubPayload{ts: 123.5, value: "hello"})

		frames, err := codec.Encode(env)
		require.NoError(t, err)

		got, err := codec.Decode(frames)
		require.NoError(t, err)
		payload, ok := got.Data.(*stubPayload)
		require.True(t, ok, "payload should be rehydrated, got %T", got.Data)
		assert.Equal(t, 123.5, payload.ts)
		assert.Equal(t, "hello", payload.value)
	})

	t.Run("unknown tags degrade to the raw value", func(t *testing.T) {
		t.Parallel()

		codec := wire.NewCodec(wire.WithRegistry(registry))
		env := wire.New("test/unknown", "testsuite", []any{"NoSuchType", 1.0, "x"})

		frames, err := codec.Encode(env)
		require.NoError(t, err)

		got, err := codec.Decode(frames)
		require.NoError(t, err)
		assert.Equal(t, []any{"NoSuchType", 1.0, "x"}, got.Data)
	})

	t.Run("codec without registry leaves payloads raw", func(t *testing.T) {
		t.Parallel()

		codec := wire.NewCodec()
		env := wire.New("test/raw", "testsuite", &stubPayload{ts: 1, value: "v"})

		frames, err := codec.Encode(env)
		require.NoError(t, err)

		got, err := codec.Decode(frames)
		require.NoError(t, err)
		assert.Equal(t, []any{"Stub", 1.0, "v"}, got.Data)
	})

	t.Run("hydration failure is a decode error", func(t *testing.T) {
		t.Parallel()

		codec := wire.NewCodec(wire.WithRegistry(registry))
		frames, err := codec.Encode(wire.New("test/bad", "testsuite", []any{"Stub", "not-a-ts", "v"}))
		require.NoError(t, err)

		_, err = codec.Decode(frames)
		require.Error(t, err)
	})
}

func TestCodec_DecodeErrors(t *testing.T) {
	t.Parallel()

	t.Run("wrong frame count", func(t *testing.T) {
		t.Parallel()

		codec := wire.NewCodec()
		_, err := codec.Decode([][]byte{[]byte(`"topic"`), []byte(`"origin"`)})
		require.ErrorIs(t, err, wire.ErrFrameCount)
	})

	t.Run("non-JSON frame content", func(t *testing.T) {
		t.Parallel()

		codec := wire.NewCodec()
		frames, err := codec.Encode(wire.New("t", "o", "data"))
		require.NoError(t, err)

		for i := range frames {
			mangled := make([][]byte, len(frames))
			copy(mangled, frames)
			mangled[i] = []byte("{not json")
			_, err := codec.Decode(mangled)
			require.ErrorIs(t, err, wire.ErrBadFrame, "frame %d", i)
		}
	})
}

func TestEnvelope_Age(t *testing.T) {
	t.Parallel()

	env := wire.New("t", "o", nil)
	age := env.Age(time.Now().Add(2 * time.Second))
	assert.InDelta(t, (2 * time.Second).Seconds(), age.Seconds(), 0.5)
}
