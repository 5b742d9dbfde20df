package receiver_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierbus/courier/core/market"
	"github.com/courierbus/courier/core/receiver"
	"github.com/courierbus/courier/core/wire"
)

// listenPub binds a PUB socket on an ephemeral port, returning the endpoint
// a receiver can dial.
func listenPub(t *testing.T, ctx context.Context) (zmq4.Socket, string) {
	t.Helper()
	pub := zmq4.NewPub(ctx)
	require.NoError(t, pub.Listen("tcp://127.0.0.1:0"))
	t.Cleanup(func() { _ = pub.Close() })
	return pub, "tcp://" + pub.Addr().String()
}

// feed keeps re-encoding and sending the envelope until the test ends, so
// subscription propagation timing cannot fail the test. Each send refreshes
// the envelope timestamp.
func feed(t *testing.T, pub zmq4.Socket, envs ...*wire.Envelope) {
	t.Helper()
	codec := wire.NewCodec()
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				for _, env := range envs {
					frames, err := codec.Encode(env)
					if err != nil {
						continue
					}
					if err := pub.Send(zmq4.NewMsgFrom(frames...)); err != nil {
						return
					}
				}
			}
		}
	}()
}

func recvEventually(t *testing.T, r *receiver.Receiver) *wire.Envelope {
	t.Helper()
	var env *wire.Envelope
	require.Eventually(t, func() bool {
		got, ok := r.Recv()
		if ok {
			env = got
		}
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	return env
}

func TestReceiver_Recv(t *testing.T) {
	t.Parallel()

	t.Run("returns immediately when nothing arrived", func(t *testing.T) {
		t.Parallel()

		r := receiver.New("tcp://127.0.0.1:1", "idle")
		start := time.Now()
		env, ok := r.Recv()
		assert.False(t, ok)
		assert.Nil(t, env)
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("delivers decoded envelopes in arrival order", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pub, addr := listenPub(t, ctx)

		r := receiver.New(addr, "TestRecv", receiver.WithStaleAfter(10*time.Second))
		require.NoError(t, r.Start(ctx))
		defer func() { _ = r.Stop(2 * time.Second) }()

		feed(t, pub, wire.New("test/topic", "TestNode", []any{"this", "is", "data"}))

		env := recvEventually(t, r)
		assert.Equal(t, "test/topic", env.Topic)
		assert.Equal(t, "TestNode", env.Origin)
		assert.Equal(t, []any{"this", "is", "data"}, env.Data)
	})

	t.Run("rehydrates typed payloads", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pub, addr := listenPub(t, ctx)

		r := receiver.New(addr, "TestRecv", receiver.WithStaleAfter(10*time.Second))
		require.NoError(t, r.Start(ctx))
		defer func() { _ = r.Stop(2 * time.Second) }()

		quote, err := market.NewQuote("BTCUSD", "1000", "10", market.SideBid, "uid-1", 42.5)
		require.NoError(t, err)
		feed(t, pub, wire.New("quotes/ex1/TestNode", "TestNode", quote))

		env := recvEventually(t, r)
		got, ok := env.Data.(*market.Quote)
		require.True(t, ok, "expected a rehydrated quote, got %T", env.Data)
		assert.Equal(t, quote, got)
	})
}

func TestReceiver_Filtering(t *testing.T) {
	t.Parallel()

	t.Run("subscribes only to the configured topic prefixes", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pub, addr := listenPub(t, ctx)

		r := receiver.New(addr, "TestRecv",
			receiver.WithTopics("quotes/ex1"),
			receiver.WithStaleAfter(10*time.Second),
		)
		require.NoError(t, r.Start(ctx))
		defer func() { _ = r.Stop(2 * time.Second) }()

		feed(t, pub,
			wire.New("trades/ex1/NodeX", "NodeX", "unwanted"),
			wire.New("quotes/ex1/NodeX", "NodeX", "wanted"),
		)

		env := recvEventually(t, r)
		assert.Equal(t, "quotes/ex1/NodeX", env.Topic)

		// Drain for a while: nothing off-prefix may show up.
		deadline := time.After(300 * time.Millisecond)
		for {
			select {
			case <-deadline:
				return
			default:
			}
			if env, ok := r.Recv(); ok {
				assert.Equal(t, "quotes/ex1/NodeX", env.Topic)
			} else {
				time.Sleep(5 * time.Millisecond)
			}
		}
	})

	t.Run("drops envelopes from unlisted origins", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pub, addr := listenPub(t, ctx)

		r := receiver.New(addr, "TestRecv",
			receiver.WithOrigins("NodeY"),
			receiver.WithStaleAfter(10*time.Second),
		)
		require.NoError(t, r.Start(ctx))
		defer func() { _ = r.Stop(2 * time.Second) }()

		feed(t, pub,
			wire.New("test/a", "NodeX", "blocked"),
			wire.New("test/b", "NodeY", "allowed"),
		)

		env := recvEventually(t, r)
		assert.Equal(t, "NodeY", env.Origin)

		deadline := time.After(300 * time.Millisecond)
		for {
			select {
			case <-deadline:
				return
			default:
			}
			if env, ok := r.Recv(); ok {
				assert.Equal(t, "NodeY", env.Origin)
			} else {
				time.Sleep(5 * time.Millisecond)
			}
		}
	})
}

func TestReceiver_StaleKillSwitch(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, addr := listenPub(t, ctx)

	r := receiver.New(addr, "TestRecv", receiver.WithStaleAfter(100*time.Millisecond))
	require.NoError(t, r.Start(ctx))
	defer func() { _ = r.Stop(2 * time.Second) }()

	// Handcraft frames with a timestamp far in the past; encoding through the
	// codec would refresh it.
	staleFrames := func() [][]byte {
		frames := make([][]byte, 0, wire.FrameCount)
		for _, v := range []any{"test/stale", "TestNode", "data", wire.Now() - 10} {
			b, err := json.Marshal(v)
			require.NoError(t, err)
			frames = append(frames, b)
		}
		return frames
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := pub.Send(zmq4.NewMsgFrom(staleFrames()...)); err != nil {
					return
				}
			}
		}
	}()

	require.Eventually(t, func() bool { return !r.Running() }, 5*time.Second, 10*time.Millisecond,
		"stale envelope should terminate the receive loop")

	// The stale envelope itself must not have been delivered.
	env, ok := r.Recv()
	assert.False(t, ok)
	assert.Nil(t, env)

	// A terminated receiver stays dead: fresh valid traffic arriving after
	// the kill-switch fired must never surface either.
	feed(t, pub, wire.New("test/fresh", "TestNode", "late"))
	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case <-deadline:
			assert.False(t, r.Running())
			return
		default:
		}
		env, ok := r.Recv()
		require.False(t, ok, "terminated receiver delivered %v", env)
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReceiver_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("double start is rejected", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		_, addr := listenPub(t, ctx)

		r := receiver.New(addr, "TestRecv")
		require.NoError(t, r.Start(ctx))
		defer func() { _ = r.Stop(2 * time.Second) }()

		require.ErrorIs(t, r.Start(ctx), receiver.ErrAlreadyStarted)
	})

	t.Run("stop terminates the loop", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		_, addr := listenPub(t, ctx)

		r := receiver.New(addr, "TestRecv")
		require.NoError(t, r.Start(ctx))
		assert.True(t, r.Running())

		require.NoError(t, r.Stop(2*time.Second))
		assert.False(t, r.Running())

		require.ErrorIs(t, r.Stop(time.Second), receiver.ErrNotStarted)
	})

	t.Run("stop before start reports not started", func(t *testing.T) {
		t.Parallel()

		r := receiver.New("tcp://127.0.0.1:1", "idle")
		require.ErrorIs(t, r.Stop(time.Second), receiver.ErrNotStarted)
	})
}
