package receiver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"

	"github.com/courierbus/courier/core/logger"
	"github.com/courierbus/courier/core/market"
	"github.com/courierbus/courier/core/wire"
)

const (
	// DefaultStaleAfter is the default staleness threshold: an envelope
	// older than this on arrival trips the kill-switch.
	DefaultStaleAfter = time.Second

	// DefaultBufferSize is the default capacity of the delivery FIFO.
	DefaultBufferSize = 1024
)

// Receiver owns an inbound SUB socket, filters arriving envelopes by topic
// and origin, and exposes them through a non-blocking Recv.
//
// A receiver that observes an envelope older than its staleness threshold
// concludes it cannot keep up with its publisher and terminates its own run
// loop. That self-termination is deliberate and is the system's only
// congestion control: slow consumers stop consuming instead of blocking
// producers or growing an unbounded backlog.
//
// Example:
//
//	recv := receiver.New(addrs.SubAddr, "NodeX",
//	    receiver.WithTopics("quotes/ex1"),
//	    receiver.WithLogger(log),
//	)
//	if err := recv.Start(ctx); err != nil {
//	    return err
//	}
//	defer recv.Stop(5 * time.Second)
//
//	if env, ok := recv.Recv(); ok {
//	    handle(env)
//	}
type Receiver struct {
	addr       string
	name       string
	topics     []string
	origins    map[string]struct{}
	staleAfter time.Duration
	codec      *wire.Codec
	logger     *slog.Logger
	delivered  chan *wire.Envelope

	mu      sync.Mutex
	sock    zmq4.Socket
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// Option configures a Receiver.
type Option func(*options)

type options struct {
	topics     []string
	origins    []string
	staleAfter time.Duration
	bufferSize int
	codec      *wire.Codec
	logger     *slog.Logger
}

// WithTopics sets the topic prefixes to subscribe to. Without topics the
// receiver subscribes to everything.
func WithTopics(topics ...string) Option {
	return func(o *options) {
		o.topics = append(o.topics, topics...)
	}
}

// WithOrigins sets an origin allow-list. Envelopes from origins outside the
// list are discarded silently.
func WithOrigins(origins ...string) Option {
	return func(o *options) {
		o.origins = append(o.origins, origins...)
	}
}

// WithStaleAfter sets the staleness threshold for the kill-switch.
func WithStaleAfter(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.staleAfter = d
		}
	}
}

// WithBufferSize sets the delivery FIFO capacity. When the FIFO is full the
// oldest pending envelopes are kept and new arrivals are dropped.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithCodec sets the envelope codec. The default codec rehydrates all
// built-in market payload types.
func WithCodec(c *wire.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger configures structured logging. The default logger discards
// everything.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// New creates a receiver that will dial the broker's subscriber-facing
// address on Start. The name identifies this receiver in logs.
func New(addr, name string, opts ...Option) *Receiver {
	o := &options{
		staleAfter: DefaultStaleAfter,
		bufferSize: DefaultBufferSize,
		codec:      wire.NewCodec(wire.WithRegistry(market.Defaults())),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	var origins map[string]struct{}
	if len(o.origins) > 0 {
		origins = make(map[string]struct{}, len(o.origins))
		for _, origin := range o.origins {
			origins[origin] = struct{}{}
		}
	}

	return &Receiver{
		addr:       addr,
		name:       name,
		topics:     o.topics,
		origins:    origins,
		staleAfter: o.staleAfter,
		codec:      o.codec,
		logger:     o.logger.With(logger.Component("receiver"), slog.String("name", name)),
		delivered:  make(chan *wire.Envelope, o.bufferSize),
	}
}

// Start dials the inbound socket with subscription filters derived from the
// configured topics and launches the receive loop.
func (r *Receiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sock != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	sock := zmq4.NewSub(ctx)
	if err := sock.Dial(r.addr); err != nil {
		cancel()
		return fmt.Errorf("receiver %s: dial %s: %w", r.name, r.addr, err)
	}
	for _, filter := range subscriptionFilters(r.topics) {
		if err := sock.SetOption(zmq4.OptionSubscribe, filter); err != nil {
			cancel()
			_ = sock.Close()
			return fmt.Errorf("receiver %s: subscribe %q: %w", r.name, filter, err)
		}
	}

	r.sock = sock
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running.Store(true)
	go r.loop(ctx, sock)

	r.logger.Info("receiver started", logger.Endpoint(r.addr), slog.Any("topics", r.topics))
	return nil
}

// Recv pops the oldest delivered envelope, or reports ok=false immediately
// when nothing is queued. It never blocks.
func (r *Receiver) Recv() (*wire.Envelope, bool) {
	select {
	case env := <-r.delivered:
		return env, true
	default:
		return nil, false
	}
}

// Running reports whether the receive loop is active. It turns false after
// Stop and after a staleness self-termination.
func (r *Receiver) Running() bool {
	return r.running.Load()
}

// Stop clears the running flag, closes the socket and waits for the loop to
// exit, bounded by timeout (<= 0 waits indefinitely).
func (r *Receiver) Stop(timeout time.Duration) error {
	r.mu.Lock()
	sock, cancel, done := r.sock, r.cancel, r.done
	r.sock = nil
	r.cancel = nil
	r.mu.Unlock()
	if sock == nil {
		return ErrNotStarted
	}

	r.running.Store(false)
	cancel()
	_ = sock.Close()

	if timeout <= 0 {
		<-done
	} else {
		select {
		case <-done:
		case <-time.After(timeout):
			return ErrStopTimeout
		}
	}
	r.logger.Info("receiver stopped")
	return nil
}

func (r *Receiver) loop(ctx context.Context, sock zmq4.Socket) {
	defer close(r.done)
	defer r.running.Store(false)

	for {
		msg, err := sock.Recv()
		if err != nil {
			if ctx.Err() != nil || !r.running.Load() {
				return
			}
			r.logger.Error("transport error, stopping receiver", logger.Error(err))
			return
		}

		env, err := r.codec.Decode(msg.Frames)
		if err != nil {
			r.logger.Warn("dropping malformed message", logger.Error(err), logger.Count("frames", len(msg.Frames)))
			continue
		}

		if r.origins != nil {
			if _, ok := r.origins[env.Origin]; !ok {
				continue
			}
		}

		if age := env.Age(time.Now()); age > r.staleAfter {
			r.logger.Error("cannot keep up with publisher, terminating receiver",
				logger.Duration(age),
				slog.Duration("stale_after", r.staleAfter),
				logger.Topic(env.Topic),
			)
			_ = sock.Close()
			return
		}

		select {
		case r.delivered <- env:
		default:
			r.logger.Warn("delivery buffer full, dropping envelope", logger.Topic(env.Topic))
		}
	}
}

// subscriptionFilters maps topic prefixes to socket subscription filters.
// The first wire frame is the JSON-encoded topic, so the raw prefix must be
// JSON-encoded too, minus the closing quote, for the socket's prefix match
// to hit: topic prefix `quotes/ex1` becomes filter `"quotes/ex1`.
func subscriptionFilters(topics []string) []string {
	if len(topics) == 0 {
		return []string{""}
	}
	filters := make([]string, len(topics))
	for i, topic := range topics {
		b, _ := json.Marshal(topic)
		filters[i] = string(b[:len(b)-1])
	}
	return filters
}
