package publisher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"

	"github.com/courierbus/courier/core/logger"
	"github.com/courierbus/courier/core/wire"
)

// DefaultQueueSize is the default capacity of the handoff queue between
// Publish callers and the socket loop.
const DefaultQueueSize = 1024

// Publisher owns an outbound PUB socket and decouples Publish calls from
// network send timing via an internal handoff queue.
//
// Publish never blocks on network I/O: envelopes are queued and a dedicated
// goroutine drains the queue to the socket one at a time. A transport error
// on send is fatal to that loop; the publisher stops itself and must be
// restarted by its owner.
//
// Example:
//
//	pub := publisher.New(addrs.PubAddr, "NodeX", publisher.WithLogger(log))
//	if err := pub.Start(ctx); err != nil {
//	    return err
//	}
//	defer pub.Stop(5 * time.Second)
//
//	pub.Publish(wire.New("quotes/ex1/NodeX", "NodeX", quote))
type Publisher struct {
	addr   string
	name   string
	codec  *wire.Codec
	logger *slog.Logger
	queue  chan *wire.Envelope

	mu      sync.Mutex
	sock    zmq4.Socket
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// Option configures a Publisher.
type Option func(*options)

type options struct {
	queueSize int
	codec     *wire.Codec
	logger    *slog.Logger
}

// WithQueueSize sets the handoff queue capacity. Publish reports failure
// instead of blocking once the queue is full.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithCodec sets the envelope codec used for encoding.
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

// New creates a publisher that will dial the broker's publisher-facing
// address on Start. The name identifies this publisher in logs.
func New(addr, name string, opts ...Option) *Publisher {
	o := &options{
		queueSize: DefaultQueueSize,
		codec:     wire.NewCodec(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Publisher{
		addr:   addr,
		name:   name,
		codec:  o.codec,
		logger: o.logger.With(logger.Component("publisher"), slog.String("name", name)),
		queue:  make(chan *wire.Envelope, o.queueSize),
	}
}

// Start dials the outbound socket and launches the send loop. A dial
// failure is returned to the caller; the publisher stays idle.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sock != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	sock := zmq4.NewPub(ctx)
	if err := sock.Dial(p.addr); err != nil {
		cancel()
		return fmt.Errorf("publisher %s: dial %s: %w", p.name, p.addr, err)
	}

	p.sock = sock
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running.Store(true)
	go p.loop(ctx, sock)

	p.logger.Info("publisher started", logger.Endpoint(p.addr))
	return nil
}

// Publish enqueues an envelope for asynchronous transmission. It returns
// false without blocking when the publisher is not running or the handoff
// queue is full; true means the envelope was accepted, not delivered.
func (p *Publisher) Publish(env *wire.Envelope) bool {
	if !p.running.Load() {
		return false
	}
	select {
	case p.queue <- env:
		return true
	default:
		p.logger.Warn("handoff queue full, rejecting envelope", logger.Topic(env.Topic))
		return false
	}
}

// Running reports whether the send loop is active.
func (p *Publisher) Running() bool {
	return p.running.Load()
}

// Stop clears the running flag, closes the socket and waits for the send
// loop to exit, bounded by timeout (<= 0 waits indefinitely). Envelopes
// still queued are dropped. ErrStopTimeout signals a hung shutdown the
// caller must handle.
func (p *Publisher) Stop(timeout time.Duration) error {
	p.mu.Lock()
	sock, cancel, done := p.sock, p.cancel, p.done
	p.sock = nil
	p.cancel = nil
	p.mu.Unlock()
	if sock == nil {
		return ErrNotStarted
	}

	p.running.Store(false)
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
	p.logger.Info("publisher stopped")
	return nil
}

func (p *Publisher) loop(ctx context.Context, sock zmq4.Socket) {
	defer close(p.done)
	defer p.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-p.queue:
			frames, err := p.codec.Encode(env)
			if err != nil {
				p.logger.Warn("dropping unencodable envelope", logger.Topic(env.Topic), logger.Error(err))
				continue
			}
			if err := sock.Send(zmq4.NewMsgFrom(frames...)); err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Error("transport error, stopping publisher", logger.Error(err))
				return
			}
			p.logger.Debug("envelope sent", logger.Topic(env.Topic))
		}
	}
}
