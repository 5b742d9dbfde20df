package broker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/go-zeromq/zmq4"
	"golang.org/x/sync/errgroup"

	"github.com/courierbus/courier/core/logger"
)

// Broker relays traffic between many publishers and many subscribers.
//
// It binds an XSUB socket facing publishers and an XPUB socket facing
// subscribers, plus an optional PUB socket mirroring relayed traffic for
// monitoring. Frames pass through unmodified: the broker never decodes
// envelopes, never inspects topics, and allocates nothing per message
// beyond pass-through buffering, which is what lets it sit in the hot path
// of every message in the cluster. Subscription control messages arriving
// on the subscriber side are forwarded upstream so publisher sockets can
// filter at the source.
//
// Example:
//
//	b := broker.New(addrs.PubAddr, addrs.SubAddr,
//	    broker.WithDebugAddr(addrs.DebugAddr),
//	    broker.WithLogger(log),
//	)
//	if err := b.Run(ctx); err != nil {
//	    log.Error("broker terminated", logger.Error(err))
//	}
type Broker struct {
	pubAddr   string
	subAddr   string
	debugAddr string
	logger    *slog.Logger

	mu        sync.Mutex
	xsub      zmq4.Socket
	xpub      zmq4.Socket
	debug     zmq4.Socket
	cancel    context.CancelFunc
	group     *errgroup.Group
	closeOnce sync.Once
}

// Option configures a Broker.
type Option func(*Broker)

// WithDebugAddr enables the passive debug mirror on the given address.
func WithDebugAddr(addr string) Option {
	return func(b *Broker) {
		b.debugAddr = addr
	}
}

// WithLogger configures structured logging. The default logger discards
// everything.
func WithLogger(log *slog.Logger) Option {
	return func(b *Broker) {
		if log != nil {
			b.logger = log
		}
	}
}

// New creates a broker binding pubAddr towards publishers and subAddr
// towards subscribers.
func New(pubAddr, subAddr string, opts ...Option) *Broker {
	b := &Broker{
		pubAddr: pubAddr,
		subAddr: subAddr,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(logger.Component("broker"))
	return b
}

// Start binds the sockets and launches the relay loops. It does not block;
// use Wait to join the loops or Run for the blocking composition.
func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.xsub != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	xsub := zmq4.NewXSub(ctx)
	if err := xsub.Listen(b.pubAddr); err != nil {
		cancel()
		return fmt.Errorf("broker: bind publisher side %s: %w", b.pubAddr, err)
	}
	xpub := zmq4.NewXPub(ctx)
	if err := xpub.Listen(b.subAddr); err != nil {
		_ = xsub.Close()
		cancel()
		return fmt.Errorf("broker: bind subscriber side %s: %w", b.subAddr, err)
	}
	var debug zmq4.Socket
	if b.debugAddr != "" {
		debug = zmq4.NewPub(ctx)
		if err := debug.Listen(b.debugAddr); err != nil {
			_ = xsub.Close()
			_ = xpub.Close()
			cancel()
			return fmt.Errorf("broker: bind debug mirror %s: %w", b.debugAddr, err)
		}
	}

	b.xsub, b.xpub, b.debug = xsub, xpub, debug
	b.cancel = cancel
	b.closeOnce = sync.Once{}

	group, gctx := errgroup.WithContext(ctx)
	b.group = group
	group.Go(func() error { return b.relay(gctx, xsub, xpub, debug) })
	group.Go(func() error { return b.control(gctx, xpub, xsub) })
	group.Go(func() error {
		// Closing the sockets is what unblocks relay loops parked in Recv.
		<-gctx.Done()
		b.closeSockets()
		return nil
	})

	debugEndpoint := ""
	if b.debugAddr != "" {
		debugEndpoint = resolveEndpoint(debug, b.debugAddr)
	}
	b.logger.Info("broker started",
		slog.String("publisher_side", resolveEndpoint(xsub, b.pubAddr)),
		slog.String("subscriber_side", resolveEndpoint(xpub, b.subAddr)),
		slog.String("debug_mirror", debugEndpoint),
	)
	return nil
}

// Run starts the broker and blocks until the context is cancelled or a
// relay loop fails, then releases all sockets.
func (b *Broker) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return err
	}
	return b.Wait()
}

// Wait joins the relay loops and returns the first loop error, if any.
func (b *Broker) Wait() error {
	b.mu.Lock()
	group := b.group
	b.mu.Unlock()
	if group == nil {
		return ErrNotStarted
	}
	return group.Wait()
}

// Stop tears down the broker: all three sockets are released exactly once
// and the relay loops join before Stop returns.
func (b *Broker) Stop() error {
	b.mu.Lock()
	cancel, group := b.cancel, b.group
	b.cancel = nil
	b.mu.Unlock()
	if group == nil {
		return ErrNotStarted
	}
	if cancel != nil {
		cancel()
	}
	err := group.Wait()

	b.mu.Lock()
	b.xsub, b.xpub, b.debug, b.group = nil, nil, nil, nil
	b.mu.Unlock()

	b.logger.Info("broker stopped")
	return err
}

// PublisherEndpoint returns the resolved publisher-facing address. Binding
// to port 0 resolves to the concrete listen address after Start.
func (b *Broker) PublisherEndpoint() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return resolveEndpoint(b.xsub, b.pubAddr)
}

// SubscriberEndpoint returns the resolved subscriber-facing address.
func (b *Broker) SubscriberEndpoint() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return resolveEndpoint(b.xpub, b.subAddr)
}

// DebugEndpoint returns the resolved debug mirror address, empty when the
// mirror is disabled.
func (b *Broker) DebugEndpoint() string {
	if b.debugAddr == "" {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return resolveEndpoint(b.debug, b.debugAddr)
}

// resolveEndpoint must not touch b.mu; Start logs endpoints while holding it.
func resolveEndpoint(sock zmq4.Socket, configured string) string {
	if sock == nil || sock.Addr() == nil {
		return configured
	}
	return "tcp://" + sock.Addr().String()
}

// relay forwards every message from the publisher side to the subscriber
// side, duplicating to the debug mirror when configured.
func (b *Broker) relay(ctx context.Context, src, dst, mirror zmq4.Socket) error {
	for {
		msg, err := src.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("broker: publisher side recv: %w", err)
		}
		if err := dst.Send(msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("broker: subscriber side send: %w", err)
		}
		if mirror != nil {
			if err := mirror.Send(msg); err != nil && ctx.Err() == nil {
				// The mirror is best-effort; a broken monitor must not
				// take down the relay.
				b.logger.Warn("debug mirror send failed", logger.Error(err))
			}
		}
	}
}

// control propagates subscription messages from the subscriber side back
// towards publishers, enabling publish-side filtering.
func (b *Broker) control(ctx context.Context, src, dst zmq4.Socket) error {
	for {
		msg, err := src.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("broker: subscription recv: %w", err)
		}
		if err := dst.Send(msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("broker: subscription send: %w", err)
		}
	}
}

func (b *Broker) closeSockets() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		xsub, xpub, debug := b.xsub, b.xpub, b.debug
		b.mu.Unlock()
		for _, sock := range []zmq4.Socket{xsub, xpub, debug} {
			if sock != nil {
				_ = sock.Close()
			}
		}
	})
}
