package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/courierbus/courier/core/logger"
	"github.com/courierbus/courier/core/publisher"
	"github.com/courierbus/courier/core/receiver"
	"github.com/courierbus/courier/core/wire"
)

const (
	// EchoChannel is the canonical channel the default loop republishes
	// pulled payloads on.
	EchoChannel = "echo"

	// DefaultPollInterval paces the default loop's Recv polling.
	DefaultPollInterval = 10 * time.Millisecond
)

// LoopFunc is a node run loop. The default loop can be swapped by
// composition via WithLoop instead of wrapping the Node type.
type LoopFunc func(ctx context.Context, n *Node) error

// Node combines at most one publisher and one receiver under a shared
// lifecycle and is the smallest addressable unit in a cluster.
//
// Start and Stop cascade to both facilities. Publish and Recv report an
// explicit error when the corresponding facility was not supplied, never a
// silent no-op. The default Run loop is a minimal relay: each pulled
// payload is republished on the echo channel tagged with the node's name,
// a behavior meant to be replaced by the embedding application.
type Node struct {
	name    string
	pub     *publisher.Publisher
	recv    *receiver.Receiver
	loop    LoopFunc
	poll    time.Duration
	logger  *slog.Logger
	running atomic.Bool
}

// Option configures a Node.
type Option func(*Node)

// WithPublisher attaches the node's publishing facility.
func WithPublisher(p *publisher.Publisher) Option {
	return func(n *Node) {
		n.pub = p
	}
}

// WithReceiver attaches the node's receiving facility.
func WithReceiver(r *receiver.Receiver) Option {
	return func(n *Node) {
		n.recv = r
	}
}

// WithLoop replaces the default echo loop.
func WithLoop(loop LoopFunc) Option {
	return func(n *Node) {
		if loop != nil {
			n.loop = loop
		}
	}
}

// WithPollInterval sets the default loop's polling pace.
func WithPollInterval(d time.Duration) Option {
	return func(n *Node) {
		if d > 0 {
			n.poll = d
		}
	}
}

// WithLogger configures structured logging. The default logger discards
// everything.
func WithLogger(log *slog.Logger) Option {
	return func(n *Node) {
		if log != nil {
			n.logger = log
		}
	}
}

// New creates a node. Both facilities are optional; the corresponding
// operations fail with ErrNoPublisher or ErrNoReceiver when absent.
func New(name string, opts ...Option) *Node {
	n := &Node{
		name:   name,
		loop:   echoLoop,
		poll:   DefaultPollInterval,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(logger.Component("node"), slog.String("name", name))
	return n
}

// Name returns the node's name, used as envelope origin and topic suffix.
func (n *Node) Name() string {
	return n.name
}

// Start brings up the attached facilities, receiver first. A partial
// failure rolls back what already started and propagates the error, since
// only the composing layer knows whether that is tolerable.
func (n *Node) Start(ctx context.Context) error {
	if n.recv != nil {
		if err := n.recv.Start(ctx); err != nil {
			return fmt.Errorf("node %s: %w", n.name, err)
		}
	}
	if n.pub != nil {
		if err := n.pub.Start(ctx); err != nil {
			if n.recv != nil {
				_ = n.recv.Stop(0)
			}
			return fmt.Errorf("node %s: %w", n.name, err)
		}
	}
	n.running.Store(true)
	n.logger.Info("node started")
	return nil
}

// Stop cascades to both facilities, bounded by timeout each. All stop
// errors are reported.
func (n *Node) Stop(timeout time.Duration) error {
	n.running.Store(false)
	var errs []error
	if n.recv != nil {
		if err := n.recv.Stop(timeout); err != nil && !errors.Is(err, receiver.ErrNotStarted) {
			errs = append(errs, err)
		}
	}
	if n.pub != nil {
		if err := n.pub.Stop(timeout); err != nil && !errors.Is(err, publisher.ErrNotStarted) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("node %s: %w", n.name, err)
	}
	n.logger.Info("node stopped")
	return nil
}

// Publish sends data on the given channel; the wire topic is the channel
// suffixed with this node's name and the origin is the node's name.
func (n *Node) Publish(channel string, data any) error {
	if n.pub == nil {
		return ErrNoPublisher
	}
	env := wire.New(channel+"/"+n.name, n.name, data)
	if !n.pub.Publish(env) {
		return ErrPublishFailed
	}
	return nil
}

// Recv pops the oldest envelope from the receiving facility. It returns
// (nil, nil) when nothing is queued and never blocks.
func (n *Node) Recv() (*wire.Envelope, error) {
	if n.recv == nil {
		return nil, ErrNoReceiver
	}
	env, ok := n.recv.Recv()
	if !ok {
		return nil, nil
	}
	return env, nil
}

// Run executes the node's loop until the context is cancelled or the loop
// returns.
func (n *Node) Run(ctx context.Context) error {
	return n.loop(ctx, n)
}

// echoLoop pulls one message per tick and, if present, republishes its
// payload on the echo channel.
func echoLoop(ctx context.Context, n *Node) error {
	ticker := time.NewTicker(n.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			env, err := n.Recv()
			if err != nil {
				return err
			}
			if env == nil {
				continue
			}
			if err := n.Publish(EchoChannel, env.Data); err != nil {
				n.logger.Warn("echo republish failed", logger.Topic(env.Topic), logger.Error(err))
			}
		}
	}
}
