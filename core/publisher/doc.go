// Package publisher provides the outbound worker of a courier node.
//
// A Publisher owns exactly one PUB socket for its running lifetime and is
// the only component touching it. Application code hands envelopes over via
// Publish, which enqueues and returns immediately; a dedicated goroutine
// performs the actual network sends. There is no durability: envelopes
// queued but unsent at shutdown are dropped, and a transport error stops
// the worker instead of being retried.
package publisher
