// Package broker provides the central relay decoupling publishers from
// subscribers.
//
// The broker gives a cluster a single pair of static addresses: publishers
// dial the XSUB side, subscribers dial the XPUB side, and the broker
// forwards frames between them without decoding anything. An optional
// third address mirrors all relayed traffic for passive monitoring (see
// cmd/courier-monitor). Only publisher and receiver endpoints understand
// the wire format.
package broker
