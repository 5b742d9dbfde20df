// Package receiver provides the inbound worker of a courier node.
//
// A Receiver owns exactly one SUB socket for its running lifetime. The run
// loop decodes arriving wire messages, applies origin filtering, checks
// envelope freshness, and hands passing envelopes to a bounded FIFO that
// Recv drains without blocking.
//
// Per-message failures (malformed frames, unknown payload shapes) are
// logged and skipped; the loop continues. The staleness kill-switch is the
// exception: a receiver lagging behind its publisher beyond the configured
// threshold shuts itself down.
package receiver
