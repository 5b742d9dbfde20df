// Package wire defines the envelope transported between courier components
// and the codec that maps it onto the wire format.
//
// A wire message is four independently JSON-encoded UTF-8 frames in fixed
// order: topic, origin, payload, timestamp. The payload frame is either an
// arbitrary JSON value or a flat list whose first element is a registered
// type tag, followed by that type's field values in canonical order (see
// the Typed interface and the market package for the built-in payloads).
//
// The envelope timestamp is refreshed on every encode; receivers compare it
// against their own clock to detect a slow-subscriber condition. Decoding
// degrades gracefully for unknown type tags (the payload stays a raw JSON
// value) but fails hard for wrong frame counts or non-JSON frame content.
package wire
