// Package market defines the typed payloads transported inside courier
// envelopes: quotes, orders, trade batches, candles, and order-book
// snapshots.
//
// Every payload serializes to a flat list whose first two elements are the
// type tag and the payload timestamp, followed by the type's fields in an
// explicit, fixed order (see each type's Fields method). Deserialization is
// positional: the receiving side looks the tag up in a Registry, spawns an
// empty instance, and hydrates it from the remaining elements. The field
// order is part of the wire contract and must never change for a registered
// tag.
//
// Prices and sizes are decimal strings end to end; arithmetic (quote level
// aggregation, candle merging) goes through shopspring/decimal to avoid
// floating point drift. Payloads are immutable value records: combination
// operations return new instances.
package market
