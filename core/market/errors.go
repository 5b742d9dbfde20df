package market

import "errors"

var (
	// ErrIncompatiblePairs is returned when combining payloads that refer to
	// different trading pairs.
	ErrIncompatiblePairs = errors.New("market: incompatible pairs")

	// ErrIncompatibleSides is returned when aggregating quotes with
	// differing sides.
	ErrIncompatibleSides = errors.New("market: incompatible sides")

	// ErrPriceMismatch is returned when aggregating quotes at differing
	// price levels.
	ErrPriceMismatch = errors.New("market: price mismatch")

	// ErrBadShape is returned when a payload is constructed or hydrated from
	// data of the wrong arity or element types.
	ErrBadShape = errors.New("market: malformed payload shape")

	// ErrUnknownSide is returned for side values outside the known set.
	ErrUnknownSide = errors.New("market: unknown side")

	// ErrNoCandles is returned when merging an empty candle set.
	ErrNoCandles = errors.New("market: no candles to merge")
)
