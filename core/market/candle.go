package market

import (
	"fmt"

	"github.com/courierbus/courier/core/wire"
)

// TagCandle is the wire type tag for Candle payloads.
const TagCandle = "Candle"

// Candle is an OHLC bar. Frame is the bar length in seconds; TS marks the
// bar's end time.
type Candle struct {
	Pair  string
	Open  string
	High  string
	Low   string
	Close string
	TS    float64
	Frame float64
}

// NewCandle builds a validated candle stamped with the current time.
func NewCandle(pair, open, high, low, close string, frame float64) (*Candle, error) {
	if pair == "" {
		return nil, fmt.Errorf("%w: candle needs a pair", ErrBadShape)
	}
	for _, f := range []struct{ name, value string }{
		{"open", open}, {"high", high}, {"low", low}, {"close", close},
	} {
		if _, err := parseDecimal(f.value, f.name); err != nil {
			return nil, err
		}
	}
	return &Candle{
		Pair:  pair,
		Open:  open,
		High:  high,
		Low:   low,
		Close: close,
		TS:    wire.Now(),
		Frame: frame,
	}, nil
}

// MergeCandles folds candles of one pair into a single bar: open of the
// earliest, close of the latest, high/low extrema across all, and
// frame = (latest.ts - earliest.ts) + latest.frame.
func MergeCandles(candles ...*Candle) (*Candle, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	earliest, latest := candles[0], candles[0]
	high, err := parseDecimal(candles[0].High, "high")
	if err != nil {
		return nil, err
	}
	low, err := parseDecimal(candles[0].Low, "low")
	if err != nil {
		return nil, err
	}
	highStr, lowStr := candles[0].High, candles[0].Low

	for _, c := range candles[1:] {
		if c.Pair != candles[0].Pair {
			return nil, fmt.Errorf("%w: %q vs %q", ErrIncompatiblePairs, candles[0].Pair, c.Pair)
		}
		if c.TS < earliest.TS {
			earliest = c
		}
		if c.TS > latest.TS {
			latest = c
		}
		h, err := parseDecimal(c.High, "high")
		if err != nil {
			return nil, err
		}
		if h.GreaterThan(high) {
			high, highStr = h, c.High
		}
		l, err := parseDecimal(c.Low, "low")
		if err != nil {
			return nil, err
		}
		if l.LessThan(low) {
			low, lowStr = l, c.Low
		}
	}

	return &Candle{
		Pair:  earliest.Pair,
		Open:  earliest.Open,
		High:  highStr,
		Low:   lowStr,
		Close: latest.Close,
		TS:    latest.TS,
		Frame: (latest.TS - earliest.TS) + latest.Frame,
	}, nil
}

// Tag implements wire.Typed.
func (c *Candle) Tag() string { return TagCandle }

// Fields implements wire.Typed.
func (c *Candle) Fields() []any {
	return []any{TagCandle, c.TS, c.Pair, c.Open, c.High, c.Low, c.Close, c.Frame}
}

// Hydrate implements wire.Typed.
func (c *Candle) Hydrate(fields []any) error {
	if err := wantLen(fields, 8, TagCandle); err != nil {
		return err
	}
	ts, err := fieldFloat(fields, 1, "ts")
	if err != nil {
		return err
	}
	pair, err := fieldString(fields, 2, "pair")
	if err != nil {
		return err
	}
	var ohlc [4]string
	for i, name := range []string{"open", "high", "low", "close"} {
		v, err := fieldString(fields, 3+i, name)
		if err != nil {
			return err
		}
		ohlc[i] = v
	}
	frame, err := fieldFloat(fields, 7, "frame")
	if err != nil {
		return err
	}
	*c = Candle{Pair: pair, Open: ohlc[0], High: ohlc[1], Low: ohlc[2], Close: ohlc[3], TS: ts, Frame: frame}
	return nil
}
