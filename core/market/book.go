package market

import (
	"fmt"

	"github.com/courierbus/courier/core/wire"
)

// Wire type tags for the book payload family.
const (
	TagTopLevel = "TopLevel"
	TagBook     = "Book"
	TagRawBook  = "RawBook"
)

// Level is one book level as a (price, size, ts) triple, all strings.
type Level struct {
	Price string
	Size  string
	TS    string
}

// RawLevel extends Level with the trade/order id the venue assigned to the
// entry, as a (price, size, ts, id) quadruple.
type RawLevel struct {
	Price string
	Size  string
	TS    string
	ID    string
}

// TopLevel is the best bid/ask snapshot of one pair.
type TopLevel struct {
	Pair string
	Bid  Level
	Ask  Level
	TS   float64
}

// Book is a full order-book snapshot. Sides are sequences of 3-tuples; any
// tuple of the wrong arity or holding a non-string element is rejected at
// construction time.
type Book struct {
	Pair string
	Bids []Level
	Asks []Level
	TS   float64
}

// RawBook is the Book specialization whose levels carry per-entry ids.
type RawBook struct {
	Pair string
	Bids []RawLevel
	Asks []RawLevel
	TS   float64
}

// NewTopLevel builds a best bid/ask snapshot stamped with the current time.
func NewTopLevel(pair string, bid, ask Level) (*TopLevel, error) {
	if pair == "" {
		return nil, fmt.Errorf("%w: top level needs a pair", ErrBadShape)
	}
	return &TopLevel{Pair: pair, Bid: bid, Ask: ask, TS: wire.Now()}, nil
}

// NewBook builds a validated book snapshot from raw (price, size, ts)
// tuples, stamped with the current time.
func NewBook(pair string, bids, asks [][]string) (*Book, error) {
	if pair == "" {
		return nil, fmt.Errorf("%w: book needs a pair", ErrBadShape)
	}
	toLevels := func(side string, tuples [][]string) ([]Level, error) {
		levels := make([]Level, len(tuples))
		for i, t := range tuples {
			if len(t) != 3 {
				return nil, fmt.Errorf("%w: %s level %d has %d fields, want 3", ErrBadShape, side, i, len(t))
			}
			levels[i] = Level{Price: t[0], Size: t[1], TS: t[2]}
		}
		return levels, nil
	}
	b, err := toLevels("bid", bids)
	if err != nil {
		return nil, err
	}
	a, err := toLevels("ask", asks)
	if err != nil {
		return nil, err
	}
	return &Book{Pair: pair, Bids: b, Asks: a, TS: wire.Now()}, nil
}

// NewRawBook builds a validated raw book snapshot from (price, size, ts, id)
// tuples, stamped with the current time.
func NewRawBook(pair string, bids, asks [][]string) (*RawBook, error) {
	if pair == "" {
		return nil, fmt.Errorf("%w: book needs a pair", ErrBadShape)
	}
	toLevels := func(side string, tuples [][]string) ([]RawLevel, error) {
		levels := make([]RawLevel, len(tuples))
		for i, t := range tuples {
			if len(t) != 4 {
				return nil, fmt.Errorf("%w: %s level %d has %d fields, want 4", ErrBadShape, side, i, len(t))
			}
			levels[i] = RawLevel{Price: t[0], Size: t[1], TS: t[2], ID: t[3]}
		}
		return levels, nil
	}
	b, err := toLevels("bid", bids)
	if err != nil {
		return nil, err
	}
	a, err := toLevels("ask", asks)
	if err != nil {
		return nil, err
	}
	return &RawBook{Pair: pair, Bids: b, Asks: a, TS: wire.Now()}, nil
}

// Tag implements wire.Typed.
func (t *TopLevel) Tag() string { return TagTopLevel }

// Fields implements wire.Typed.
func (t *TopLevel) Fields() []any {
	return []any{TagTopLevel, t.TS, t.Pair, levelFields(t.Bid), levelFields(t.Ask)}
}

// Hydrate implements wire.Typed.
func (t *TopLevel) Hydrate(fields []any) error {
	if err := wantLen(fields, 5, TagTopLevel); err != nil {
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
	bid, err := levelFromWire(fields[3], "bid", 0)
	if err != nil {
		return err
	}
	ask, err := levelFromWire(fields[4], "ask", 0)
	if err != nil {
		return err
	}
	*t = TopLevel{Pair: pair, Bid: bid, Ask: ask, TS: ts}
	return nil
}

// Tag implements wire.Typed.
func (b *Book) Tag() string { return TagBook }

// Fields implements wire.Typed.
func (b *Book) Fields() []any {
	bids := make([]any, len(b.Bids))
	for i, l := range b.Bids {
		bids[i] = levelFields(l)
	}
	asks := make([]any, len(b.Asks))
	for i, l := range b.Asks {
		asks[i] = levelFields(l)
	}
	return []any{TagBook, b.TS, b.Pair, bids, asks}
}

// Hydrate implements wire.Typed.
func (b *Book) Hydrate(fields []any) error {
	if err := wantLen(fields, 5, TagBook); err != nil {
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
	bids, err := levelsFromWire(fields[3], "bid")
	if err != nil {
		return err
	}
	asks, err := levelsFromWire(fields[4], "ask")
	if err != nil {
		return err
	}
	*b = Book{Pair: pair, Bids: bids, Asks: asks, TS: ts}
	return nil
}

// Tag implements wire.Typed.
func (b *RawBook) Tag() string { return TagRawBook }

// Fields implements wire.Typed.
func (b *RawBook) Fields() []any {
	bids := make([]any, len(b.Bids))
	for i, l := range b.Bids {
		bids[i] = []any{l.Price, l.Size, l.TS, l.ID}
	}
	asks := make([]any, len(b.Asks))
	for i, l := range b.Asks {
		asks[i] = []any{l.Price, l.Size, l.TS, l.ID}
	}
	return []any{TagRawBook, b.TS, b.Pair, bids, asks}
}

// Hydrate implements wire.Typed.
func (b *RawBook) Hydrate(fields []any) error {
	if err := wantLen(fields, 5, TagRawBook); err != nil {
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
	bids, err := rawLevelsFromWire(fields[3], "bid")
	if err != nil {
		return err
	}
	asks, err := rawLevelsFromWire(fields[4], "ask")
	if err != nil {
		return err
	}
	*b = RawBook{Pair: pair, Bids: bids, Asks: asks, TS: ts}
	return nil
}

func levelFields(l Level) []any {
	return []any{l.Price, l.Size, l.TS}
}

func tupleStrings(v any, side string, i, arity int) ([]string, error) {
	tuple, ok := v.([]any)
	if !ok || len(tuple) != arity {
		return nil, fmt.Errorf("%w: %s level %d must be a %d-element list", ErrBadShape, side, i, arity)
	}
	out := make([]string, arity)
	for j, e := range tuple {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s level %d element %d must be a string, got %T", ErrBadShape, side, i, j, e)
		}
		out[j] = s
	}
	return out, nil
}

func levelFromWire(v any, side string, i int) (Level, error) {
	t, err := tupleStrings(v, side, i, 3)
	if err != nil {
		return Level{}, err
	}
	return Level{Price: t[0], Size: t[1], TS: t[2]}, nil
}

func levelsFromWire(v any, side string) ([]Level, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s side must be a list, got %T", ErrBadShape, side, v)
	}
	levels := make([]Level, len(raw))
	for i, entry := range raw {
		l, err := levelFromWire(entry, side, i)
		if err != nil {
			return nil, err
		}
		levels[i] = l
	}
	return levels, nil
}

func rawLevelsFromWire(v any, side string) ([]RawLevel, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s side must be a list, got %T", ErrBadShape, side, v)
	}
	levels := make([]RawLevel, len(raw))
	for i, entry := range raw {
		t, err := tupleStrings(entry, side, i, 4)
		if err != nil {
			return nil, err
		}
		levels[i] = RawLevel{Price: t[0], Size: t[1], TS: t[2], ID: t[3]}
	}
	return levels, nil
}
