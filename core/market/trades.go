package market

import (
	"fmt"

	"github.com/courierbus/courier/core/wire"
)

// TagTrades is the wire type tag for Trades payloads.
const TagTrades = "Trades"

// Trade is one executed trade print. All scalar fields are stringified on
// the wire; Misc carries any extra per-trade data an exchange reports and
// travels as-is.
type Trade struct {
	Pair  string
	Price string
	Size  string
	Side  string
	UID   string
	Misc  any
	TS    string
}

// Trades batches executed trade prints into one payload.
type Trades struct {
	Entries []Trade
	TS      float64
}

// NewTrades builds a trades batch stamped with the current time.
func NewTrades(entries ...Trade) *Trades {
	return &Trades{Entries: entries, TS: wire.Now()}
}

// Tag implements wire.Typed.
func (t *Trades) Tag() string { return TagTrades }

// Fields implements wire.Typed. Each entry is a 7-element list:
// pair, price, size, side, uid, misc, ts.
func (t *Trades) Fields() []any {
	entries := make([]any, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = []any{e.Pair, e.Price, e.Size, e.Side, e.UID, e.Misc, e.TS}
	}
	return []any{TagTrades, t.TS, entries}
}

// Hydrate implements wire.Typed.
func (t *Trades) Hydrate(fields []any) error {
	if err := wantLen(fields, 3, TagTrades); err != nil {
		return err
	}
	ts, err := fieldFloat(fields, 1, "ts")
	if err != nil {
		return err
	}
	rawEntries, err := fieldList(fields, 2, "trades")
	if err != nil {
		return err
	}
	entries := make([]Trade, len(rawEntries))
	for i, raw := range rawEntries {
		tuple, ok := raw.([]any)
		if !ok || len(tuple) != 7 {
			return fmt.Errorf("%w: trade %d must be a 7-element list", ErrBadShape, i)
		}
		var entry Trade
		for j, dst := range []*string{&entry.Pair, &entry.Price, &entry.Size, &entry.Side, &entry.UID} {
			s, ok := tuple[j].(string)
			if !ok {
				return fmt.Errorf("%w: trade %d element %d must be a string, got %T", ErrBadShape, i, j, tuple[j])
			}
			*dst = s
		}
		entry.Misc = tuple[5]
		entryTS, ok := tuple[6].(string)
		if !ok {
			return fmt.Errorf("%w: trade %d timestamp must be a string, got %T", ErrBadShape, i, tuple[6])
		}
		entry.TS = entryTS
		entries[i] = entry
	}
	*t = Trades{Entries: entries, TS: ts}
	return nil
}
