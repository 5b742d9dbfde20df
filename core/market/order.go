package market

import (
	"fmt"

	"github.com/courierbus/courier/core/wire"
)

// TagOrder is the wire type tag for Order payloads.
const TagOrder = "Order"

// Order is an order instruction. Flags carries free-form execution hints
// (e.g. "post-only") that travel with the order untouched.
type Order struct {
	Pair  string
	Price string
	Size  string
	Side  Side
	APITS float64
	TS    float64
	Flags []string
}

// NewOrder builds a validated order stamped with the current time.
func NewOrder(pair, price, size string, side Side, apiTS float64, flags ...string) (*Order, error) {
	if pair == "" {
		return nil, fmt.Errorf("%w: order needs a pair", ErrBadShape)
	}
	if _, err := parseDecimal(price, "price"); err != nil {
		return nil, err
	}
	if _, err := parseDecimal(size, "size"); err != nil {
		return nil, err
	}
	if _, err := ParseSide(string(side)); err != nil {
		return nil, err
	}
	return &Order{
		Pair:  pair,
		Price: price,
		Size:  size,
		Side:  side,
		APITS: apiTS,
		TS:    wire.Now(),
		Flags: flags,
	}, nil
}

// Tag implements wire.Typed.
func (o *Order) Tag() string { return TagOrder }

// Fields implements wire.Typed.
func (o *Order) Fields() []any {
	flags := make([]any, len(o.Flags))
	for i, f := range o.Flags {
		flags[i] = f
	}
	return []any{TagOrder, o.TS, o.Pair, o.Price, o.Size, string(o.Side), o.APITS, flags}
}

// Hydrate implements wire.Typed.
func (o *Order) Hydrate(fields []any) error {
	if err := wantLen(fields, 8, TagOrder); err != nil {
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
	price, err := fieldString(fields, 3, "price")
	if err != nil {
		return err
	}
	size, err := fieldString(fields, 4, "size")
	if err != nil {
		return err
	}
	rawSide, err := fieldString(fields, 5, "side")
	if err != nil {
		return err
	}
	side, err := ParseSide(rawSide)
	if err != nil {
		return err
	}
	apiTS, err := fieldFloat(fields, 6, "api_ts")
	if err != nil {
		return err
	}
	rawFlags, err := fieldList(fields, 7, "flags")
	if err != nil {
		return err
	}
	flags := make([]string, len(rawFlags))
	for i := range rawFlags {
		flag, ok := rawFlags[i].(string)
		if !ok {
			return fmt.Errorf("%w: flag %d must be a string, got %T", ErrBadShape, i, rawFlags[i])
		}
		flags[i] = flag
	}
	*o = Order{Pair: pair, Price: price, Size: size, Side: side, APITS: apiTS, TS: ts, Flags: flags}
	return nil
}
