package market

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierbus/courier/core/wire"
)

// TagQuote is the wire type tag for Quote payloads.
const TagQuote = "Quote"

// Quote is a single order-book entry.
//
// Price and Size are decimal strings: keeping the exchange-reported values
// as strings avoids floating point drift across hops. APITS is the business
// timestamp reported by the upstream API; TS is the creation time of this
// record. Quotes are immutable once constructed; aggregation returns new
// instances.
type Quote struct {
	Pair  string
	Price string
	Size  string
	Side  Side
	UID   string
	APITS float64
	TS    float64
}

// NewQuote builds a validated quote stamped with the current time.
// An empty uid gets a generated one.
func NewQuote(pair, price, size string, side Side, uid string, apiTS float64) (*Quote, error) {
	if pair == "" {
		return nil, fmt.Errorf("%w: quote needs a pair", ErrBadShape)
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
	if uid == "" {
		uid = uuid.NewString()
	}
	return &Quote{
		Pair:  pair,
		Price: price,
		Size:  size,
		Side:  side,
		UID:   uid,
		APITS: apiTS,
		TS:    wire.Now(),
	}, nil
}

// Add aggregates two quotes of matching pair, price and side into a new
// quote whose size is the sum of both.
func (q *Quote) Add(other *Quote) (*Quote, error) {
	return q.combine(other, false)
}

// Sub removes other's size from q, for matching pair, price and side.
func (q *Quote) Sub(other *Quote) (*Quote, error) {
	return q.combine(other, true)
}

func (q *Quote) combine(other *Quote, subtract bool) (*Quote, error) {
	if q.Pair != other.Pair {
		return nil, fmt.Errorf("%w: %q vs %q", ErrIncompatiblePairs, q.Pair, other.Pair)
	}
	if q.Side != other.Side {
		return nil, fmt.Errorf("%w: %q vs %q", ErrIncompatibleSides, q.Side, other.Side)
	}
	qp, err := parseDecimal(q.Price, "price")
	if err != nil {
		return nil, err
	}
	op, err := parseDecimal(other.Price, "price")
	if err != nil {
		return nil, err
	}
	if !qp.Equal(op) {
		return nil, fmt.Errorf("%w: %q vs %q", ErrPriceMismatch, q.Price, other.Price)
	}
	qs, err := parseDecimal(q.Size, "size")
	if err != nil {
		return nil, err
	}
	os, err := parseDecimal(other.Size, "size")
	if err != nil {
		return nil, err
	}
	var size decimal.Decimal
	if subtract {
		size = qs.Sub(os)
	} else {
		size = qs.Add(os)
	}
	apiTS := q.APITS
	if other.APITS > apiTS {
		apiTS = other.APITS
	}
	return &Quote{
		Pair:  q.Pair,
		Price: q.Price,
		Size:  size.String(),
		Side:  q.Side,
		UID:   uuid.NewString(),
		APITS: apiTS,
		TS:    wire.Now(),
	}, nil
}

// Order derives an order instruction from the quote with the side flipped,
// unless sameSide is requested.
func (q *Quote) Order(sameSide bool, flags ...string) *Order {
	side := q.Side.Flip()
	if sameSide {
		side = q.Side
	}
	return &Order{
		Pair:  q.Pair,
		Price: q.Price,
		Size:  q.Size,
		Side:  side,
		APITS: q.APITS,
		TS:    wire.Now(),
		Flags: flags,
	}
}

// Tag implements wire.Typed.
func (q *Quote) Tag() string { return TagQuote }

// Fields implements wire.Typed.
func (q *Quote) Fields() []any {
	return []any{TagQuote, q.TS, q.Pair, q.Price, q.Size, string(q.Side), q.UID, q.APITS}
}

// Hydrate implements wire.Typed.
func (q *Quote) Hydrate(fields []any) error {
	if err := wantLen(fields, 8, TagQuote); err != nil {
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
	uid, err := fieldString(fields, 6, "uid")
	if err != nil {
		return err
	}
	apiTS, err := fieldFloat(fields, 7, "api_ts")
	if err != nil {
		return err
	}
	*q = Quote{Pair: pair, Price: price, Size: size, Side: side, UID: uid, APITS: apiTS, TS: ts}
	return nil
}
