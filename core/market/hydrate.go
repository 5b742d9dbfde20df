package market

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Positional hydration helpers. Wire lists arrive as []any decoded from
// JSON, so every field access validates both arity and element type before
// any payload field is assigned.

func wantLen(fields []any, n int, tag string) error {
	if len(fields) != n {
		return fmt.Errorf("%w: %s wants %d fields, got %d", ErrBadShape, tag, n, len(fields))
	}
	return nil
}

func fieldString(fields []any, i int, name string) (string, error) {
	s, ok := fields[i].(string)
	if !ok {
		return "", fmt.Errorf("%w: field %s must be a string, got %T", ErrBadShape, name, fields[i])
	}
	return s, nil
}

func fieldFloat(fields []any, i int, name string) (float64, error) {
	f, ok := fields[i].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: field %s must be a number, got %T", ErrBadShape, name, fields[i])
	}
	return f, nil
}

func fieldList(fields []any, i int, name string) ([]any, error) {
	l, ok := fields[i].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: field %s must be a list, got %T", ErrBadShape, name, fields[i])
	}
	return l, nil
}

func parseDecimal(s, name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: field %s is not a decimal string: %q", ErrBadShape, name, s)
	}
	return d, nil
}
