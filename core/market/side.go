package market

import "fmt"

// Side labels which side of the market a quote or order belongs to.
type Side string

const (
	SideBid  Side = "bid"
	SideAsk  Side = "ask"
	SideBuy  Side = "buy"
	SideSell Side = "sell"
	SideNone Side = "N/A"
)

// ParseSide validates a wire string against the known side set.
func ParseSide(s string) (Side, error) {
	switch side := Side(s); side {
	case SideBid, SideAsk, SideBuy, SideSell, SideNone:
		return side, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
	}
}

// Flip returns the opposing side: bid<->ask, buy<->sell. SideNone has no
// opposite and is returned unchanged.
func (s Side) Flip() Side {
	switch s {
	case SideBid:
		return SideAsk
	case SideAsk:
		return SideBid
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return s
	}
}
