package enum

import "strings"

// Side describes the direction of a trade.
type Side uint8

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

// ParseSide maps a wire value to a Side. Matching is case-insensitive.
func ParseSide(s string) Side {
	switch strings.ToUpper(s) {
	case "BUY":
		return SideBuy
	case "SELL":
		return SideSell
	default:
		return SideUnknown
	}
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// IsAvailable reports whether the side is a known trading direction.
func (s Side) IsAvailable() bool {
	return s == SideBuy || s == SideSell
}
