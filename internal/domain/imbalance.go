package domain

import "github.com/shopspring/decimal"

// ImbalanceKind tags how an asset sits relative to its target proportion.
type ImbalanceKind int

const (
	Balanced ImbalanceKind = iota
	Deficit
	Surplus
)

// String returns the string representation of the kind.
func (k ImbalanceKind) String() string {
	switch k {
	case Deficit:
		return "deficit"
	case Surplus:
		return "surplus"
	default:
		return "balanced"
	}
}

// Imbalance is a tagged per-asset delta. USD is a non-negative magnitude at
// ProportionScale; the kind carries the sign, which avoids the sign-convention
// ambiguity of raw signed deltas.
type Imbalance struct {
	Kind ImbalanceKind
	USD  decimal.Decimal
}
