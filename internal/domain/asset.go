// Package domain defines core data structures used throughout the index engine.
package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ProportionScale is the fixed-point scale for proportions and USD values (1e18).
var ProportionScale = decimal.New(1, 18)

// BpsDenominator converts basis points into fractions (10_000 bps = 100%).
var BpsDenominator = decimal.NewFromInt(10_000)

// ShareDecimals is the decimal precision of the index share token.
const ShareDecimals = 18

// Asset describes one basket constituent.
type Asset struct {
	// Address identifies the token.
	Address common.Address
	// Decimals token precision, amounts are held in base units.
	Decimals int32
	// Target desired USD-weighted proportion at ProportionScale.
	Target decimal.Decimal
}

// NewAsset builds an asset entry with the target given in basis points.
func NewAsset(address common.Address, decimals int32, targetBps int64) Asset {
	return Asset{
		Address:  address,
		Decimals: decimals,
		Target:   TargetFromBps(targetBps),
	}
}

// TargetFromBps converts basis points to a ProportionScale fraction.
func TargetFromBps(bps int64) decimal.Decimal {
	return decimal.NewFromInt(bps).Mul(ProportionScale).Div(BpsDenominator)
}

// Unit returns 10^Decimals, one whole token in base units.
func (a Asset) Unit() decimal.Decimal {
	return Pow10(a.Decimals)
}

// String returns a short identifier for logs.
func (a Asset) String() string {
	return fmt.Sprintf("%s/%d", a.Address.Hex(), a.Decimals)
}

// Pow10 returns 10^n as a decimal.
func Pow10(n int32) decimal.Decimal {
	return decimal.New(1, n)
}

// DivFloor divides a by b rounding toward zero. All engine values are
// non-negative, so this is floor division; callers keep the remainder
// themselves and assign it to the last element of a distribution.
func DivFloor(a, b decimal.Decimal) decimal.Decimal {
	q, _ := a.QuoRem(b, 0)
	return q
}
