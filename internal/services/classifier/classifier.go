// Package classifier partitions basket assets into deficit and surplus sets
// relative to their target proportions.
package classifier

import (
	"github.com/shopspring/decimal"

	"github.com/ilau020203/index/internal/domain"
)

// Classification is the result of comparing current to target proportions.
// Index lists follow asset-list order, so identical snapshots always classify
// identically. An asset exactly at target appears in neither list.
type Classification struct {
	// Imbalances tagged delta per asset, parallel to the asset list.
	Imbalances []domain.Imbalance

	// DeficitIdx asset indices below target; DeficitUSD the matching
	// magnitudes at domain.ProportionScale.
	DeficitIdx []int
	DeficitUSD []decimal.Decimal

	// SurplusIdx asset indices above target; SurplusUSD the magnitudes.
	SurplusIdx []int
	SurplusUSD []decimal.Decimal

	TotalDeficitUSD decimal.Decimal
	TotalSurplusUSD decimal.Decimal
}

// Classify derives the deficit/surplus partition from one proportion snapshot.
// Magnitudes are |target−current| converted to USD through the total basket
// value.
func Classify(current, target []decimal.Decimal, totalUSD decimal.Decimal) Classification {
	c := Classification{
		Imbalances:      make([]domain.Imbalance, len(current)),
		TotalDeficitUSD: decimal.Zero,
		TotalSurplusUSD: decimal.Zero,
	}

	for i := range current {
		diff := target[i].Sub(current[i])
		switch {
		case diff.IsPositive():
			usd := domain.DivFloor(diff.Mul(totalUSD), domain.ProportionScale)
			c.Imbalances[i] = domain.Imbalance{Kind: domain.Deficit, USD: usd}
			c.DeficitIdx = append(c.DeficitIdx, i)
			c.DeficitUSD = append(c.DeficitUSD, usd)
			c.TotalDeficitUSD = c.TotalDeficitUSD.Add(usd)
		case diff.IsNegative():
			usd := domain.DivFloor(diff.Neg().Mul(totalUSD), domain.ProportionScale)
			c.Imbalances[i] = domain.Imbalance{Kind: domain.Surplus, USD: usd}
			c.SurplusIdx = append(c.SurplusIdx, i)
			c.SurplusUSD = append(c.SurplusUSD, usd)
			c.TotalSurplusUSD = c.TotalSurplusUSD.Add(usd)
		default:
			c.Imbalances[i] = domain.Imbalance{Kind: domain.Balanced, USD: decimal.Zero}
		}
	}

	return c
}
