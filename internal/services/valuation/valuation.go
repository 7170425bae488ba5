// Package valuation converts balances and price quotes into USD values and
// normalized basket proportions.
package valuation

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ilau020203/index/internal/domain"
)

// Result is one consistent measurement of the basket.
type Result struct {
	// Values per-asset USD value at domain.ProportionScale.
	Values []decimal.Decimal
	// Total sum of Values.
	Total decimal.Decimal
	// Proportions per-asset share of Total at domain.ProportionScale.
	// Sums to the scale within len(Values)-1 least-significant units.
	Proportions []decimal.Decimal
}

// USDValue converts a token balance into USD at domain.ProportionScale.
func USDValue(balance decimal.Decimal, quote domain.Quote, decimals int32) decimal.Decimal {
	if balance.IsZero() {
		return decimal.Zero
	}
	num := balance.Mul(quote.Price).Mul(domain.ProportionScale)
	den := domain.Pow10(decimals).Mul(quote.Scale)
	return domain.DivFloor(num, den)
}

// TokenAmount converts a USD value at domain.ProportionScale back into token
// base units through the asset's own quote.
func TokenAmount(usd decimal.Decimal, quote domain.Quote, decimals int32) (decimal.Decimal, error) {
	if usd.IsZero() {
		return decimal.Zero, nil
	}
	if !quote.Positive() {
		return decimal.Zero, errors.Wrapf(domain.ErrDegenerateValuation, "quote for %s", quote.Asset.Hex())
	}
	num := usd.Mul(domain.Pow10(decimals)).Mul(quote.Scale)
	den := quote.Price.Mul(domain.ProportionScale)
	return domain.DivFloor(num, den), nil
}

// Measure values every asset in the snapshot and derives current proportions.
//
// A zero-value basket with zero supply is the bootstrap state and yields
// all-zero proportions; a zero-value basket with outstanding shares is a
// degenerate valuation and fails rather than returning plausible zeros.
func Measure(s *domain.Snapshot) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{
		Values:      make([]decimal.Decimal, len(s.Assets)),
		Total:       decimal.Zero,
		Proportions: make([]decimal.Decimal, len(s.Assets)),
	}

	for i, asset := range s.Assets {
		res.Values[i] = USDValue(s.Balances[i], s.Quotes[i], asset.Decimals)
		res.Total = res.Total.Add(res.Values[i])
	}

	if res.Total.IsZero() {
		if s.TotalShares.IsPositive() {
			return Result{}, errors.Wrap(domain.ErrDegenerateValuation, "zero basket value with outstanding shares")
		}
		for i := range res.Proportions {
			res.Proportions[i] = decimal.Zero
		}
		return res, nil
	}

	for i := range s.Assets {
		res.Proportions[i] = domain.DivFloor(res.Values[i].Mul(domain.ProportionScale), res.Total)
	}

	return res, nil
}
