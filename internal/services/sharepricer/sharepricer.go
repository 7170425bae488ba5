// Package sharepricer computes index share mint amounts and burn payouts.
package sharepricer

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ilau020203/index/internal/domain"
)

// ShareScale is 10^ShareDecimals, one whole index share in base units.
var ShareScale = domain.Pow10(domain.ShareDecimals)

// MintAmount returns the shares to mint for a USD deposit at
// domain.ProportionScale.
//
/// The first deposit sets the price: with zero supply one share base unit is
// minted per USD unit. Afterwards the mint follows the current basket price
// per share, which must be derivable, so a zero-value basket with outstanding
// shares fails as a degenerate valuation.
func MintAmount(s *domain.Snapshot, usd decimal.Decimal) (decimal.Decimal, error) {
	if usd.IsZero() {
		return decimal.Zero, nil
	}
	if usd.IsNegative() {
		return decimal.Zero, errors.Errorf("negative usd value %s", usd)
	}

	if s.TotalShares.IsZero() {
		return usd, nil
	}

	total, err := basketValue(s)
	if err != nil {
		return decimal.Zero, err
	}

	pricePerShare := domain.DivFloor(total.Mul(ShareScale), s.TotalShares)
	if pricePerShare.IsZero() {
		return decimal.Zero, errors.Wrap(domain.ErrDegenerateValuation, "zero price per share")
	}

	return domain.DivFloor(usd.Mul(ShareScale), pricePerShare), nil
}

// BurnPayouts returns the per-asset payouts for redeeming shareAmount shares.
// The redemption fraction is computed exactly once from the pre-burn supply;
// the caller burns the shares against the same snapshot.
func BurnPayouts(s *domain.Snapshot, shareAmount decimal.Decimal) ([]domain.AssetAmount, error) {
	if shareAmount.IsZero() {
		return nil, nil
	}
	if !s.TotalShares.IsPositive() {
		return nil, errors.New("burn with zero share supply")
	}
	if shareAmount.Cmp(s.TotalShares) > 0 {
		return nil, errors.Errorf("share amount %s exceeds supply %s", shareAmount, s.TotalShares)
	}

	fraction := domain.DivFloor(shareAmount.Mul(ShareScale), s.TotalShares)

	payouts := make([]domain.AssetAmount, 0, len(s.Assets))
	for i, asset := range s.Assets {
		amount := domain.DivFloor(s.Balances[i].Mul(fraction), ShareScale)
		if amount.IsZero() {
			continue
		}
		payouts = append(payouts, domain.AssetAmount{Asset: asset.Address, Amount: amount})
	}

	return payouts, nil
}

func basketValue(s *domain.Snapshot) (decimal.Decimal, error) {
	if err := s.Validate(); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i, asset := range s.Assets {
		num := s.Balances[i].Mul(s.Quotes[i].Price).Mul(domain.ProportionScale)
		den := asset.Unit().Mul(s.Quotes[i].Scale)
		total = total.Add(domain.DivFloor(num, den))
	}

	if total.IsZero() && s.TotalShares.IsPositive() {
		return decimal.Zero, errors.Wrap(domain.ErrDegenerateValuation, "zero basket value with outstanding shares")
	}

	return total, nil
}
