// Package fees implements periodic management-fee accrual.
//
// The model is a balance sweep: fees accumulate in whole fee-period
// increments and are charged against basket balances when withdrawn. There is
// no deposit-time discount, so a fee period is charged exactly once.
package fees

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ilau020203/index/internal/domain"
)

// Accrue computes the fee owed per asset at time now.
//
// Fails with domain.ErrFeePeriodNotElapsed before one full period has passed
// since the account's last fee withdrawal; otherwise every complete elapsed
// period is charged at once: fee = balance × feeBps × periods / 10_000.
// Returns the periods consumed so the caller can advance the account.
func Accrue(account domain.ShareAccount, assets []domain.Asset, balances []decimal.Decimal, now time.Time) ([]domain.AssetAmount, int64, error) {
	periods := account.ElapsedPeriods(now)
	if periods == 0 {
		return nil, 0, errors.Wrapf(domain.ErrFeePeriodNotElapsed,
			"last withdrawal %s, period %s", account.LastFeeWithdrawal.Format(time.RFC3339), account.FeePeriod)
	}
	if account.FeeBps <= 0 {
		return nil, 0, errors.Errorf("non-positive fee rate %d bps", account.FeeBps)
	}

	rate := decimal.NewFromInt(account.FeeBps * periods)

	charges := make([]domain.AssetAmount, 0, len(assets))
	for i, asset := range assets {
		fee := domain.DivFloor(balances[i].Mul(rate), domain.BpsDenominator)
		if fee.IsZero() {
			continue
		}
		charges = append(charges, domain.AssetAmount{Asset: asset.Address, Amount: fee})
	}

	return charges, periods, nil
}

// Advance moves the account's fee clock forward by the given whole periods.
func Advance(account domain.ShareAccount, periods int64) domain.ShareAccount {
	account.LastFeeWithdrawal = account.LastFeeWithdrawal.Add(time.Duration(periods) * account.FeePeriod)
	return account
}
