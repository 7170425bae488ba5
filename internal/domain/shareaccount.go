package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShareAccount tracks the index share supply and management-fee state.
//
// Created at basket genesis with zero supply; mutated on every deposit (mint),
// withdraw (burn) and fee withdrawal (timestamp advance only).
type ShareAccount struct {
	TotalShares decimal.Decimal
	FeeBps      int64
	FeePeriod   time.Duration
	// LastFeeWithdrawal advances only in whole FeePeriod increments.
	LastFeeWithdrawal time.Time
}

// ElapsedPeriods returns how many complete fee periods passed since the last
// withdrawal.
func (a ShareAccount) ElapsedPeriods(now time.Time) int64 {
	if a.FeePeriod <= 0 {
		return 0
	}
	elapsed := now.Sub(a.LastFeeWithdrawal)
	if elapsed < a.FeePeriod {
		return 0
	}
	return int64(elapsed / a.FeePeriod)
}
