package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Snapshot is the consistent per-request view of the basket.
//
// It is built exactly once at the start of a deposit, withdraw, rebalance or
// fee computation and must not be refreshed mid-computation: every algorithm
// assumes balances and prices are fixed for the duration of one call.
// Balances and Quotes are parallel to Assets.
type Snapshot struct {
	Assets   []Asset
	Balances []decimal.Decimal
	Quotes   []Quote

	// Base is the currency deposits and withdrawals are denominated in.
	Base      Asset
	BaseQuote Quote

	// TotalShares index share supply at snapshot time.
	TotalShares decimal.Decimal
}

// Validate checks the snapshot shape before any computation runs.
func (s *Snapshot) Validate() error {
	if len(s.Balances) != len(s.Assets) || len(s.Quotes) != len(s.Assets) {
		return errors.Errorf("snapshot shape mismatch: %d assets, %d balances, %d quotes",
			len(s.Assets), len(s.Balances), len(s.Quotes))
	}
	for i, q := range s.Quotes {
		if !q.Positive() {
			return errors.Wrapf(ErrDegenerateValuation, "asset %s", s.Assets[i])
		}
	}
	if !s.BaseQuote.Positive() {
		return errors.Wrap(ErrDegenerateValuation, "base currency")
	}
	return nil
}
