package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Quote is a single USD price observation for an asset.
//
// Price is USD per whole token at the oracle's fixed scale: the USD value of
// one whole token equals Price/Scale. Quotes are read fresh for every
// computation and never cached across calls.
type Quote struct {
	Asset common.Address
	Price decimal.Decimal
	// Scale oracle scale factor, 10^oracleDecimals.
	Scale decimal.Decimal
}

// Positive reports whether the quote carries a usable price.
func (q Quote) Positive() bool {
	return q.Price.IsPositive() && q.Scale.IsPositive()
}
