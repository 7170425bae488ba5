package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// SwapInstruction is one step of a swap plan.
//
// When AssetIn equals AssetOut no market swap is needed and the instruction
// degrades to a plain transfer. A plan is consumed exactly once by the
// execution collaborator, strictly after planning has finished.
type SwapInstruction struct {
	AssetIn  common.Address
	AssetOut common.Address
	// AmountIn amount of AssetIn in its base units.
	AmountIn decimal.Decimal
}

// IsTransfer reports whether the instruction needs no market swap.
func (s SwapInstruction) IsTransfer() bool {
	return s.AssetIn == s.AssetOut
}

// String returns a human-readable representation for logs.
func (s SwapInstruction) String() string {
	if s.IsTransfer() {
		return fmt.Sprintf("transfer %s of %s", s.AmountIn, s.AssetIn.Hex())
	}
	return fmt.Sprintf("swap %s of %s -> %s", s.AmountIn, s.AssetIn.Hex(), s.AssetOut.Hex())
}

// AssetAmount pairs an asset with a token amount in its base units.
type AssetAmount struct {
	Asset  common.Address
	Amount decimal.Decimal
}
