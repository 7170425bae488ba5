package router

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ilau020203/index/internal/domain"
	"github.com/ilau020203/index/internal/services/pricer"
	"github.com/ilau020203/index/internal/services/valuation"
)

// SimRouter fills swaps at quoted prices with no slippage. It stands in for
// the on-chain venue during simulation and tests; ledger effects of a fill
// are applied by the caller.
type SimRouter struct {
	logger   *zap.Logger
	pricer   pricer.Pricer
	decimals map[common.Address]int32
}

// NewSimRouter creates a simulated router.
func NewSimRouter(logger *zap.Logger, p pricer.Pricer, decimals map[common.Address]int32) *SimRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimRouter{logger: logger, pricer: p, decimals: decimals}
}

// Swap converts amountIn of the in-asset into the out-asset at current
// quotes. Plain transfers fill 1:1.
func (r *SimRouter) Swap(ctx context.Context, instruction domain.SwapInstruction, route Route, recipient common.Address, deadline time.Time, minOut decimal.Decimal) (decimal.Decimal, error) {
	if !deadline.IsZero() && time.Now().After(deadline) {
		return decimal.Zero, errors.Errorf("deadline %s passed", deadline.Format(time.RFC3339))
	}
	if instruction.AmountIn.IsZero() {
		return decimal.Zero, nil
	}

	fillID := uuid.NewString()

	amountOut := instruction.AmountIn
	if !instruction.IsTransfer() {
		inDecimals, ok := r.decimals[instruction.AssetIn]
		if !ok {
			return decimal.Zero, errors.Errorf("unknown decimals for %s", instruction.AssetIn.Hex())
		}
		outDecimals, ok := r.decimals[instruction.AssetOut]
		if !ok {
			return decimal.Zero, errors.Errorf("unknown decimals for %s", instruction.AssetOut.Hex())
		}

		inQuote, err := r.pricer.GetQuote(ctx, instruction.AssetIn)
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "quote in-asset")
		}
		outQuote, err := r.pricer.GetQuote(ctx, instruction.AssetOut)
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "quote out-asset")
		}

		usd := valuation.USDValue(instruction.AmountIn, inQuote, inDecimals)
		amountOut, err = valuation.TokenAmount(usd, outQuote, outDecimals)
		if err != nil {
			return decimal.Zero, err
		}
	}

	if amountOut.Cmp(minOut) < 0 {
		return decimal.Zero, errors.Errorf("fill %s below min out %s", amountOut, minOut)
	}

	r.logger.Debug("sim fill",
		zap.String("fill_id", fillID),
		zap.String("instruction", instruction.String()),
		zap.String("amount_out", amountOut.String()),
		zap.String("recipient", recipient.Hex()))

	return amountOut, nil
}
