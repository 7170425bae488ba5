// Package planner converts deposit and withdraw requests into ordered swap
// instruction lists that steer the basket toward its target proportions.
package planner

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ilau020203/index/internal/domain"
	"github.com/ilau020203/index/internal/services/classifier"
	"github.com/ilau020203/index/internal/services/valuation"
)

// Planner produces swap plans from a single consistent snapshot. It is a pure
// computation over the snapshot: planning twice from the same snapshot yields
// identical plans, and nothing is executed until the full plan exists.
type Planner struct {
	logger *zap.Logger
}

// New creates a Planner.
func New(logger *zap.Logger) *Planner {
	return &Planner{logger: logger}
}

// PlanDeposit allocates a base-currency deposit across the basket.
//
// With zero share supply the deposit bootstraps the basket and is split
// directly by target proportions. Otherwise deficit assets are funded first:
// if the total deficit covers the whole budget only deficit assets receive
// instructions; if the budget exceeds the total deficit every gap is closed
// and the leftover is spread by target proportion. In every branch the
// rounding remainder goes to the last participating asset, so emitted amounts
// sum to the deposit exactly.
func (p *Planner) PlanDeposit(s *domain.Snapshot, amount decimal.Decimal) ([]domain.SwapInstruction, error) {
	if amount.IsZero() {
		return nil, nil
	}
	if amount.IsNegative() {
		return nil, errors.Errorf("negative deposit amount %s", amount)
	}
	if len(s.Assets) == 0 {
		return nil, errors.New("empty basket")
	}

	if s.TotalShares.IsZero() {
		return p.bootstrapSplit(s, amount), nil
	}

	measured, err := valuation.Measure(s)
	if err != nil {
		return nil, err
	}

	budgetUSD := valuation.USDValue(amount, s.BaseQuote, s.Base.Decimals)
	targets := targetsOf(s.Assets)
	cls := classifier.Classify(measured.Proportions, targets, measured.Total)

	// Deposit-favoring boundary: when the total deficit exactly equals the
	// budget the whole deposit still goes through the deficit-only walk.
	if len(cls.DeficitIdx) > 0 && cls.TotalDeficitUSD.Cmp(budgetUSD) >= 0 {
		return p.deficitOnlySplit(s, cls, amount), nil
	}

	return p.closeGapsAndSpread(s, cls, amount, targets)
}

// bootstrapSplit divides the raw deposit by target proportions; there is no
// current basket to compare against yet.
func (p *Planner) bootstrapSplit(s *domain.Snapshot, amount decimal.Decimal) []domain.SwapInstruction {
	instructions := make([]domain.SwapInstruction, 0, len(s.Assets))
	assigned := decimal.Zero

	for i, asset := range s.Assets {
		var part decimal.Decimal
		if i == len(s.Assets)-1 {
			part = amount.Sub(assigned)
		} else {
			part = domain.DivFloor(amount.Mul(asset.Target), domain.ProportionScale)
		}
		assigned = assigned.Add(part)
		if part.IsZero() {
			continue
		}
		instructions = append(instructions, domain.SwapInstruction{
			AssetIn:  s.Base.Address,
			AssetOut: asset.Address,
			AmountIn: part,
		})
	}

	p.logger.Debug("bootstrap deposit plan",
		zap.Int("instructions", len(instructions)),
		zap.String("amount", amount.String()))

	return instructions
}

// deficitOnlySplit walks deficit assets in asset-list order, giving each its
// deficit share of the budget. The last deficit asset takes whatever budget
// remains unassigned, and the walk stops early once the budget is exhausted.
func (p *Planner) deficitOnlySplit(s *domain.Snapshot, cls classifier.Classification, amount decimal.Decimal) []domain.SwapInstruction {
	instructions := make([]domain.SwapInstruction, 0, len(cls.DeficitIdx))
	remaining := amount

	for k, idx := range cls.DeficitIdx {
		if remaining.IsZero() {
			break
		}
		var part decimal.Decimal
		if k == len(cls.DeficitIdx)-1 {
			part = remaining
		} else {
			part = domain.DivFloor(amount.Mul(cls.DeficitUSD[k]), cls.TotalDeficitUSD)
			if part.Cmp(remaining) > 0 {
				part = remaining
			}
		}
		remaining = remaining.Sub(part)
		if part.IsZero() {
			continue
		}
		instructions = append(instructions, domain.SwapInstruction{
			AssetIn:  s.Base.Address,
			AssetOut: s.Assets[idx].Address,
			AmountIn: part,
		})
	}

	return instructions
}

// closeGapsAndSpread fully funds every deficit, then distributes the leftover
// budget across all assets by target proportion with the remainder assigned
// to the last asset.
func (p *Planner) closeGapsAndSpread(s *domain.Snapshot, cls classifier.Classification, amount decimal.Decimal, targets []decimal.Decimal) ([]domain.SwapInstruction, error) {
	amounts := make([]decimal.Decimal, len(s.Assets))
	for i := range amounts {
		amounts[i] = decimal.Zero
	}

	consumed := decimal.Zero
	for k, idx := range cls.DeficitIdx {
		part, err := valuation.TokenAmount(cls.DeficitUSD[k], s.BaseQuote, s.Base.Decimals)
		if err != nil {
			return nil, err
		}
		if left := amount.Sub(consumed); part.Cmp(left) > 0 {
			part = left
		}
		amounts[idx] = amounts[idx].Add(part)
		consumed = consumed.Add(part)
	}

	leftover := amount.Sub(consumed)
	assigned := decimal.Zero
	last := len(s.Assets) - 1
	for i := range s.Assets {
		var part decimal.Decimal
		if i == last {
			part = leftover.Sub(assigned)
		} else {
			part = domain.DivFloor(leftover.Mul(targets[i]), domain.ProportionScale)
		}
		assigned = assigned.Add(part)
		amounts[i] = amounts[i].Add(part)
	}

	instructions := make([]domain.SwapInstruction, 0, len(s.Assets))
	for i, asset := range s.Assets {
		if amounts[i].IsZero() {
			continue
		}
		instructions = append(instructions, domain.SwapInstruction{
			AssetIn:  s.Base.Address,
			AssetOut: asset.Address,
			AmountIn: amounts[i],
		})
	}

	return instructions, nil
}

// PlanWithdraw converts a share redemption into instructions that move basket
// assets back into the base currency. Surplus assets are drawn down first,
// mirroring the deposit direction; with zero share supply the whole basket is
// liquidated to the final withdrawer.
func (p *Planner) PlanWithdraw(s *domain.Snapshot, shareAmount decimal.Decimal) ([]domain.SwapInstruction, error) {
	if shareAmount.IsZero() {
		return nil, nil
	}
	if shareAmount.IsNegative() {
		return nil, errors.Errorf("negative share amount %s", shareAmount)
	}

	if s.TotalShares.IsZero() {
		return p.liquidationPlan(s), nil
	}

	if shareAmount.Cmp(s.TotalShares) > 0 {
		return nil, errors.Errorf("share amount %s exceeds supply %s", shareAmount, s.TotalShares)
	}

	measured, err := valuation.Measure(s)
	if err != nil {
		return nil, err
	}
	if measured.Total.IsZero() {
		return nil, errors.Wrap(domain.ErrDegenerateValuation, "withdraw from zero-value basket")
	}

	budgetUSD := domain.DivFloor(measured.Total.Mul(shareAmount), s.TotalShares)
	targets := targetsOf(s.Assets)
	cls := classifier.Classify(measured.Proportions, targets, measured.Total)

	if len(cls.SurplusIdx) > 0 && cls.TotalSurplusUSD.Cmp(budgetUSD) >= 0 {
		return p.surplusOnlyDraw(s, cls, budgetUSD)
	}

	return p.drainSurplusAndSpread(s, cls, budgetUSD, targets)
}

// liquidationPlan empties the basket: one transfer-out per held asset.
func (p *Planner) liquidationPlan(s *domain.Snapshot) []domain.SwapInstruction {
	instructions := make([]domain.SwapInstruction, 0, len(s.Assets))
	for i, asset := range s.Assets {
		if s.Balances[i].IsZero() {
			continue
		}
		instructions = append(instructions, domain.SwapInstruction{
			AssetIn:  asset.Address,
			AssetOut: s.Base.Address,
			AmountIn: s.Balances[i],
		})
	}
	return instructions
}

// surplusOnlyDraw allocates the withdrawal USD budget across surplus assets
// in asset-list order, last surplus asset absorbing the remainder.
func (p *Planner) surplusOnlyDraw(s *domain.Snapshot, cls classifier.Classification, budgetUSD decimal.Decimal) ([]domain.SwapInstruction, error) {
	instructions := make([]domain.SwapInstruction, 0, len(cls.SurplusIdx))
	remainingUSD := budgetUSD

	for k, idx := range cls.SurplusIdx {
		if remainingUSD.IsZero() {
			break
		}
		var partUSD decimal.Decimal
		if k == len(cls.SurplusIdx)-1 {
			partUSD = remainingUSD
		} else {
			partUSD = domain.DivFloor(budgetUSD.Mul(cls.SurplusUSD[k]), cls.TotalSurplusUSD)
			if partUSD.Cmp(remainingUSD) > 0 {
				partUSD = remainingUSD
			}
		}
		remainingUSD = remainingUSD.Sub(partUSD)

		amount, err := valuation.TokenAmount(partUSD, s.Quotes[idx], s.Assets[idx].Decimals)
		if err != nil {
			return nil, err
		}
		if amount.Cmp(s.Balances[idx]) > 0 {
			amount = s.Balances[idx]
		}
		if amount.IsZero() {
			continue
		}
		instructions = append(instructions, domain.SwapInstruction{
			AssetIn:  s.Assets[idx].Address,
			AssetOut: s.Base.Address,
			AmountIn: amount,
		})
	}

	return instructions, nil
}

// drainSurplusAndSpread removes every surplus fully, then draws the rest of
// the budget from all assets by target proportion, remainder to the last.
func (p *Planner) drainSurplusAndSpread(s *domain.Snapshot, cls classifier.Classification, budgetUSD decimal.Decimal, targets []decimal.Decimal) ([]domain.SwapInstruction, error) {
	perAssetUSD := make([]decimal.Decimal, len(s.Assets))
	for i := range perAssetUSD {
		perAssetUSD[i] = decimal.Zero
	}

	consumed := decimal.Zero
	for k, idx := range cls.SurplusIdx {
		partUSD := cls.SurplusUSD[k]
		if left := budgetUSD.Sub(consumed); partUSD.Cmp(left) > 0 {
			partUSD = left
		}
		perAssetUSD[idx] = perAssetUSD[idx].Add(partUSD)
		consumed = consumed.Add(partUSD)
	}

	leftover := budgetUSD.Sub(consumed)
	assigned := decimal.Zero
	last := len(s.Assets) - 1
	for i := range s.Assets {
		var partUSD decimal.Decimal
		if i == last {
			partUSD = leftover.Sub(assigned)
		} else {
			partUSD = domain.DivFloor(leftover.Mul(targets[i]), domain.ProportionScale)
		}
		assigned = assigned.Add(partUSD)
		perAssetUSD[i] = perAssetUSD[i].Add(partUSD)
	}

	instructions := make([]domain.SwapInstruction, 0, len(s.Assets))
	for i, asset := range s.Assets {
		amount, err := valuation.TokenAmount(perAssetUSD[i], s.Quotes[i], asset.Decimals)
		if err != nil {
			return nil, err
		}
		if amount.Cmp(s.Balances[i]) > 0 {
			amount = s.Balances[i]
		}
		if amount.IsZero() {
			continue
		}
		instructions = append(instructions, domain.SwapInstruction{
			AssetIn:  asset.Address,
			AssetOut: s.Base.Address,
			AmountIn: amount,
		})
	}

	return instructions, nil
}

func targetsOf(assets []domain.Asset) []decimal.Decimal {
	targets := make([]decimal.Decimal, len(assets))
	for i, a := range assets {
		targets[i] = a.Target
	}
	return targets
}
