// Package services wires the index engine together: snapshotting the basket,
// planning swaps, pricing shares and executing the results against the ledger
// and router collaborators.
package services

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ilau020203/index/internal/domain"
	"github.com/ilau020203/index/internal/services/basket"
	"github.com/ilau020203/index/internal/services/fees"
	"github.com/ilau020203/index/internal/services/planner"
	"github.com/ilau020203/index/internal/services/pricer"
	"github.com/ilau020203/index/internal/services/router"
	"github.com/ilau020203/index/internal/services/sharepricer"
	"github.com/ilau020203/index/internal/services/valuation"
)

// Ledger is the basket custody collaborator.
type Ledger interface {
	Assets() []domain.Asset
	SetAssets(assets []domain.Asset) error
	BalanceOf(asset common.Address) decimal.Decimal
	Credit(asset common.Address, amount decimal.Decimal) error
	Debit(asset common.Address, amount decimal.Decimal) error
	TotalShares() decimal.Decimal
	ShareAccount() domain.ShareAccount
	MintShares(amount decimal.Decimal) error
	BurnShares(amount decimal.Decimal) error
	AdvanceFeeClock(periods int64) error
}

// IndexService runs deposits, withdrawals, rebalances and fee withdrawals
// against one basket. Every operation reads a single snapshot, computes the
// full plan, and only then executes it; a failed plan executes nothing.
type IndexService struct {
	logger   *zap.Logger
	ledger   Ledger
	pricer   pricer.Pricer
	routes   *router.RouteTable
	router   router.Router
	planner  *planner.Planner
	base     domain.Asset
	feeSink  common.Address
	vault    common.Address
	deadline time.Duration
}

// NewIndexService creates the orchestrator.
func NewIndexService(logger *zap.Logger, ledger Ledger, p pricer.Pricer, routes *router.RouteTable, r router.Router, base domain.Asset, feeSink, vault common.Address, swapDeadline time.Duration) *IndexService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexService{
		logger:   logger,
		ledger:   ledger,
		pricer:   p,
		routes:   routes,
		router:   r,
		planner:  planner.New(logger),
		base:     base,
		feeSink:  feeSink,
		vault:    vault,
		deadline: swapDeadline,
	}
}

// snapshot reads one consistent view of the basket: ordered assets, balances
// and fresh quotes. Nothing downstream may re-read prices mid-computation.
func (s *IndexService) snapshot(ctx context.Context) (*domain.Snapshot, error) {
	assets := s.ledger.Assets()

	snap := &domain.Snapshot{
		Assets:      assets,
		Balances:    make([]decimal.Decimal, len(assets)),
		Quotes:      make([]domain.Quote, len(assets)),
		Base:        s.base,
		TotalShares: s.ledger.TotalShares(),
	}

	for i, asset := range assets {
		snap.Balances[i] = s.ledger.BalanceOf(asset.Address)
		quote, err := s.pricer.GetQuote(ctx, asset.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "quote %s", asset)
		}
		snap.Quotes[i] = quote
	}

	baseQuote, err := s.pricer.GetQuote(ctx, s.base.Address)
	if err != nil {
		return nil, errors.Wrap(err, "quote base currency")
	}
	snap.BaseQuote = baseQuote

	return snap, nil
}

// PlanDeposit computes the swap plan for a base-currency deposit without
// executing it.
func (s *IndexService) PlanDeposit(ctx context.Context, amount decimal.Decimal) ([]domain.SwapInstruction, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.planner.PlanDeposit(snap, amount)
}

// PlanWithdraw computes the swap plan for a share redemption without
// executing it.
func (s *IndexService) PlanWithdraw(ctx context.Context, shareAmount decimal.Decimal) ([]domain.SwapInstruction, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.planner.PlanWithdraw(snap, shareAmount)
}

// MintAmount returns the shares a USD deposit would mint right now.
func (s *IndexService) MintAmount(ctx context.Context, usd decimal.Decimal) (decimal.Decimal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return sharepricer.MintAmount(snap, usd)
}

// BurnPayouts returns the per-asset payouts redeeming shareAmount would yield
// right now.
func (s *IndexService) BurnPayouts(ctx context.Context, shareAmount decimal.Decimal) ([]domain.AssetAmount, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return sharepricer.BurnPayouts(snap, shareAmount)
}

// Deposit allocates a base-currency deposit across the basket and mints
// shares for its USD value.
func (s *IndexService) Deposit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	plan, err := s.planner.PlanDeposit(snap, amount)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "plan deposit")
	}

	usd := valuation.USDValue(amount, snap.BaseQuote, snap.Base.Decimals)
	shares, err := sharepricer.MintAmount(snap, usd)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "price shares")
	}

	resolved, err := s.resolveRoutes(plan)
	if err != nil {
		return decimal.Zero, err
	}

	for i, instruction := range plan {
		amountOut, err := s.router.Swap(ctx, instruction, resolved[i], s.vault, s.swapDeadline(), decimal.Zero)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "execute %s", instruction)
		}
		if err := s.ledger.Credit(instruction.AssetOut, amountOut); err != nil {
			return decimal.Zero, errors.Wrap(err, "credit basket")
		}
	}

	if err := s.ledger.MintShares(shares); err != nil {
		return decimal.Zero, errors.Wrap(err, "mint shares")
	}

	s.logger.Info("deposit executed",
		zap.String("amount", amount.String()),
		zap.String("usd", usd.String()),
		zap.String("shares", shares.String()),
		zap.Int("instructions", len(plan)))

	return shares, nil
}

// Withdraw redeems shares: the redemption fraction comes from the pre-burn
// snapshot exactly once, shares burn before any instruction executes, and the
// plan then moves basket assets out toward the base currency.
func (s *IndexService) Withdraw(ctx context.Context, shareAmount decimal.Decimal) (decimal.Decimal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	plan, err := s.planner.PlanWithdraw(snap, shareAmount)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "plan withdraw")
	}

	resolved, err := s.resolveRoutes(plan)
	if err != nil {
		return decimal.Zero, err
	}

	if snap.TotalShares.IsPositive() {
		if err := s.ledger.BurnShares(shareAmount); err != nil {
			return decimal.Zero, errors.Wrap(err, "burn shares")
		}
	}

	totalOut := decimal.Zero
	for i, instruction := range plan {
		amountOut, err := s.router.Swap(ctx, instruction, resolved[i], s.vault, s.swapDeadline(), decimal.Zero)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "execute %s", instruction)
		}
		if err := s.ledger.Debit(instruction.AssetIn, instruction.AmountIn); err != nil {
			return decimal.Zero, errors.Wrap(err, "debit basket")
		}
		totalOut = totalOut.Add(amountOut)
	}

	s.logger.Info("withdraw executed",
		zap.String("shares", shareAmount.String()),
		zap.String("base_out", totalOut.String()),
		zap.Int("instructions", len(plan)))

	return totalOut, nil
}

// Rebalance executes an admin-supplied instruction list. The engine does not
// compute these; it only validates routes up front so execution is
// all-or-nothing.
func (s *IndexService) Rebalance(ctx context.Context, cap domain.AdminCapability, instructions []domain.SwapInstruction) error {
	if !cap.Valid() {
		return basket.ErrUnauthorized
	}

	plan := make([]domain.SwapInstruction, 0, len(instructions))
	for _, instruction := range instructions {
		if instruction.AmountIn.IsZero() {
			continue
		}
		plan = append(plan, instruction)
	}

	resolved, err := s.resolveRoutes(plan)
	if err != nil {
		return err
	}

	for i, instruction := range plan {
		amountOut, err := s.router.Swap(ctx, instruction, resolved[i], s.vault, s.swapDeadline(), decimal.Zero)
		if err != nil {
			return errors.Wrapf(err, "execute %s", instruction)
		}
		if err := s.ledger.Debit(instruction.AssetIn, instruction.AmountIn); err != nil {
			return errors.Wrap(err, "debit basket")
		}
		if err := s.ledger.Credit(instruction.AssetOut, amountOut); err != nil {
			return errors.Wrap(err, "credit basket")
		}
	}

	s.logger.Info("rebalance executed", zap.Int("instructions", len(plan)))

	return nil
}

// WithdrawFees sweeps accrued management fees to the fee sink, advancing the
// fee clock by every complete elapsed period.
func (s *IndexService) WithdrawFees(ctx context.Context, cap domain.AdminCapability, now time.Time) ([]domain.AssetAmount, error) {
	if !cap.Valid() {
		return nil, basket.ErrUnauthorized
	}

	assets := s.ledger.Assets()
	balances := make([]decimal.Decimal, len(assets))
	for i, asset := range assets {
		balances[i] = s.ledger.BalanceOf(asset.Address)
	}

	charges, periods, err := fees.Accrue(s.ledger.ShareAccount(), assets, balances, now)
	if err != nil {
		return nil, err
	}

	for _, charge := range charges {
		if err := s.ledger.Debit(charge.Asset, charge.Amount); err != nil {
			return nil, errors.Wrap(err, "debit fee")
		}
	}

	if err := s.ledger.AdvanceFeeClock(periods); err != nil {
		return nil, errors.Wrap(err, "advance fee clock")
	}

	s.logger.Info("fees withdrawn",
		zap.Int64("periods", periods),
		zap.Int("assets_charged", len(charges)),
		zap.String("fee_sink", s.feeSink.Hex()))

	return charges, nil
}

// AddAsset lists a new basket constituent.
func (s *IndexService) AddAsset(cap domain.AdminCapability, address common.Address, decimals int32, targetBps int64) error {
	assets, err := basket.AddAsset(cap, s.ledger.Assets(), address, decimals, targetBps)
	if err != nil {
		return err
	}
	return s.ledger.SetAssets(assets)
}

// RemoveAsset delists the constituent at index, preserving the order of the
// remaining entries.
func (s *IndexService) RemoveAsset(cap domain.AdminCapability, index int) error {
	assets, err := basket.RemoveAsset(cap, s.ledger.Assets(), index)
	if err != nil {
		return err
	}
	return s.ledger.SetAssets(assets)
}

// EditTarget changes a constituent's target proportion.
func (s *IndexService) EditTarget(cap domain.AdminCapability, index int, targetBps int64) error {
	assets, err := basket.EditTarget(cap, s.ledger.Assets(), index, targetBps)
	if err != nil {
		return err
	}
	return s.ledger.SetAssets(assets)
}

// AssetStatus is the reporting view of one basket constituent.
type AssetStatus struct {
	Address    common.Address  `json:"address"`
	Balance    decimal.Decimal `json:"balance"`
	ValueUSD   decimal.Decimal `json:"value_usd"`
	Proportion decimal.Decimal `json:"proportion"`
	Target     decimal.Decimal `json:"target"`
}

// BasketStatus is a point-in-time reporting view of the whole basket.
type BasketStatus struct {
	Assets        []AssetStatus   `json:"assets"`
	TotalUSD      decimal.Decimal `json:"total_usd"`
	TotalShares   decimal.Decimal `json:"total_shares"`
	PricePerShare decimal.Decimal `json:"price_per_share"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Status reports the basket's current valuation, proportions and share price.
// It is read-only and safe to poll.
func (s *IndexService) Status(ctx context.Context) (BasketStatus, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return BasketStatus{}, err
	}

	result, err := valuation.Measure(snap)
	if err != nil {
		return BasketStatus{}, err
	}

	status := BasketStatus{
		Assets:        make([]AssetStatus, len(snap.Assets)),
		TotalUSD:      result.Total,
		TotalShares:   snap.TotalShares,
		PricePerShare: decimal.Zero,
		Timestamp:     time.Now().UTC(),
	}
	for i, asset := range snap.Assets {
		status.Assets[i] = AssetStatus{
			Address:    asset.Address,
			Balance:    snap.Balances[i],
			ValueUSD:   result.Values[i],
			Proportion: result.Proportions[i],
			Target:     asset.Target,
		}
	}
	if snap.TotalShares.IsPositive() {
		status.PricePerShare = domain.DivFloor(result.Total.Mul(sharepricer.ShareScale), snap.TotalShares)
	}

	return status, nil
}

// resolveRoutes looks up every route before anything executes so a missing
// route aborts the whole plan.
func (s *IndexService) resolveRoutes(plan []domain.SwapInstruction) ([]router.Route, error) {
	resolved := make([]router.Route, len(plan))
	for i, instruction := range plan {
		route, err := s.routes.Route(instruction)
		if err != nil {
			return nil, err
		}
		resolved[i] = route
	}
	return resolved, nil
}

func (s *IndexService) swapDeadline() time.Time {
	if s.deadline <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.deadline)
}
