package planner

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ilau020203/index/internal/domain"
)

var (
	base  = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	addrA = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addrB = common.HexToAddress("0x0000000000000000000000000000000000000002")
	addrC = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

func usdQuote(asset common.Address, dollars int64) domain.Quote {
	scale := domain.Pow10(8)
	return domain.Quote{
		Asset: asset,
		Price: decimal.NewFromInt(dollars).Mul(scale),
		Scale: scale,
	}
}

// snapshot builds a 50/30/20 basket of $1 six-decimal tokens over a $1
// six-decimal base currency.
func snapshot(balances []int64, totalShares int64) *domain.Snapshot {
	return &domain.Snapshot{
		Assets: []domain.Asset{
			domain.NewAsset(addrA, 6, 5000),
			domain.NewAsset(addrB, 6, 3000),
			domain.NewAsset(addrC, 6, 2000),
		},
		Balances: []decimal.Decimal{
			decimal.NewFromInt(balances[0]),
			decimal.NewFromInt(balances[1]),
			decimal.NewFromInt(balances[2]),
		},
		Quotes: []domain.Quote{
			usdQuote(addrA, 1), usdQuote(addrB, 1), usdQuote(addrC, 1),
		},
		Base:        domain.Asset{Address: base, Decimals: 6},
		BaseQuote:   usdQuote(base, 1),
		TotalShares: decimal.NewFromInt(totalShares),
	}
}

func sumIn(instructions []domain.SwapInstruction) decimal.Decimal {
	sum := decimal.Zero
	for _, in := range instructions {
		sum = sum.Add(in.AmountIn)
	}
	return sum
}

func TestPlanDeposit_Bootstrap_SplitsByTarget(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{0, 0, 0}, 0)

	plan, err := p.PlanDeposit(snap, decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.Len(t, plan, 3)

	require.Equal(t, base, plan[0].AssetIn)
	require.Equal(t, addrA, plan[0].AssetOut)
	require.True(t, decimal.NewFromInt(500).Equal(plan[0].AmountIn), "got %s", plan[0].AmountIn)
	require.True(t, decimal.NewFromInt(300).Equal(plan[1].AmountIn), "got %s", plan[1].AmountIn)
	require.True(t, decimal.NewFromInt(200).Equal(plan[2].AmountIn), "got %s", plan[2].AmountIn)
}

func TestPlanDeposit_Bootstrap_LastAssetAbsorbsRemainder(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{0, 0, 0}, 0)

	// 1001 does not divide evenly: 500 + 300 + 201.
	amount := decimal.NewFromInt(1001)
	plan, err := p.PlanDeposit(snap, amount)
	require.NoError(t, err)
	require.Len(t, plan, 3)
	require.True(t, decimal.NewFromInt(500).Equal(plan[0].AmountIn))
	require.True(t, decimal.NewFromInt(300).Equal(plan[1].AmountIn))
	require.True(t, decimal.NewFromInt(201).Equal(plan[2].AmountIn))
	require.True(t, amount.Equal(sumIn(plan)))
}

func TestPlanDeposit_BalancedBasket_SpreadsByTarget(t *testing.T) {
	p := New(zap.NewNop())
	// Balanced at target: $500/$300/$200.
	snap := snapshot([]int64{500_000_000, 300_000_000, 200_000_000}, 1000)

	amount := decimal.NewFromInt(100_000_000) // $100
	plan, err := p.PlanDeposit(snap, amount)
	require.NoError(t, err)
	require.Len(t, plan, 3)

	require.True(t, decimal.NewFromInt(50_000_000).Equal(plan[0].AmountIn), "got %s", plan[0].AmountIn)
	require.True(t, decimal.NewFromInt(30_000_000).Equal(plan[1].AmountIn), "got %s", plan[1].AmountIn)
	require.True(t, decimal.NewFromInt(20_000_000).Equal(plan[2].AmountIn), "got %s", plan[2].AmountIn)
	require.True(t, amount.Equal(sumIn(plan)))
}

func TestPlanDeposit_DeficitAbsorbsWholeBudget(t *testing.T) {
	p := New(zap.NewNop())
	// Asset A 10% under target: $200 of $500 where target is $250.
	snap := snapshot([]int64{200_000_000, 180_000_000, 120_000_000}, 1000)

	amount := decimal.NewFromInt(30_000_000) // $30 < $50 deficit
	plan, err := p.PlanDeposit(snap, amount)
	require.NoError(t, err)

	// The whole budget flows to the single deficit asset.
	require.Len(t, plan, 1)
	require.Equal(t, base, plan[0].AssetIn)
	require.Equal(t, addrA, plan[0].AssetOut)
	require.True(t, amount.Equal(plan[0].AmountIn), "got %s", plan[0].AmountIn)
}

func TestPlanDeposit_BudgetExceedsDeficits_ClosesGapsThenSpreads(t *testing.T) {
	p := New(zap.NewNop())
	// Asset A $50 under target, budget $150: $50 closes the gap, $100 spreads
	// 50/30/20 on top.
	snap := snapshot([]int64{200_000_000, 180_000_000, 120_000_000}, 1000)

	amount := decimal.NewFromInt(150_000_000)
	plan, err := p.PlanDeposit(snap, amount)
	require.NoError(t, err)
	require.Len(t, plan, 3)

	require.True(t, decimal.NewFromInt(100_000_000).Equal(plan[0].AmountIn), "got %s", plan[0].AmountIn)
	require.True(t, decimal.NewFromInt(30_000_000).Equal(plan[1].AmountIn), "got %s", plan[1].AmountIn)
	require.True(t, decimal.NewFromInt(20_000_000).Equal(plan[2].AmountIn), "got %s", plan[2].AmountIn)
	require.True(t, amount.Equal(sumIn(plan)))
}

func TestPlanDeposit_SumMatchesAmountExactly(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{137_501_233, 298_757_101, 63_412_997}, 1000)

	for _, raw := range []int64{1, 7, 999, 1_000_003, 999_999_937} {
		amount := decimal.NewFromInt(raw)
		plan, err := p.PlanDeposit(snap, amount)
		require.NoError(t, err)
		require.True(t, amount.Equal(sumIn(plan)), "amount %d: sum %s", raw, sumIn(plan))
		for _, in := range plan {
			require.Equal(t, base, in.AssetIn)
			require.False(t, in.AmountIn.IsZero())
		}
	}
}

func TestPlanDeposit_Idempotent(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{137_501_233, 298_757_101, 63_412_997}, 1000)
	amount := decimal.NewFromInt(55_555_555)

	first, err := p.PlanDeposit(snap, amount)
	require.NoError(t, err)
	second, err := p.PlanDeposit(snap, amount)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestPlanDeposit_ZeroAmountIsNoop(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{100, 100, 100}, 1000)

	plan, err := p.PlanDeposit(snap, decimal.Zero)
	require.NoError(t, err)
	require.Empty(t, plan)
}

func TestPlanDeposit_NegativeAmountFails(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{100, 100, 100}, 1000)

	_, err := p.PlanDeposit(snap, decimal.NewFromInt(-1))
	require.Error(t, err)
}

func TestPlanDeposit_ZeroValueBasketWithSupplyIsDegenerate(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{0, 0, 0}, 1000)

	_, err := p.PlanDeposit(snap, decimal.NewFromInt(100))
	require.ErrorIs(t, err, domain.ErrDegenerateValuation)
}

func TestPlanWithdraw_ZeroSupplyLiquidatesEverything(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{500_000_000, 0, 200_000_000}, 0)

	plan, err := p.PlanWithdraw(snap, decimal.NewFromInt(1))
	require.NoError(t, err)
	require.Len(t, plan, 2)

	require.Equal(t, addrA, plan[0].AssetIn)
	require.Equal(t, base, plan[0].AssetOut)
	require.True(t, decimal.NewFromInt(500_000_000).Equal(plan[0].AmountIn))
	require.Equal(t, addrC, plan[1].AssetIn)
	require.True(t, decimal.NewFromInt(200_000_000).Equal(plan[1].AmountIn))
}

func TestPlanWithdraw_SurplusCoversBudget(t *testing.T) {
	p := New(zap.NewNop())
	// Asset B $40 over target ($190 vs $150), A $20 under, C $20 under.
	snap := snapshot([]int64{230_000_000, 190_000_000, 80_000_000}, 500)

	// 20 of 500 shares = $20 of $500, within the $40 surplus.
	plan, err := p.PlanWithdraw(snap, decimal.NewFromInt(20))
	require.NoError(t, err)
	require.Len(t, plan, 1)

	require.Equal(t, addrB, plan[0].AssetIn)
	require.Equal(t, base, plan[0].AssetOut)
	require.True(t, decimal.NewFromInt(20_000_000).Equal(plan[0].AmountIn), "got %s", plan[0].AmountIn)
}

func TestPlanWithdraw_BudgetExceedsSurplus_DrainsThenSpreads(t *testing.T) {
	p := New(zap.NewNop())
	// B $30 over, C $20 over, A $50 under; withdraw 100 of 500 shares = $100.
	snap := snapshot([]int64{200_000_000, 180_000_000, 120_000_000}, 500)

	plan, err := p.PlanWithdraw(snap, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Len(t, plan, 3)

	// $50 surplus drained, $50 leftover spread 50/30/20: A $25, B $30+$15,
	// C $20+$10.
	require.Equal(t, addrA, plan[0].AssetIn)
	require.True(t, decimal.NewFromInt(25_000_000).Equal(plan[0].AmountIn), "got %s", plan[0].AmountIn)
	require.True(t, decimal.NewFromInt(45_000_000).Equal(plan[1].AmountIn), "got %s", plan[1].AmountIn)
	require.True(t, decimal.NewFromInt(30_000_000).Equal(plan[2].AmountIn), "got %s", plan[2].AmountIn)

	for _, in := range plan {
		require.Equal(t, base, in.AssetOut)
	}
}

func TestPlanWithdraw_PayoutMatchesRedemptionFraction(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{137_501_233, 298_757_101, 63_412_997}, 1000)

	shares := decimal.NewFromInt(250) // a quarter of the basket
	plan, err := p.PlanWithdraw(snap, shares)
	require.NoError(t, err)

	// All tokens are $1 with equal decimals, so token sums track USD sums.
	totalBalance := decimal.NewFromInt(137_501_233 + 298_757_101 + 63_412_997)
	want := totalBalance.Div(decimal.NewFromInt(4)).Floor()
	diff := want.Sub(sumIn(plan)).Abs()
	require.True(t, diff.Cmp(decimal.NewFromInt(int64(len(snap.Assets)))) <= 0,
		"want ~%s got %s", want, sumIn(plan))
}

func TestPlanWithdraw_SharesExceedSupplyFails(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{100, 100, 100}, 500)

	_, err := p.PlanWithdraw(snap, decimal.NewFromInt(501))
	require.Error(t, err)
}

func TestPlanWithdraw_ZeroAmountIsNoop(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{100, 100, 100}, 500)

	plan, err := p.PlanWithdraw(snap, decimal.Zero)
	require.NoError(t, err)
	require.Empty(t, plan)
}

func TestPlanWithdraw_Idempotent(t *testing.T) {
	p := New(zap.NewNop())
	snap := snapshot([]int64{137_501_233, 298_757_101, 63_412_997}, 1000)

	first, err := p.PlanWithdraw(snap, decimal.NewFromInt(333))
	require.NoError(t, err)
	second, err := p.PlanWithdraw(snap, decimal.NewFromInt(333))
	require.NoError(t, err)

	require.Equal(t, first, second)
}
