package sharepricer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ilau020203/index/internal/domain"
)

var (
	addrA = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addrB = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func usdQuote(asset common.Address, dollars int64) domain.Quote {
	scale := domain.Pow10(8)
	return domain.Quote{
		Asset: asset,
		Price: decimal.NewFromInt(dollars).Mul(scale),
		Scale: scale,
	}
}

func snapshot(balances []decimal.Decimal, totalShares decimal.Decimal) *domain.Snapshot {
	base := domain.Asset{Address: common.HexToAddress("0x00000000000000000000000000000000000000ff"), Decimals: 6}
	return &domain.Snapshot{
		Assets: []domain.Asset{
			domain.NewAsset(addrA, 6, 6000),
			domain.NewAsset(addrB, 6, 4000),
		},
		Balances:    balances,
		Quotes:      []domain.Quote{usdQuote(addrA, 1), usdQuote(addrB, 1)},
		Base:        base,
		BaseQuote:   usdQuote(base.Address, 1),
		TotalShares: totalShares,
	}
}

func TestMintAmount_FirstDepositSetsPrice(t *testing.T) {
	snap := snapshot([]decimal.Decimal{decimal.Zero, decimal.Zero}, decimal.Zero)

	usd := decimal.New(1000, 18)
	shares, err := MintAmount(snap, usd)
	require.NoError(t, err)
	require.True(t, usd.Equal(shares), "got %s", shares)
}

func TestMintAmount_FollowsPricePerShare(t *testing.T) {
	// $1000 basket backing 500 whole shares: $2 per share.
	balances := []decimal.Decimal{decimal.NewFromInt(600_000_000), decimal.NewFromInt(400_000_000)}
	snap := snapshot(balances, decimal.New(500, 18))

	shares, err := MintAmount(snap, decimal.New(100, 18))
	require.NoError(t, err)
	require.True(t, decimal.New(50, 18).Equal(shares), "got %s", shares)
}

func TestMintAmount_ZeroUSDMintsNothing(t *testing.T) {
	snap := snapshot([]decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(100)}, decimal.New(1, 18))

	shares, err := MintAmount(snap, decimal.Zero)
	require.NoError(t, err)
	require.True(t, shares.IsZero())
}

func TestMintAmount_ZeroValueWithSupplyIsDegenerate(t *testing.T) {
	snap := snapshot([]decimal.Decimal{decimal.Zero, decimal.Zero}, decimal.New(100, 18))

	_, err := MintAmount(snap, decimal.New(10, 18))
	require.ErrorIs(t, err, domain.ErrDegenerateValuation)
}

func TestBurnPayouts_QuarterSupplyPaysQuarterBalances(t *testing.T) {
	balances := []decimal.Decimal{decimal.NewFromInt(600_000_000), decimal.NewFromInt(400_000_000)}
	snap := snapshot(balances, decimal.New(1000, 18))

	payouts, err := BurnPayouts(snap, decimal.New(250, 18))
	require.NoError(t, err)
	require.Len(t, payouts, 2)

	require.Equal(t, addrA, payouts[0].Asset)
	require.True(t, decimal.NewFromInt(150_000_000).Equal(payouts[0].Amount), "got %s", payouts[0].Amount)
	require.Equal(t, addrB, payouts[1].Asset)
	require.True(t, decimal.NewFromInt(100_000_000).Equal(payouts[1].Amount), "got %s", payouts[1].Amount)
}

func TestBurnPayouts_FractionFromPreBurnSupplyOnce(t *testing.T) {
	balances := []decimal.Decimal{decimal.NewFromInt(999_999_937), decimal.NewFromInt(1)}
	snap := snapshot(balances, decimal.New(1000, 18))

	first, err := BurnPayouts(snap, decimal.New(100, 18))
	require.NoError(t, err)
	second, err := BurnPayouts(snap, decimal.New(100, 18))
	require.NoError(t, err)

	// Same snapshot, same fraction: no double-redemption drift.
	require.Equal(t, first, second)
}

func TestBurnPayouts_ExceedingSupplyFails(t *testing.T) {
	snap := snapshot([]decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(100)}, decimal.New(10, 18))

	_, err := BurnPayouts(snap, decimal.New(11, 18))
	require.Error(t, err)
}

func TestBurnPayouts_ZeroSupplyFails(t *testing.T) {
	snap := snapshot([]decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(100)}, decimal.Zero)

	_, err := BurnPayouts(snap, decimal.New(1, 18))
	require.Error(t, err)
}
