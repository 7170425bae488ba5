package fees

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ilau020203/index/internal/domain"
)

var (
	addrA = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addrB = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func account(t0 time.Time) domain.ShareAccount {
	return domain.ShareAccount{
		TotalShares:       decimal.New(1000, 18),
		FeeBps:            100, // 1% per period
		FeePeriod:         30 * 24 * time.Hour,
		LastFeeWithdrawal: t0,
	}
}

func fixtures() ([]domain.Asset, []decimal.Decimal) {
	assets := []domain.Asset{
		domain.NewAsset(addrA, 6, 6000),
		domain.NewAsset(addrB, 6, 4000),
	}
	balances := []decimal.Decimal{
		decimal.NewFromInt(600_000_000),
		decimal.NewFromInt(400_000_000),
	}
	return assets, balances
}

func TestAccrue_FailsBeforeOnePeriod(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assets, balances := fixtures()

	// 10 days into a 30-day period.
	_, _, err := Accrue(account(t0), assets, balances, t0.Add(10*24*time.Hour))
	require.ErrorIs(t, err, domain.ErrFeePeriodNotElapsed)
}

func TestAccrue_OnePeriod(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assets, balances := fixtures()

	charges, periods, err := Accrue(account(t0), assets, balances, t0.Add(31*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, periods)
	require.Len(t, charges, 2)

	// 1% of each balance.
	require.True(t, decimal.NewFromInt(6_000_000).Equal(charges[0].Amount), "got %s", charges[0].Amount)
	require.True(t, decimal.NewFromInt(4_000_000).Equal(charges[1].Amount), "got %s", charges[1].Amount)
}

func TestAccrue_ChargesEveryElapsedPeriod(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assets, balances := fixtures()

	// 75 days = two complete 30-day periods.
	charges, periods, err := Accrue(account(t0), assets, balances, t0.Add(75*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 2, periods)
	require.True(t, decimal.NewFromInt(12_000_000).Equal(charges[0].Amount), "got %s", charges[0].Amount)
	require.True(t, decimal.NewFromInt(8_000_000).Equal(charges[1].Amount), "got %s", charges[1].Amount)
}

func TestAccrue_SkipsZeroBalances(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assets, _ := fixtures()
	balances := []decimal.Decimal{decimal.NewFromInt(600_000_000), decimal.Zero}

	charges, _, err := Accrue(account(t0), assets, balances, t0.Add(31*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, charges, 1)
	require.Equal(t, addrA, charges[0].Asset)
}

func TestAdvance_MovesClockByWholePeriods(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	acc := account(t0)

	advanced := Advance(acc, 2)
	require.Equal(t, t0.Add(60*24*time.Hour), advanced.LastFeeWithdrawal)
	// State advances by whole periods, not to now, so partial time carries.
	require.Equal(t, acc.FeePeriod, advanced.FeePeriod)
}
