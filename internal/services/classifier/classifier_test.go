package classifier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ilau020203/index/internal/domain"
)

func prop(n int64) decimal.Decimal {
	// n percent at ProportionScale.
	return decimal.NewFromInt(n).Mul(domain.Pow10(16))
}

func TestClassify_PartitionsDeficitAndSurplus(t *testing.T) {
	current := []decimal.Decimal{prop(40), prop(36), prop(24)}
	target := []decimal.Decimal{prop(50), prop(30), prop(20)}
	total := decimal.New(500, 18) // $500

	c := Classify(current, target, total)

	require.Equal(t, []int{0}, c.DeficitIdx)
	require.Equal(t, []int{1, 2}, c.SurplusIdx)

	// 10% of $500 under target.
	require.True(t, decimal.New(50, 18).Equal(c.DeficitUSD[0]), "got %s", c.DeficitUSD[0])
	require.True(t, decimal.New(30, 18).Equal(c.SurplusUSD[0]), "got %s", c.SurplusUSD[0])
	require.True(t, decimal.New(20, 18).Equal(c.SurplusUSD[1]), "got %s", c.SurplusUSD[1])

	require.True(t, decimal.New(50, 18).Equal(c.TotalDeficitUSD))
	require.True(t, decimal.New(50, 18).Equal(c.TotalSurplusUSD))

	require.Equal(t, domain.Deficit, c.Imbalances[0].Kind)
	require.Equal(t, domain.Surplus, c.Imbalances[1].Kind)
	require.Equal(t, domain.Surplus, c.Imbalances[2].Kind)
}

func TestClassify_ExactlyAtTargetIsBalanced(t *testing.T) {
	current := []decimal.Decimal{prop(50), prop(30), prop(20)}
	target := []decimal.Decimal{prop(50), prop(30), prop(20)}

	c := Classify(current, target, decimal.New(1000, 18))

	require.Empty(t, c.DeficitIdx)
	require.Empty(t, c.SurplusIdx)
	require.True(t, c.TotalDeficitUSD.IsZero())
	require.True(t, c.TotalSurplusUSD.IsZero())
	for _, im := range c.Imbalances {
		require.Equal(t, domain.Balanced, im.Kind)
		require.True(t, im.USD.IsZero())
	}
}

func TestClassify_FollowsAssetListOrder(t *testing.T) {
	current := []decimal.Decimal{prop(10), prop(40), prop(10), prop(40)}
	target := []decimal.Decimal{prop(25), prop(25), prop(25), prop(25)}

	c := Classify(current, target, decimal.New(100, 18))

	require.Equal(t, []int{0, 2}, c.DeficitIdx)
	require.Equal(t, []int{1, 3}, c.SurplusIdx)
}

func TestClassify_DeterministicForIdenticalSnapshots(t *testing.T) {
	current := []decimal.Decimal{prop(47), prop(33), prop(20)}
	target := []decimal.Decimal{prop(50), prop(30), prop(20)}
	total := decimal.New(777, 18)

	first := Classify(current, target, total)
	second := Classify(current, target, total)

	require.Equal(t, first.DeficitIdx, second.DeficitIdx)
	require.Equal(t, first.SurplusIdx, second.SurplusIdx)
	require.True(t, first.TotalDeficitUSD.Equal(second.TotalDeficitUSD))
	for i := range first.DeficitUSD {
		require.True(t, first.DeficitUSD[i].Equal(second.DeficitUSD[i]))
	}
}
