package basket

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ilau020203/index/internal/domain"
)

var (
	addrA = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addrB = common.HexToAddress("0x0000000000000000000000000000000000000002")
	addrC = common.HexToAddress("0x0000000000000000000000000000000000000003")
	addrD = common.HexToAddress("0x0000000000000000000000000000000000000004")
)

func threeAssets(t *testing.T) []domain.Asset {
	t.Helper()
	adm := domain.GrantAdmin()

	assets, err := AddAsset(adm, nil, addrA, 18, 5000)
	require.NoError(t, err)
	assets, err = AddAsset(adm, assets, addrB, 6, 3000)
	require.NoError(t, err)
	assets, err = AddAsset(adm, assets, addrC, 8, 2000)
	require.NoError(t, err)
	return assets
}

func TestAddAsset_AppendsInOrder(t *testing.T) {
	assets := threeAssets(t)

	require.Len(t, assets, 3)
	require.Equal(t, addrA, assets[0].Address)
	require.Equal(t, addrB, assets[1].Address)
	require.Equal(t, addrC, assets[2].Address)
	require.True(t, domain.TargetFromBps(5000).Equal(assets[0].Target))
}

func TestAddAsset_RejectsDuplicate(t *testing.T) {
	assets := threeAssets(t)

	_, err := AddAsset(domain.GrantAdmin(), assets, addrB, 6, 1000)
	require.Error(t, err)
}

func TestAddAsset_RejectsInvalidProportion(t *testing.T) {
	adm := domain.GrantAdmin()

	_, err := AddAsset(adm, nil, addrA, 18, 0)
	require.ErrorIs(t, err, domain.ErrInvalidProportion)
	_, err = AddAsset(adm, nil, addrA, 18, 10_001)
	require.ErrorIs(t, err, domain.ErrInvalidProportion)
}

func TestAddAsset_RequiresCapability(t *testing.T) {
	_, err := AddAsset(domain.AdminCapability{}, nil, addrA, 18, 5000)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRemoveAsset_ShiftsLeftPreservingOrder(t *testing.T) {
	assets := threeAssets(t)

	out, err := RemoveAsset(domain.GrantAdmin(), assets, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, addrA, out[0].Address)
	require.Equal(t, addrC, out[1].Address)
}

func TestRemoveAsset_InvalidIndex(t *testing.T) {
	assets := threeAssets(t)

	_, err := RemoveAsset(domain.GrantAdmin(), assets, 3)
	require.ErrorIs(t, err, domain.ErrInvalidIndex)
	_, err = RemoveAsset(domain.GrantAdmin(), assets, -1)
	require.ErrorIs(t, err, domain.ErrInvalidIndex)
}

func TestEditTarget_ReplacesProportion(t *testing.T) {
	assets := threeAssets(t)

	out, err := EditTarget(domain.GrantAdmin(), assets, 2, 2500)
	require.NoError(t, err)
	require.True(t, domain.TargetFromBps(2500).Equal(out[2].Target))
	// Original list is untouched.
	require.True(t, domain.TargetFromBps(2000).Equal(assets[2].Target))
}

func TestEditTarget_InvalidInputs(t *testing.T) {
	assets := threeAssets(t)

	_, err := EditTarget(domain.GrantAdmin(), assets, 9, 1000)
	require.ErrorIs(t, err, domain.ErrInvalidIndex)
	_, err = EditTarget(domain.GrantAdmin(), assets, 0, -5)
	require.ErrorIs(t, err, domain.ErrInvalidProportion)
}

func TestMutations_KeepIndexIdentityStable(t *testing.T) {
	adm := domain.GrantAdmin()
	assets := threeAssets(t)

	assets, err := AddAsset(adm, assets, addrD, 18, 1000)
	require.NoError(t, err)
	assets, err = RemoveAsset(adm, assets, 0)
	require.NoError(t, err)

	// Survivors keep their relative order: B, C, D.
	require.Equal(t, addrB, assets[0].Address)
	require.Equal(t, addrC, assets[1].Address)
	require.Equal(t, addrD, assets[2].Address)
}
