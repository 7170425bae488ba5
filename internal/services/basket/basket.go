// Package basket implements asset-list administration: adding, removing and
// retargeting basket constituents.
package basket

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/ilau020203/index/internal/domain"
)

// ErrUnauthorized is returned when a mutation is attempted without a granted
// admin capability.
var ErrUnauthorized = errors.New("admin capability not granted")

// AddAsset appends a new asset entry. Order is insertion order and is
// load-bearing: indices identify assets for the duration of one computation.
func AddAsset(cap domain.AdminCapability, assets []domain.Asset, address common.Address, decimals int32, targetBps int64) ([]domain.Asset, error) {
	if !cap.Valid() {
		return nil, ErrUnauthorized
	}
	if err := validateTargetBps(targetBps); err != nil {
		return nil, err
	}
	for _, a := range assets {
		if a.Address == address {
			return nil, errors.Errorf("asset %s already listed", address.Hex())
		}
	}
	return append(assets, domain.NewAsset(address, decimals, targetBps)), nil
}

// RemoveAsset deletes the entry at index, shifting the remainder left so the
// relative order of surviving entries is preserved.
func RemoveAsset(cap domain.AdminCapability, assets []domain.Asset, index int) ([]domain.Asset, error) {
	if !cap.Valid() {
		return nil, ErrUnauthorized
	}
	if index < 0 || index >= len(assets) {
		return nil, errors.Wrapf(domain.ErrInvalidIndex, "index %d of %d", index, len(assets))
	}
	out := make([]domain.Asset, 0, len(assets)-1)
	out = append(out, assets[:index]...)
	out = append(out, assets[index+1:]...)
	return out, nil
}

// EditTarget replaces the target proportion of the entry at index.
func EditTarget(cap domain.AdminCapability, assets []domain.Asset, index int, targetBps int64) ([]domain.Asset, error) {
	if !cap.Valid() {
		return nil, ErrUnauthorized
	}
	if index < 0 || index >= len(assets) {
		return nil, errors.Wrapf(domain.ErrInvalidIndex, "index %d of %d", index, len(assets))
	}
	if err := validateTargetBps(targetBps); err != nil {
		return nil, err
	}
	out := make([]domain.Asset, len(assets))
	copy(out, assets)
	out[index].Target = domain.TargetFromBps(targetBps)
	return out, nil
}

func validateTargetBps(bps int64) error {
	if bps <= 0 || bps > 10_000 {
		return errors.Wrapf(domain.ErrInvalidProportion, "%d bps", bps)
	}
	return nil
}
