package domain

import "github.com/pkg/errors"

var (
	// ErrDegenerateValuation is returned when a computation would divide by a
	// zero price or zero total basket value.
	ErrDegenerateValuation = errors.New("degenerate valuation: zero price or total value")
	// ErrNoRouteConfigured is returned when a swap is requested for an asset
	// pair with no registered route.
	ErrNoRouteConfigured = errors.New("no route configured for asset pair")
	// ErrFeePeriodNotElapsed is returned when fees are withdrawn before one
	// full fee period has passed.
	ErrFeePeriodNotElapsed = errors.New("fee period not elapsed")
	// ErrInvalidIndex is returned for basket mutations with an out-of-range
	// asset index.
	ErrInvalidIndex = errors.New("asset index out of range")
	// ErrInvalidProportion is returned for non-positive or over-unity target
	// proportions.
	ErrInvalidProportion = errors.New("invalid target proportion")
)
