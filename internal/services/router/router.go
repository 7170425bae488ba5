// Package router defines the swap-execution collaborator and the
// admin-configured routing table that backs it.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ilau020203/index/internal/domain"
)

// Route is an opaque exchange-path descriptor keyed by an asset pair.
type Route struct {
	AssetIn  common.Address
	AssetOut common.Address
	// Path opaque hop encoding consumed by the executing venue.
	Path []byte
}

// Router executes a single planned swap. Execution happens strictly after the
// whole plan is computed, never interleaved with planning.
type Router interface {
	Swap(ctx context.Context, instruction domain.SwapInstruction, route Route, recipient common.Address, deadline time.Time, minOut decimal.Decimal) (decimal.Decimal, error)
}

// RouteTable maps asset pairs to routes. Mutations require an admin
// capability; lookups for unregistered pairs fail with
// domain.ErrNoRouteConfigured.
type RouteTable struct {
	mu     sync.RWMutex
	routes map[pairKey]Route
}

type pairKey struct {
	in  common.Address
	out common.Address
}

// NewRouteTable creates an empty routing table.
func NewRouteTable() *RouteTable {
	return &RouteTable{routes: make(map[pairKey]Route)}
}

// Set registers or replaces the route for a pair.
func (t *RouteTable) Set(cap domain.AdminCapability, route Route) error {
	if !cap.Valid() {
		return errors.New("admin capability not granted")
	}
	if route.AssetIn == (common.Address{}) || route.AssetOut == (common.Address{}) {
		return errors.Wrap(domain.ErrNoRouteConfigured, "zero address in pair")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[pairKey{in: route.AssetIn, out: route.AssetOut}] = route
	return nil
}

// Route resolves the route for an instruction. Plain transfers need no route
// and resolve to the zero Route.
func (t *RouteTable) Route(instruction domain.SwapInstruction) (Route, error) {
	if instruction.IsTransfer() {
		if instruction.AssetIn == (common.Address{}) {
			return Route{}, errors.Wrap(domain.ErrNoRouteConfigured, "transfer of zero address")
		}
		return Route{AssetIn: instruction.AssetIn, AssetOut: instruction.AssetOut}, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	route, ok := t.routes[pairKey{in: instruction.AssetIn, out: instruction.AssetOut}]
	if !ok {
		return Route{}, errors.Wrapf(domain.ErrNoRouteConfigured, "%s -> %s",
			instruction.AssetIn.Hex(), instruction.AssetOut.Hex())
	}
	return route, nil
}
