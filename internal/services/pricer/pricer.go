// Package pricer provides USD price quotes for basket assets.
package pricer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ilau020203/index/internal/domain"
)

// QuoteScale is the fixed oracle scale all pricers normalize to (1e8).
var QuoteScale = domain.Pow10(8)

// Pricer provides a fresh USD quote for an asset. Quotes are read once per
// computation and never reused across requests.
type Pricer interface {
	GetQuote(ctx context.Context, asset common.Address) (domain.Quote, error)
}

// SnapshotPricer serves quotes from a static map. Used by the simulated
// router and by tests.
type SnapshotPricer struct {
	quotes map[common.Address]domain.Quote
}

// NewSnapshotPricer creates a pricer over fixed quotes.
func NewSnapshotPricer(quotes map[common.Address]domain.Quote) *SnapshotPricer {
	return &SnapshotPricer{quotes: quotes}
}

// GetQuote returns the stored quote for the asset.
func (p *SnapshotPricer) GetQuote(_ context.Context, asset common.Address) (domain.Quote, error) {
	q, ok := p.quotes[asset]
	if !ok {
		return domain.Quote{}, errors.Errorf("no quote for asset %s", asset.Hex())
	}
	return q, nil
}

// FallbackPricer chains a primary pricer with a fallback used when the
// primary fails or returns a non-positive price.
type FallbackPricer struct {
	primary  Pricer
	fallback Pricer
}

// NewFallbackPricer creates a chained pricer.
func NewFallbackPricer(primary, fallback Pricer) *FallbackPricer {
	return &FallbackPricer{primary: primary, fallback: fallback}
}

// GetQuote tries the primary source first.
func (p *FallbackPricer) GetQuote(ctx context.Context, asset common.Address) (domain.Quote, error) {
	q, err := p.primary.GetQuote(ctx, asset)
	if err == nil && q.Positive() {
		return q, nil
	}

	q, ferr := p.fallback.GetQuote(ctx, asset)
	if ferr != nil {
		if err != nil {
			return domain.Quote{}, errors.Wrapf(ferr, "fallback after primary error: %v", err)
		}
		return domain.Quote{}, ferr
	}
	if !q.Positive() {
		return domain.Quote{}, errors.Errorf("non-positive fallback price for %s", asset.Hex())
	}
	return q, nil
}

// quoteFromString converts an exchange price string into a Quote at
// QuoteScale.
func quoteFromString(asset common.Address, price string) (domain.Quote, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Quote{}, errors.Wrapf(err, "parse price %q", price)
	}
	if !d.IsPositive() {
		return domain.Quote{}, errors.Errorf("non-positive price %s for %s", price, asset.Hex())
	}
	return domain.Quote{
		Asset: asset,
		Price: d.Mul(QuoteScale).Floor(),
		Scale: QuoteScale,
	}, nil
}
