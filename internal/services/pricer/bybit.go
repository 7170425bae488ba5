package pricer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hirokisan/bybit/v2"

	"github.com/ilau020203/index/internal/domain"
	"github.com/ilau020203/index/pkg/retrier"
)

// BybitPricer quotes assets from Bybit spot tickers.
type BybitPricer struct {
	client  *bybit.Client
	symbols map[common.Address]string
	retry   *retrier.Retrier
}

// NewBybitPricer creates a Bybit-backed pricer.
func NewBybitPricer(client *bybit.Client, symbols map[common.Address]string) *BybitPricer {
	return &BybitPricer{client: client, symbols: symbols, retry: retrier.New()}
}

// GetQuote fetches the last traded spot price for the asset's symbol, retrying
// transient API failures with backoff.
func (p *BybitPricer) GetQuote(ctx context.Context, asset common.Address) (domain.Quote, error) {
	symbolName, ok := p.symbols[asset]
	if !ok {
		return domain.Quote{}, fmt.Errorf("no bybit symbol configured for %s", asset.Hex())
	}
	symbol := bybit.SymbolV5(symbolName)

	result, err := retrier.DoWithData(p.retry, ctx, func(ctx context.Context) (*bybit.V5GetTickersResponse, error) {
		return p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
			Category: "spot",
			Symbol:   &symbol,
		})
	})
	if err != nil {
		return domain.Quote{}, err
	}

	if len(result.Result.Spot.List) == 0 {
		return domain.Quote{}, fmt.Errorf("bybit API returned empty prices for %s", symbolName)
	}

	return quoteFromString(asset, result.Result.Spot.List[0].LastPrice)
}
