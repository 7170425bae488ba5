package pricer

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ilau020203/index/internal/domain"
	"github.com/ilau020203/index/pkg/retrier"
)

// BinancePricer quotes assets from Binance spot tickers. Assets are mapped to
// exchange symbols through an admin-configured table, e.g. WETH -> "ETHUSDT".
type BinancePricer struct {
	client  *binance.Client
	symbols map[common.Address]string
	retry   *retrier.Retrier
}

// NewBinancePricer creates a Binance-backed pricer.
func NewBinancePricer(client *binance.Client, symbols map[common.Address]string) *BinancePricer {
	return &BinancePricer{client: client, symbols: symbols, retry: retrier.New()}
}

// GetQuote fetches the current ticker price for the asset's symbol, retrying
// transient API failures with backoff.
func (p *BinancePricer) GetQuote(ctx context.Context, asset common.Address) (domain.Quote, error) {
	symbol, ok := p.symbols[asset]
	if !ok {
		return domain.Quote{}, fmt.Errorf("no binance symbol configured for %s", asset.Hex())
	}

	prices, err := retrier.DoWithData(p.retry, ctx, func(ctx context.Context) ([]*binance.SymbolPrice, error) {
		return p.client.NewListPricesService().Symbol(symbol).Do(ctx)
	})
	if err != nil {
		return domain.Quote{}, err
	}
	if len(prices) == 0 {
		return domain.Quote{}, fmt.Errorf("binance API returned empty prices for %s", symbol)
	}

	return quoteFromString(asset, prices[0].Price)
}
