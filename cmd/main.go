// Command index runs the basket index service. It keeps a multi-asset basket
// aligned with its target proportions, issuing and redeeming index shares
// against base-currency deposits.
//
// Usage:
//
//	index --config config.yaml
//	index setup (interactive config wizard)
//
// Required environment variables:
//
//	For Binance prices: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit prices: BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"log"
	"os"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/ethereum/go-ethereum/common"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ilau020203/index/config"
	"github.com/ilau020203/index/dashboard"
	"github.com/ilau020203/index/internal/domain"
	"github.com/ilau020203/index/internal/services"
	"github.com/ilau020203/index/internal/services/pricer"
	"github.com/ilau020203/index/internal/services/router"
	"github.com/ilau020203/index/internal/storage/basketstate"
	"github.com/ilau020203/index/internal/setup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	priceSource, err := buildPricer(cfg)
	if err != nil {
		logger.Fatal("failed to build pricer", zap.Error(err))
	}

	store, err := basketstate.NewStore(cfg.StateDir, cfg.FeeBps, cfg.FeePeriod, time.Now())
	if err != nil {
		logger.Fatal("failed to open basket state", zap.Error(err))
	}
	defer store.Close()

	if len(store.Assets()) == 0 {
		assets := make([]domain.Asset, 0, len(cfg.Assets))
		for _, a := range cfg.Assets {
			assets = append(assets, domain.NewAsset(a.Address, a.Decimals, a.TargetBps))
		}
		if err := store.SetAssets(assets); err != nil {
			logger.Fatal("failed to seed asset list", zap.Error(err))
		}
	}

	decimals := make(map[common.Address]int32, len(cfg.Assets)+1)
	decimals[cfg.Base.Address] = cfg.Base.Decimals
	for _, a := range cfg.Assets {
		decimals[a.Address] = a.Decimals
	}

	routes := router.NewRouteTable()
	adm := domain.GrantAdmin()
	for _, a := range cfg.Assets {
		if a.Address == cfg.Base.Address {
			continue
		}
		if err := routes.Set(adm, router.Route{AssetIn: cfg.Base.Address, AssetOut: a.Address}); err != nil {
			logger.Fatal("failed to seed route", zap.Error(err))
		}
		if err := routes.Set(adm, router.Route{AssetIn: a.Address, AssetOut: cfg.Base.Address}); err != nil {
			logger.Fatal("failed to seed route", zap.Error(err))
		}
	}

	base := domain.Asset{Address: cfg.Base.Address, Decimals: cfg.Base.Decimals}
	svc := services.NewIndexService(
		logger,
		store,
		priceSource,
		routes,
		router.NewSimRouter(logger, priceSource, decimals),
		base,
		cfg.FeeSink,
		cfg.Vault,
		cfg.SwapDeadline,
	)

	logger.Info("index service ready",
		zap.String("platform", cfg.Platform),
		zap.Int("assets", len(cfg.Assets)),
		zap.String("base", cfg.Base.Address.Hex()))

	if cfg.DashboardAddr != "" {
		dash := dashboard.NewServer(cfg.DashboardAddr, svc, logger)
		go func() {
			var err error
			if len(cfg.TLSDomains) > 0 {
				err = dash.StartWithAutoTLS(context.Background(), cfg.TLSDomains, cfg.CertCache)
			} else {
				err = dash.Start(context.Background())
			}
			if err != nil {
				logger.Error("dashboard server stopped", zap.Error(err))
			}
		}()
		logger.Info("dashboard listening", zap.String("addr", cfg.DashboardAddr))
	}

	// Sweep management fees once per elapsed period; before a full period has
	// passed the attempt fails and is skipped.
	ticker := time.NewTicker(cfg.FeePeriod)
	defer ticker.Stop()
	for now := range ticker.C {
		charges, err := svc.WithdrawFees(context.Background(), domain.GrantAdmin(), now)
		if err != nil {
			if errors.Is(err, domain.ErrFeePeriodNotElapsed) {
				continue
			}
			logger.Error("fee withdrawal failed", zap.Error(err))
			continue
		}
		logger.Info("fees swept", zap.Int("assets_charged", len(charges)))
	}
}

func buildPricer(cfg *config.Config) (pricer.Pricer, error) {
	symbols := make(map[common.Address]string, len(cfg.Assets)+1)
	symbols[cfg.Base.Address] = cfg.Base.Symbol
	for _, a := range cfg.Assets {
		symbols[a.Address] = a.Symbol
	}

	switch cfg.Platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		primary := pricer.NewBinancePricer(binance.NewClient(apiKey, apiSecret), symbols)
		fallback := pricer.NewBybitPricer(bybit.NewClient(), symbols)
		return pricer.NewFallbackPricer(primary, fallback), nil
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		primary := pricer.NewBybitPricer(bybit.NewClient().WithAuth(apiKey, apiSecret), symbols)
		fallback := pricer.NewBinancePricer(binance.NewClient("", ""), symbols)
		return pricer.NewFallbackPricer(primary, fallback), nil
	case "sim":
		quotes := make(map[common.Address]domain.Quote, len(symbols))
		for addr := range symbols {
			quotes[addr] = domain.Quote{
				Asset: addr,
				Price: pricer.QuoteScale,
				Scale: pricer.QuoteScale,
			}
		}
		return pricer.NewSnapshotPricer(quotes), nil
	default:
		return nil, errUnsupportedPlatform(cfg.Platform)
	}
}

type errUnsupportedPlatform string

func (e errUnsupportedPlatform) Error() string {
	return "unsupported platform: " + string(e)
}
