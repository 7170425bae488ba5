// Package config loads index configuration from a YAML file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// AssetConfig describes one basket constituent.
type AssetConfig struct {
	// Address token contract address.
	Address common.Address
	// Decimals token precision.
	Decimals int32
	// TargetBps target proportion in basis points; all assets sum to 10_000.
	TargetBps int64
	// Symbol exchange ticker used by pricers, e.g. ETHUSDT.
	Symbol string
}

// Config is the resolved index configuration.
type Config struct {
	Platform     string
	StateDir     string
	Base         AssetConfig
	Assets       []AssetConfig
	FeeBps       int64
	FeePeriod    time.Duration
	FeeSink      common.Address
	Vault        common.Address
	SwapDeadline time.Duration
	// DashboardAddr listen address for the HTTP status server; empty disables it.
	DashboardAddr string
	// TLSDomains enables automatic TLS for the dashboard when non-empty.
	TLSDomains []string
	CertCache  string
}

type assetTmp struct {
	Address   string `yaml:"address"`
	Decimals  int32  `yaml:"decimals"`
	TargetBps int64  `yaml:"target_bps"`
	Symbol    string `yaml:"symbol"`
}

type configTmp struct {
	Platform     string        `yaml:"platform"`
	StateDir     string        `yaml:"state_dir,omitempty"`
	Base         assetTmp      `yaml:"base"`
	Assets       []assetTmp    `yaml:"assets"`
	FeeBps       int64         `yaml:"fee_bps"`
	FeePeriod    time.Duration `yaml:"fee_period"`
	FeeSink      string        `yaml:"fee_sink"`
	Vault        string        `yaml:"vault"`
	SwapDeadline  time.Duration `yaml:"swap_deadline,omitempty"`
	DashboardAddr string        `yaml:"dashboard_addr,omitempty"`
	TLSDomains    []string      `yaml:"tls_domains,omitempty"`
	CertCache     string        `yaml:"cert_cache,omitempty"`
}

// Get resolves the configuration, preferring --config when provided.
func Get() (*Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	flag.Parse()
	if *configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	return getYaml(*configPath)
}

func getYaml(path string) (*Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return nil, err
	}

	return fromTmp(tmp)
}

func fromTmp(tmp configTmp) (*Config, error) {
	cfg := &Config{
		Platform:      tmp.Platform,
		StateDir:      tmp.StateDir,
		FeeBps:        tmp.FeeBps,
		FeePeriod:     tmp.FeePeriod,
		SwapDeadline:  tmp.SwapDeadline,
		DashboardAddr: tmp.DashboardAddr,
		TLSDomains:    tmp.TLSDomains,
		CertCache:     tmp.CertCache,
	}

	if len(cfg.TLSDomains) > 0 && cfg.DashboardAddr == "" {
		return nil, fmt.Errorf("'tls_domains' requires 'dashboard_addr' in yaml config")
	}

	if cfg.Platform == "" {
		cfg.Platform = "sim"
	}
	if cfg.StateDir == "" {
		cfg.StateDir = "./waldata"
	}
	if cfg.SwapDeadline <= 0 {
		cfg.SwapDeadline = time.Minute
	}
	if cfg.FeeBps < 0 || cfg.FeeBps > 10_000 {
		return nil, fmt.Errorf("incorrect 'fee_bps' param in yaml config: %d", cfg.FeeBps)
	}
	if cfg.FeePeriod <= 0 {
		return nil, fmt.Errorf("incorrect 'fee_period' param in yaml config: %s", cfg.FeePeriod)
	}

	base, err := assetFromTmp(tmp.Base)
	if err != nil {
		return nil, fmt.Errorf("incorrect 'base' param in yaml config: %w", err)
	}
	cfg.Base = base

	if len(tmp.Assets) == 0 {
		return nil, fmt.Errorf("at least one asset is required in yaml config")
	}
	var totalBps int64
	for i, a := range tmp.Assets {
		asset, err := assetFromTmp(a)
		if err != nil {
			return nil, fmt.Errorf("incorrect asset %d in yaml config: %w", i, err)
		}
		if asset.TargetBps <= 0 {
			return nil, fmt.Errorf("incorrect 'target_bps' for asset %d: %d", i, asset.TargetBps)
		}
		totalBps += asset.TargetBps
		cfg.Assets = append(cfg.Assets, asset)
	}
	if totalBps != 10_000 {
		return nil, fmt.Errorf("asset targets must sum to 10000 bps, got %d", totalBps)
	}

	if !common.IsHexAddress(tmp.FeeSink) {
		return nil, fmt.Errorf("incorrect 'fee_sink' param in yaml config: %s", tmp.FeeSink)
	}
	cfg.FeeSink = common.HexToAddress(tmp.FeeSink)

	if !common.IsHexAddress(tmp.Vault) {
		return nil, fmt.Errorf("incorrect 'vault' param in yaml config: %s", tmp.Vault)
	}
	cfg.Vault = common.HexToAddress(tmp.Vault)

	return cfg, nil
}

func assetFromTmp(tmp assetTmp) (AssetConfig, error) {
	if !common.IsHexAddress(tmp.Address) {
		return AssetConfig{}, fmt.Errorf("invalid address %q", tmp.Address)
	}
	if tmp.Decimals < 0 || tmp.Decimals > 30 {
		return AssetConfig{}, fmt.Errorf("invalid decimals %d", tmp.Decimals)
	}
	return AssetConfig{
		Address:   common.HexToAddress(tmp.Address),
		Decimals:  tmp.Decimals,
		TargetBps: tmp.TargetBps,
		Symbol:    tmp.Symbol,
	}, nil
}
