// Package setup provides a terminal wizard that writes an index YAML config.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

type assetYaml struct {
	Address   string `yaml:"address"`
	Decimals  int32  `yaml:"decimals"`
	TargetBps int64  `yaml:"target_bps"`
	Symbol    string `yaml:"symbol"`
}

type configYaml struct {
	Platform     string        `yaml:"platform"`
	StateDir     string        `yaml:"state_dir"`
	Base         assetYaml     `yaml:"base"`
	Assets       []assetYaml   `yaml:"assets"`
	FeeBps       int64         `yaml:"fee_bps"`
	FeePeriod    time.Duration `yaml:"fee_period"`
	FeeSink      string        `yaml:"fee_sink"`
	Vault        string        `yaml:"vault"`
	SwapDeadline time.Duration `yaml:"swap_deadline"`
}

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform     string
		feeBpsStr    string
		feePeriodStr string
		feeSink      string
		vault        string
		confirm      bool
	)

	// defaults
	feeBpsStr = "100"
	feePeriodStr = "720h"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("INDEX CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's set up your basket.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PRICE SOURCE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Price Source").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Simulation", "sim"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("INDEX CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: BASE CURRENCY"))
	base, err := askAsset(true)
	if err != nil {
		return err
	}

	var assets []assetYaml
	var totalBps int64
	for totalBps < 10_000 {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("INDEX CONFIG WIZARD"))
		fmt.Println(stepStyle.Render(fmt.Sprintf("STEP 3: ASSETS (%d of 10000 bps assigned)", totalBps)))
		asset, err := askAsset(false)
		if err != nil {
			return err
		}
		if asset.TargetBps <= 0 || totalBps+asset.TargetBps > 10_000 {
			fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render(
				fmt.Sprintf("target must be between 1 and %d bps", 10_000-totalBps)))
			continue
		}
		assets = append(assets, asset)
		totalBps += asset.TargetBps
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("INDEX CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: FEES"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Management fee (basis points per period)").
				Value(&feeBpsStr).
				Validate(validateBps),
			huh.NewInput().
				Title("Fee period").
				Description("Go duration, e.g. 720h for 30 days").
				Value(&feePeriodStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Fee sink address").
				Value(&feeSink).
				Validate(validateAddress),
			huh.NewInput().
				Title("Vault address (swap recipient)").
				Value(&vault).
				Validate(validateAddress),
		),
	).Run()
	if err != nil {
		return err
	}

	feeBps, _ := strconv.ParseInt(strings.TrimSpace(feeBpsStr), 10, 64)
	feePeriod, _ := time.ParseDuration(strings.TrimSpace(feePeriodStr))

	cfg := configYaml{
		Platform:     platform,
		StateDir:     "./waldata",
		Base:         base,
		Assets:       assets,
		FeeBps:       feeBps,
		FeePeriod:    feePeriod,
		FeeSink:      feeSink,
		Vault:        vault,
		SwapDeadline: time.Minute,
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("INDEX CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: CONFIRM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write config.yaml?").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("aborted")
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile("config.yaml", out, 0o644); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("config.yaml written"))
	return nil
}

func askAsset(isBase bool) (assetYaml, error) {
	var (
		address     string
		decimalsStr = "18"
		targetStr   = "0"
		symbol      string
	)

	title := "Asset"
	if isBase {
		title = "Base currency"
	}

	group := []huh.Field{
		huh.NewInput().
			Title(title + " address").
			Value(&address).
			Validate(validateAddress),
		huh.NewInput().
			Title("Decimals").
			Value(&decimalsStr).
			Validate(func(s string) error {
				d, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil || d < 0 || d > 30 {
					return fmt.Errorf("decimals must be 0..30")
				}
				return nil
			}),
		huh.NewInput().
			Title("Exchange symbol").
			Description("e.g. ETHUSDT").
			Value(&symbol),
	}
	if !isBase {
		group = append(group, huh.NewInput().
			Title("Target proportion (basis points)").
			Value(&targetStr).
			Validate(validateBps))
	}

	if err := huh.NewForm(huh.NewGroup(group...)).Run(); err != nil {
		return assetYaml{}, err
	}

	decimals, _ := strconv.Atoi(strings.TrimSpace(decimalsStr))
	target, _ := strconv.ParseInt(strings.TrimSpace(targetStr), 10, 64)

	return assetYaml{
		Address:   address,
		Decimals:  int32(decimals),
		TargetBps: target,
		Symbol:    symbol,
	}, nil
}

func validateAddress(s string) error {
	if !common.IsHexAddress(strings.TrimSpace(s)) {
		return fmt.Errorf("not a valid hex address")
	}
	return nil
}

func validateBps(s string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 || v > 10_000 {
		return fmt.Errorf("must be an integer between 0 and 10000")
	}
	return nil
}

func validateDuration(s string) error {
	if _, err := time.ParseDuration(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("not a valid duration")
	}
	return nil
}
