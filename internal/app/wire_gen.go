//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject

package app

import (
	"github.com/sorul/tradingbot/internal/config"
)

func buildAppWithWire(cfg *config.Config) (*App, error) {
	registry, err := provideRegistry(cfg)
	if err != nil {
		return nil, err
	}
	textNotifier := provideNotifier(cfg)
	traderTrader, err := provideTrader(cfg, registry, textNotifier)
	if err != nil {
		return nil, err
	}
	server, err := provideStatusServer(cfg, traderTrader, registry)
	if err != nil {
		return nil, err
	}
	startupSummary := provideSummary(cfg, registry)
	mainApp := newApp(cfg, registry, traderTrader, server, startupSummary)
	return mainApp, nil
}
