//go:build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/sorul/tradingbot/internal/config"
)

// buildAppWithWire 声明依赖装配图，实现由 wire 生成到 wire_gen.go。
func buildAppWithWire(cfg *config.Config) (*App, error) {
	wire.Build(
		provideRegistry,
		provideNotifier,
		provideTrader,
		provideStatusServer,
		provideSummary,
		newApp,
	)
	return nil, nil
}
