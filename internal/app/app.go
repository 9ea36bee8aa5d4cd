package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sorul/tradingbot/internal/config"
	"github.com/sorul/tradingbot/internal/instruments"
	"github.com/sorul/tradingbot/internal/logger"
	"github.com/sorul/tradingbot/internal/trader"
	statushttp "github.com/sorul/tradingbot/internal/transport/http/status"
)

// App 负责应用级编排：加载配置→初始化依赖→启动交易循环与状态服务。
type App struct {
	cfg        *config.Config
	registry   *instruments.Registry
	trader     *trader.Trader
	statusHTTP *statushttp.Server
	Summary    *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(cfg)
}

// Run 启动状态服务与交易循环，直到 ctx 取消或任一组件出错。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}

	if a.Summary != nil {
		a.Summary.Print()
	}

	if a.trader == nil {
		return fmt.Errorf("trader not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	if a.statusHTTP != nil {
		group.Go(func() error {
			if err := a.statusHTTP.Start(ctx); err != nil {
				return fmt.Errorf("status http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		return a.trader.RunLoop(ctx)
	})

	return group.Wait()
}

// Trader 暴露交易循环实例，状态服务与测试会用到。
func (a *App) Trader() *trader.Trader {
	if a == nil {
		return nil
	}
	return a.trader
}
