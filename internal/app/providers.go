package app

import (
	"fmt"

	"github.com/sorul/tradingbot/internal/config"
	"github.com/sorul/tradingbot/internal/instruments"
	"github.com/sorul/tradingbot/internal/notifier"
	"github.com/sorul/tradingbot/internal/strategy"
	"github.com/sorul/tradingbot/internal/trader"
	statushttp "github.com/sorul/tradingbot/internal/transport/http/status"
)

func provideRegistry(cfg *config.Config) (*instruments.Registry, error) {
	reg, err := instruments.New(cfg.App.InstrumentsPath)
	if err != nil {
		return nil, fmt.Errorf("加载品种表失败: %w", err)
	}
	return reg, nil
}

func provideNotifier(cfg *config.Config) notifier.TextNotifier {
	return notifier.FromConfig(cfg.Notify)
}

func provideTrader(cfg *config.Config, registry *instruments.Registry, notify notifier.TextNotifier) (*trader.Trader, error) {
	return trader.New(cfg, registry, notify)
}

func provideStatusServer(cfg *config.Config, t *trader.Trader, registry *instruments.Registry) (*statushttp.Server, error) {
	return statushttp.NewServer(statushttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Source:   t,
		Registry: registry,
	})
}

func provideSummary(cfg *config.Config, registry *instruments.Registry) *StartupSummary {
	notifyVia := "-"
	if cfg.Notify.Telegram.Enabled {
		notifyVia = "telegram"
	}
	return &StartupSummary{
		Terminal: TerminalSummary{
			FilesDir:       cfg.Terminal.FilesDir,
			BrokerTimezone: cfg.Terminal.BrokerTimezone,
			LocalTimezone:  cfg.Terminal.LocalTimezone,
		},
		Bridge: BridgeSummary{
			CommandSlots: cfg.Bridge.CommandSlots,
			PollInterval: cfg.Bridge.PollInterval().String(),
			Categories:   enabledCategories(cfg.Bridge.Categories),
		},
		Universe: UniverseSummary{
			Symbols:      registry.Symbols(),
			Timeframe:    cfg.History.Timeframe,
			LookbackDays: cfg.History.LookbackDays,
		},
		Trader: TraderSummary{
			RunInterval: cfg.Trader.RunEvery().String(),
			RunWindow:   cfg.Trader.RunWindow().String(),
			Strategy:    strategy.NameEMA,
			Notifier:    notifyVia,
		},
	}
}

func enabledCategories(c config.CategoriesConfig) []string {
	var out []string
	if c.Messages {
		out = append(out, "messages")
	}
	if c.MarketData {
		out = append(out, "market_data")
	}
	if c.BarData {
		out = append(out, "bar_data")
	}
	if c.OpenOrders {
		out = append(out, "open_orders")
	}
	if c.HistoricalData {
		out = append(out, "historical_data")
	}
	if c.HistoricalTrades {
		out = append(out, "historical_trades")
	}
	return out
}

func newApp(cfg *config.Config, registry *instruments.Registry, t *trader.Trader, srv *statushttp.Server, summary *StartupSummary) *App {
	return &App{
		cfg:        cfg,
		registry:   registry,
		trader:     t,
		statusHTTP: srv,
		Summary:    summary,
	}
}
