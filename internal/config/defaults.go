package config

import "strings"

// 默认值常量
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":9920"
	defaultAppLogPath      = "/data/logs/tradingbot.log"
	defaultAppTraceLogPath = "/data/logs/tradingbot-protocol.log"
	defaultInstrumentsPath = "configs/instruments.yaml"

	defaultBrokerTimezone = "UTC"
	defaultLocalTimezone  = "UTC"

	defaultCommandSlots   = 50
	defaultCommandRetryS  = 300
	defaultSleepDelayMS   = 5
	defaultPollIntervalMS = 5

	defaultHistoryTimeframe    = "M5"
	defaultLookbackDays        = 30
	defaultTradesLookbackDays  = 30
	defaultTradingLots         = 0.01
	defaultTradingMaxOpen      = 900
	defaultBreakEvenPips       = 10
	defaultPendingCancelPips   = 25
	defaultTraderRunInterval   = "5m"
	defaultTraderWindowMinutes = 4
	defaultTraderStateDir      = "/data/state"
	defaultRestartThreshold    = 4
	defaultProfitReportHours   = 12
	defaultProfitReportMinute  = 5
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Terminal.applyDefaults(keys)
	c.Bridge.applyDefaults(keys)
	c.History.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Trader.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.trace_log_path", &a.TraceLogPath, defaultAppTraceLogPath),
		stringFieldDefault("app.instruments_path", &a.InstrumentsPath, defaultInstrumentsPath),
	)
}

func (t *TerminalConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("terminal.broker_timezone", &t.BrokerTimezone, defaultBrokerTimezone),
		stringFieldDefault("terminal.local_timezone", &t.LocalTimezone, defaultLocalTimezone),
	)
}

func (b *BridgeConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "bridge.command_slots",
			need:  func() bool { return b.CommandSlots <= 0 },
			apply: func() { b.CommandSlots = defaultCommandSlots },
		},
		fieldDefault{
			key:   "bridge.command_retry_seconds",
			need:  func() bool { return b.CommandRetrySeconds <= 0 },
			apply: func() { b.CommandRetrySeconds = defaultCommandRetryS },
		},
		fieldDefault{
			key:   "bridge.sleep_delay_ms",
			need:  func() bool { return b.SleepDelayMS <= 0 },
			apply: func() { b.SleepDelayMS = defaultSleepDelayMS },
		},
		fieldDefault{
			key:   "bridge.poll_interval_ms",
			need:  func() bool { return b.PollIntervalMS <= 0 },
			apply: func() { b.PollIntervalMS = defaultPollIntervalMS },
		},
		boolFieldDefault("bridge.categories.messages", &b.Categories.Messages, true),
		boolFieldDefault("bridge.categories.market_data", &b.Categories.MarketData, true),
		boolFieldDefault("bridge.categories.bar_data", &b.Categories.BarData, true),
		boolFieldDefault("bridge.categories.open_orders", &b.Categories.OpenOrders, true),
		boolFieldDefault("bridge.categories.historical_data", &b.Categories.HistoricalData, true),
		boolFieldDefault("bridge.categories.historical_trades", &b.Categories.HistoricalTrades, true),
	)
}

func (h *HistoryConfig) applyDefaults(keys keySet) {
	if h == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("history.timeframe", &h.Timeframe, defaultHistoryTimeframe),
		fieldDefault{
			key:   "history.lookback_days",
			need:  func() bool { return h.LookbackDays <= 0 },
			apply: func() { h.LookbackDays = defaultLookbackDays },
		},
		fieldDefault{
			key:   "history.trades_lookback_days",
			need:  func() bool { return h.TradesLookbackDays <= 0 },
			apply: func() { h.TradesLookbackDays = defaultTradesLookbackDays },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "trading.default_lots",
			need:  func() bool { return t.DefaultLots <= 0 },
			apply: func() { t.DefaultLots = defaultTradingLots },
		},
		fieldDefault{
			key:   "trading.max_open_orders",
			need:  func() bool { return t.MaxOpenOrders <= 0 },
			apply: func() { t.MaxOpenOrders = defaultTradingMaxOpen },
		},
		fieldDefault{
			key:   "trading.break_even_pips",
			need:  func() bool { return t.BreakEvenPips <= 0 },
			apply: func() { t.BreakEvenPips = defaultBreakEvenPips },
		},
		fieldDefault{
			key:   "trading.pending_cancel_pips",
			need:  func() bool { return t.PendingCancelPips <= 0 },
			apply: func() { t.PendingCancelPips = defaultPendingCancelPips },
		},
	)
}

func (t *TraderConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("trader.run_interval", &t.RunInterval, defaultTraderRunInterval),
		fieldDefault{
			key:   "trader.run_window_minutes",
			need:  func() bool { return t.RunWindowMinutes <= 0 },
			apply: func() { t.RunWindowMinutes = defaultTraderWindowMinutes },
		},
		stringFieldDefault("trader.state_dir", &t.StateDir, defaultTraderStateDir),
		boolFieldDefault("trader.weekdays_only", &t.WeekdaysOnly, true),
		boolFieldDefault("trader.skip_on_the_hour", &t.SkipOnTheHour, true),
		fieldDefault{
			key:   "trader.restart_threshold",
			need:  func() bool { return t.RestartThreshold <= 0 },
			apply: func() { t.RestartThreshold = defaultRestartThreshold },
		},
		fieldDefault{
			key:   "trader.profit_report_hours",
			need:  func() bool { return t.ProfitReportHours <= 0 },
			apply: func() { t.ProfitReportHours = defaultProfitReportHours },
		},
		fieldDefault{
			key:   "trader.profit_report_minute",
			need:  func() bool { return t.ProfitReportMinute <= 0 },
			apply: func() { t.ProfitReportMinute = defaultProfitReportMinute },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
