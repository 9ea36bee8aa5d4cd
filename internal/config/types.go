package config

import (
	"strings"
	"time"

	"github.com/sorul/tradingbot/internal/scheduler"
)

// Config 是 tradingbot 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Terminal TerminalConfig `toml:"terminal"`
	Bridge   BridgeConfig   `toml:"bridge"`
	History  HistoryConfig  `toml:"history"`
	Trading  TradingConfig  `toml:"trading"`
	Trader   TraderConfig   `toml:"trader"`
	Notify   NotifyConfig   `toml:"notify"`
}

type AppConfig struct {
	Env             string `toml:"env"`
	LogLevel        string `toml:"log_level"`
	HTTPAddr        string `toml:"http_addr"`
	LogPath         string `toml:"log_path"`
	TraceLogPath    string `toml:"trace_log_path"`
	TraceProtocol   bool   `toml:"trace_protocol"`
	InstrumentsPath string `toml:"instruments_path"`
}

// TerminalConfig 描述 MetaTrader 终端侧的文件目录与时区。
type TerminalConfig struct {
	// FilesDir is the MQL Files directory; the bridge works inside
	// its AgentFiles subdirectory.
	FilesDir       string `toml:"files_dir"`
	BrokerTimezone string `toml:"broker_timezone"`
	LocalTimezone  string `toml:"local_timezone"`

	brokerLoc *time.Location
	localLoc  *time.Location
}

// BrokerLocation returns the parsed broker timezone. validate() resolves
// it; before that the zone falls back to UTC.
func (t *TerminalConfig) BrokerLocation() *time.Location {
	if t == nil || t.brokerLoc == nil {
		return time.UTC
	}
	return t.brokerLoc
}

func (t *TerminalConfig) LocalLocation() *time.Location {
	if t == nil || t.localLoc == nil {
		return time.UTC
	}
	return t.localLoc
}

// BridgeConfig 控制命令通道与各轮询器的节奏。
type BridgeConfig struct {
	CommandSlots        int              `toml:"command_slots"`
	CommandRetrySeconds int              `toml:"command_retry_seconds"`
	SleepDelayMS        int              `toml:"sleep_delay_ms"`
	PollIntervalMS      int              `toml:"poll_interval_ms"`
	Categories          CategoriesConfig `toml:"categories"`
}

func (b BridgeConfig) CommandRetry() time.Duration {
	return time.Duration(b.CommandRetrySeconds) * time.Second
}

func (b BridgeConfig) SleepDelay() time.Duration {
	return time.Duration(b.SleepDelayMS) * time.Millisecond
}

func (b BridgeConfig) PollInterval() time.Duration {
	return time.Duration(b.PollIntervalMS) * time.Millisecond
}

// CategoriesConfig 按类别开关轮询协程。
type CategoriesConfig struct {
	Messages         bool `toml:"messages"`
	MarketData       bool `toml:"market_data"`
	BarData          bool `toml:"bar_data"`
	OpenOrders       bool `toml:"open_orders"`
	HistoricalData   bool `toml:"historical_data"`
	HistoricalTrades bool `toml:"historical_trades"`
}

type HistoryConfig struct {
	Timeframe          string `toml:"timeframe"`
	LookbackDays       int    `toml:"lookback_days"`
	TradesLookbackDays int    `toml:"trades_lookback_days"`
}

// TradingConfig 控制默认手数与订单维护阈值。
type TradingConfig struct {
	DefaultLots       float64 `toml:"default_lots"`
	MaxOpenOrders     int     `toml:"max_open_orders"`
	BreakEvenPips     float64 `toml:"break_even_pips"`
	PendingCancelPips float64 `toml:"pending_cancel_pips"`
}

// TraderConfig 控制按周期调度的交易主循环。
type TraderConfig struct {
	Enabled            bool   `toml:"enabled"`
	RunInterval        string `toml:"run_interval"`
	RunWindowMinutes   int    `toml:"run_window_minutes"`
	StateDir           string `toml:"state_dir"`
	WeekdaysOnly       bool   `toml:"weekdays_only"`
	SkipOnTheHour      bool   `toml:"skip_on_the_hour"`
	RestartThreshold   int    `toml:"restart_threshold"`
	RestartCommand     string `toml:"restart_command"`
	ProfitReportHours  int    `toml:"profit_report_hours"`
	ProfitReportMinute int    `toml:"profit_report_minute"`
}

func (t TraderConfig) RunWindow() time.Duration {
	return time.Duration(t.RunWindowMinutes) * time.Minute
}

// RunEvery returns the parsed run cadence; validate() guarantees it
// parses when the trader is enabled.
func (t TraderConfig) RunEvery() time.Duration {
	d, ok := scheduler.ParseRunInterval(t.RunInterval)
	if !ok {
		return 5 * time.Minute
	}
	return d
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
