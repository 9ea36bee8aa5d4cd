package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
terminal:
  files_dir: /tmp/mt/MQL4/Files
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9920", cfg.App.HTTPAddr)
	assert.Equal(t, "configs/instruments.yaml", cfg.App.InstrumentsPath)

	assert.Equal(t, "/tmp/mt/MQL4/Files", cfg.Terminal.FilesDir)
	assert.Equal(t, time.UTC, cfg.Terminal.BrokerLocation())
	assert.Equal(t, time.UTC, cfg.Terminal.LocalLocation())

	assert.Equal(t, 50, cfg.Bridge.CommandSlots)
	assert.Equal(t, 300, cfg.Bridge.CommandRetrySeconds)
	assert.Equal(t, 5, cfg.Bridge.SleepDelayMS)
	assert.Equal(t, 5, cfg.Bridge.PollIntervalMS)
	assert.True(t, cfg.Bridge.Categories.Messages)
	assert.True(t, cfg.Bridge.Categories.MarketData)
	assert.True(t, cfg.Bridge.Categories.BarData)
	assert.True(t, cfg.Bridge.Categories.OpenOrders)
	assert.True(t, cfg.Bridge.Categories.HistoricalData)
	assert.True(t, cfg.Bridge.Categories.HistoricalTrades)

	assert.Equal(t, "M5", cfg.History.Timeframe)
	assert.Equal(t, 30, cfg.History.LookbackDays)
	assert.Equal(t, 30, cfg.History.TradesLookbackDays)

	assert.Equal(t, 0.01, cfg.Trading.DefaultLots)
	assert.Equal(t, 900, cfg.Trading.MaxOpenOrders)
	assert.Equal(t, 10.0, cfg.Trading.BreakEvenPips)
	assert.Equal(t, 25.0, cfg.Trading.PendingCancelPips)

	assert.False(t, cfg.Trader.Enabled)
	assert.Equal(t, "5m", cfg.Trader.RunInterval)
	assert.Equal(t, 4, cfg.Trader.RunWindowMinutes)
	assert.Equal(t, "/data/state", cfg.Trader.StateDir)
	assert.True(t, cfg.Trader.WeekdaysOnly)
	assert.True(t, cfg.Trader.SkipOnTheHour)
	assert.Equal(t, 4, cfg.Trader.RestartThreshold)
	assert.Equal(t, 12, cfg.Trader.ProfitReportHours)
	assert.Equal(t, 5, cfg.Trader.ProfitReportMinute)
}

// 显式写下的 false/0 不能被默认值覆盖。
func TestLoadKeepsExplicitFalseAndZero(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
terminal:
  files_dir: /tmp/mt
bridge:
  categories:
    market_data: false
trader:
  weekdays_only: false
  profit_report_minute: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Bridge.Categories.MarketData)
	assert.True(t, cfg.Bridge.Categories.Messages)
	assert.False(t, cfg.Trader.WeekdaysOnly)
	assert.True(t, cfg.Trader.SkipOnTheHour)
	assert.Equal(t, 0, cfg.Trader.ProfitReportMinute)
}

func TestLoadWeaklyTypedValues(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
terminal:
  files_dir: /tmp/mt
bridge:
  command_retry_seconds: "120"
trading:
  default_lots: "0.05"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Bridge.CommandRetrySeconds)
	assert.Equal(t, 0.05, cfg.Trading.DefaultLots)
}

func TestLoadMergesIncludesRootWins(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
terminal:
  files_dir: /tmp/base
bridge:
  command_slots: 10
history:
  lookback_days: 7
`)
	writeConfig(t, dir, "mid.yaml", `
include:
  - base.yaml
bridge:
  command_slots: 20
`)
	path := writeConfig(t, dir, "config.yaml", `
include:
  - mid.yaml
bridge:
  command_slots: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Bridge.CommandSlots)
	assert.Equal(t, 7, cfg.History.LookbackDays)
	assert.Equal(t, "/tmp/base", cfg.Terminal.FilesDir)
}

func TestLoadRejectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include:\n  - b.yaml\n")
	path := writeConfig(t, dir, "b.yaml", "include:\n  - a.yaml\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing files dir",
			yaml:    "app:\n  env: dev\n",
			wantErr: "terminal.files_dir",
		},
		{
			name:    "bad broker timezone",
			yaml:    "terminal:\n  files_dir: /tmp/mt\n  broker_timezone: Mars/Olympus\n",
			wantErr: "terminal.broker_timezone",
		},
		{
			name:    "bad timeframe",
			yaml:    "terminal:\n  files_dir: /tmp/mt\nhistory:\n  timeframe: M7\n",
			wantErr: "history.timeframe",
		},
		{
			name:    "too many command slots",
			yaml:    "terminal:\n  files_dir: /tmp/mt\nbridge:\n  command_slots: 2000\n",
			wantErr: "bridge.command_slots",
		},
		{
			name:    "negative lots",
			yaml:    "terminal:\n  files_dir: /tmp/mt\ntrading:\n  default_lots: -1\n",
			wantErr: "trading.default_lots",
		},
		{
			name:    "bad run interval",
			yaml:    "terminal:\n  files_dir: /tmp/mt\ntrader:\n  enabled: true\n  run_interval: 5w\n",
			wantErr: "trader.run_interval",
		},
		{
			name:    "telegram missing token",
			yaml:    "terminal:\n  files_dir: /tmp/mt\nnotify:\n  telegram:\n    enabled: true\n",
			wantErr: "bot_token",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tc.yaml)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadRejectsBadPaths(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDurationHelpers(t *testing.T) {
	b := BridgeConfig{CommandRetrySeconds: 120, SleepDelayMS: 5, PollIntervalMS: 25}
	assert.Equal(t, 2*time.Minute, b.CommandRetry())
	assert.Equal(t, 5*time.Millisecond, b.SleepDelay())
	assert.Equal(t, 25*time.Millisecond, b.PollInterval())

	tr := TraderConfig{RunInterval: "15m", RunWindowMinutes: 4}
	assert.Equal(t, 15*time.Minute, tr.RunEvery())
	assert.Equal(t, 4*time.Minute, tr.RunWindow())

	tr.RunInterval = "bogus"
	assert.Equal(t, 5*time.Minute, tr.RunEvery())
}

func TestTerminalLocationFallback(t *testing.T) {
	var nilTerm *TerminalConfig
	assert.Equal(t, time.UTC, nilTerm.BrokerLocation())
	assert.Equal(t, time.UTC, nilTerm.LocalLocation())

	term := &TerminalConfig{}
	assert.Equal(t, time.UTC, term.BrokerLocation())
}
