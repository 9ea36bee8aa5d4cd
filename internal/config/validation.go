package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sorul/tradingbot/internal/market"
	"github.com/sorul/tradingbot/internal/scheduler"
)

// validate 对配置进行基础校验，并解析时区。
func validate(c *Config) error {
	if err := c.Terminal.validate(); err != nil {
		return err
	}
	if err := c.Bridge.validate(); err != nil {
		return err
	}
	if err := c.History.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Trader.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (t *TerminalConfig) validate() error {
	if strings.TrimSpace(t.FilesDir) == "" {
		return fmt.Errorf("terminal.files_dir cannot be empty")
	}
	loc, err := time.LoadLocation(strings.TrimSpace(t.BrokerTimezone))
	if err != nil {
		return fmt.Errorf("terminal.broker_timezone invalid: %w", err)
	}
	t.brokerLoc = loc
	loc, err = time.LoadLocation(strings.TrimSpace(t.LocalTimezone))
	if err != nil {
		return fmt.Errorf("terminal.local_timezone invalid: %w", err)
	}
	t.localLoc = loc
	return nil
}

func (b *BridgeConfig) validate() error {
	if b.CommandSlots < 1 || b.CommandSlots > 1000 {
		return fmt.Errorf("bridge.command_slots must be in [1,1000]")
	}
	if b.CommandRetrySeconds < 1 {
		return fmt.Errorf("bridge.command_retry_seconds must be >= 1")
	}
	if b.SleepDelayMS < 1 {
		return fmt.Errorf("bridge.sleep_delay_ms must be >= 1")
	}
	if b.PollIntervalMS < 1 {
		return fmt.Errorf("bridge.poll_interval_ms must be >= 1")
	}
	return nil
}

func (h *HistoryConfig) validate() error {
	if _, err := market.ParseTimeframe(h.Timeframe); err != nil {
		return fmt.Errorf("history.timeframe invalid: %w", err)
	}
	if h.LookbackDays < 1 {
		return fmt.Errorf("history.lookback_days must be >= 1")
	}
	if h.TradesLookbackDays < 1 {
		return fmt.Errorf("history.trades_lookback_days must be >= 1")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.DefaultLots <= 0 {
		return fmt.Errorf("trading.default_lots must be > 0")
	}
	if t.MaxOpenOrders < 1 {
		return fmt.Errorf("trading.max_open_orders must be >= 1")
	}
	return nil
}

func (t *TraderConfig) validate() error {
	if !t.Enabled {
		return nil
	}
	if _, ok := scheduler.ParseRunInterval(t.RunInterval); !ok {
		return fmt.Errorf("trader.run_interval invalid: %q", t.RunInterval)
	}
	if t.RunWindowMinutes < 1 {
		return fmt.Errorf("trader.run_window_minutes must be >= 1")
	}
	if strings.TrimSpace(t.StateDir) == "" {
		return fmt.Errorf("trader.state_dir cannot be empty")
	}
	if t.ProfitReportMinute < 0 || t.ProfitReportMinute > 59 {
		return fmt.Errorf("trader.profit_report_minute must be in [0,59]")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	return nil
}
