// Package notifier pushes trading events to the outside world. The
// rest of the code depends only on TextNotifier so swapping Telegram
// for anything else stays a one-liner.
package notifier

import (
	"github.com/sorul/tradingbot/internal/config"
	"github.com/sorul/tradingbot/internal/logger"
)

// TextNotifier defines a minimal text notification interface.
type TextNotifier interface {
	SendText(text string) error
}

// Nop drops every message. Used when no channel is configured.
type Nop struct{}

func (Nop) SendText(string) error { return nil }

// FromConfig picks the configured notifier, falling back to Nop.
func FromConfig(cfg config.NotifyConfig) TextNotifier {
	if cfg.Telegram.Enabled {
		logger.Infof("通知通道: telegram chat_id=%s", cfg.Telegram.ChatID)
		return NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	logger.Infof("通知通道未配置，推送将被丢弃")
	return Nop{}
}
