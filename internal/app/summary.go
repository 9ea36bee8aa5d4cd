package app

import (
	"fmt"
	"strings"

	"github.com/sorul/tradingbot/internal/logger"
)

// StartupSummary 在启动时打印一次关键配置，方便核对部署环境。
type StartupSummary struct {
	Terminal TerminalSummary
	Bridge   BridgeSummary
	Universe UniverseSummary
	Trader   TraderSummary
}

type TerminalSummary struct {
	FilesDir       string
	BrokerTimezone string
	LocalTimezone  string
}

type BridgeSummary struct {
	CommandSlots int
	PollInterval string
	Categories   []string
}

type UniverseSummary struct {
	Symbols      []string
	Timeframe    string
	LookbackDays int
}

type TraderSummary struct {
	RunInterval string
	RunWindow   string
	Strategy    string
	Notifier    string
}

func (s *StartupSummary) Print() {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%*s\n", 40+len("启动配置摘要 (STARTUP SUMMARY)")/2, "启动配置摘要 (STARTUP SUMMARY)")
	fmt.Fprintln(&b, rule)

	fmt.Fprintln(&b, "[终端 (TERMINAL)]")
	fmt.Fprintf(&b, "  文件目录: %s\n", s.Terminal.FilesDir)
	fmt.Fprintf(&b, "  经纪商时区: %s\n", s.Terminal.BrokerTimezone)
	fmt.Fprintf(&b, "  本地时区: %s\n", s.Terminal.LocalTimezone)

	fmt.Fprintln(&b, "[桥接 (BRIDGE)]")
	fmt.Fprintf(&b, "  命令槽位: %d\n", s.Bridge.CommandSlots)
	fmt.Fprintf(&b, "  轮询间隔: %s\n", s.Bridge.PollInterval)
	fmt.Fprintf(&b, "  启用类别: %s\n", formatList(s.Bridge.Categories))

	fmt.Fprintln(&b, "[品种 (UNIVERSE)]")
	fmt.Fprintf(&b, "  监控品种: %s\n", formatList(s.Universe.Symbols))
	fmt.Fprintf(&b, "  历史周期: %s\n", s.Universe.Timeframe)
	fmt.Fprintf(&b, "  回看天数: %d\n", s.Universe.LookbackDays)

	fmt.Fprintln(&b, "[交易循环 (TRADER)]")
	fmt.Fprintf(&b, "  执行间隔: %s\n", s.Trader.RunInterval)
	fmt.Fprintf(&b, "  数据窗口: %s\n", s.Trader.RunWindow)
	fmt.Fprintf(&b, "  默认策略: %s\n", s.Trader.Strategy)
	fmt.Fprintf(&b, "  通知通道: %s\n", s.Trader.Notifier)
	fmt.Fprintln(&b, rule)
	logger.InfoBlock(b.String())
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
