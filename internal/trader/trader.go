// Package trader drives the scheduled trading runs. Every aligned
// interval it claims a session lock, spins up a fresh bridge to the
// terminal, requests data, maintains existing orders, dispatches the
// strategy on every symbol whose backfill completes inside the run
// window, and tears everything down again.
package trader

import (
	"context"
	"fmt"
	"os/exec"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sorul/tradingbot/internal/bridge"
	"github.com/sorul/tradingbot/internal/config"
	"github.com/sorul/tradingbot/internal/instruments"
	"github.com/sorul/tradingbot/internal/logger"
	"github.com/sorul/tradingbot/internal/market"
	"github.com/sorul/tradingbot/internal/notifier"
	"github.com/sorul/tradingbot/internal/scheduler"
	"github.com/sorul/tradingbot/internal/strategy"
)

type Trader struct {
	cfg      *config.Config
	registry *instruments.Registry
	notify   notifier.TextNotifier
	state    *runState

	nowFn func() time.Time

	// live is the bridge of the run in progress, nil between runs.
	// The status server reads it.
	live atomic.Pointer[bridge.Bridge]
}

func New(cfg *config.Config, registry *instruments.Registry, notify notifier.TextNotifier) (*Trader, error) {
	state, err := newRunState(cfg.Trader.StateDir)
	if err != nil {
		return nil, fmt.Errorf("状态目录不可用 %s: %w", cfg.Trader.StateDir, err)
	}
	if notify == nil {
		notify = notifier.Nop{}
	}
	return &Trader{
		cfg:      cfg,
		registry: registry,
		notify:   notify,
		state:    state,
		nowFn:    time.Now,
	}, nil
}

// LiveBridge returns the bridge of the run in progress, nil when idle.
func (t *Trader) LiveBridge() *bridge.Bridge {
	return t.live.Load()
}

// RunLoop blocks until ctx ends, executing one run per aligned
// interval.
func (t *Trader) RunLoop(ctx context.Context) error {
	sched := scheduler.NewAlignedScheduler(ctx, t.cfg.Trader.RunEvery(), 0)
	sched.Start(func() { t.Handle(ctx) })
	return nil
}

// Handle is one scheduled tick. It skips quietly when a previous run
// still holds the lock or the market is closed, and never lets a
// panicking run take the process down.
func (t *Trader) Handle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("交易轮次 panic: %v\n%s", r, debug.Stack())
		}
	}()
	if t.state.locked() {
		logger.Warnf("上一轮仍持有会话锁，跳过本轮")
		return
	}
	if !t.timeViable() {
		logger.Debugf("当前不在交易时段，跳过本轮")
		return
	}
	if err := t.runOnce(ctx); err != nil {
		logger.Errorf("交易轮次失败: %v", err)
	}
}

// timeViable gates runs to broker-timezone weekdays and skips the
// on-the-hour tick, both switchable in config.
func (t *Trader) timeViable() bool {
	now := t.nowFn().In(t.cfg.Terminal.BrokerLocation())
	if t.cfg.Trader.WeekdaysOnly {
		if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return false
		}
	}
	if t.cfg.Trader.SkipOnTheHour && now.Minute() == 0 {
		return false
	}
	return true
}

func (t *Trader) runOnce(ctx context.Context) error {
	runID := uuid.NewString()
	if !t.state.tryLock(runID) {
		logger.Warnf("会话锁竞争失败，跳过本轮")
		return nil
	}
	logger.Infof("交易轮次开始 run_id=%s", runID)

	handler := &runHandler{trader: t}
	br, err := bridge.New(t.cfg, t.registry, handler)
	if err != nil {
		t.state.unlock()
		return err
	}
	handler.bind(br)

	defer func() {
		br.Stop()
		br.Deactivate()
		br.Wait()
		t.live.Store(nil)
		t.state.unlock()
		logger.Infof("交易轮次结束 run_id=%s 完成品种=%d", runID, len(br.SuccessfulSymbols()))
	}()

	if err := br.Start(ctx); err != nil {
		return err
	}
	t.live.Store(br)

	// Leftovers of a previous run would be replayed as fresh data.
	br.CleanAllCommandFiles()
	br.CleanAllHistoricalFiles()
	br.CleanMessages()

	windowStart := market.Floor(t.nowFn(), t.cfg.Trader.RunEvery())

	t.sendProfitReport(br)

	symbols := t.registry.Symbols()
	for _, symbol := range symbols {
		if err := br.RequestHistoricalData(symbol); err != nil {
			return err
		}
	}
	if err := br.SubscribeSymbols(symbols); err != nil {
		return err
	}
	if subs := t.registry.BarSubscriptions(); len(subs) > 0 {
		if err := br.SubscribeSymbolsBarData(subs); err != nil {
			return err
		}
	}
	if t.cfg.Bridge.Categories.HistoricalTrades {
		if err := br.RequestHistoricalTrades(); err != nil {
			return err
		}
	}

	t.handleTrades(br)
	t.handleNewHistoricalData(ctx, br, windowStart)
	return nil
}

// handleTrades walks the open orders and applies each order's own
// strategy to it: pending orders may get cancelled, filled orders may
// get their stop moved to entry.
func (t *Trader) handleTrades(br *bridge.Bridge) {
	orders := br.Orders()
	for _, order := range orders {
		strat := strategy.ByComment(order.Comment, t.cfg.Trading)
		var quote strategy.Quote
		quote.Bid, quote.Ask = br.GetBidAsk(order.Symbol)
		pip := t.registry.Pip(order.Symbol)

		var action strategy.Action
		if order.Type.Pending() {
			action = strat.HandlePending(order, quote, pip)
		} else {
			action = strat.HandleFilled(order, quote, pip)
		}
		switch action {
		case strategy.ActionCancel:
			logger.Infof("撤销偏离过远的挂单 %s", order)
			if err := br.CloseOrder(order.Ticket, 0); err != nil {
				logger.Errorf("撤单命令发送失败: %v", err)
			}
		case strategy.ActionBreakEven:
			logger.Infof("移动止损到保本位 %s", order)
			if err := br.PlaceBreakEven(order, pip); err != nil {
				logger.Errorf("保本命令发送失败: %v", err)
			}
		}
	}

	message := fmt.Sprintf("Number of open orders: %d", len(orders))
	if len(orders) > t.cfg.Trading.MaxOpenOrders {
		logger.Warnf("%s", message)
	} else {
		logger.Debugf("%s", message)
	}
}

// handleNewHistoricalData polls random remaining symbols until the
// backfill completes or the run window closes, then feeds the restart
// watchdog.
func (t *Trader) handleNewHistoricalData(ctx context.Context, br *bridge.Bridge, windowStart time.Time) {
	deadline := windowStart.Add(t.cfg.Trader.RunWindow())
	delay := t.cfg.Bridge.SleepDelay()

	for len(br.RemainingSymbols()) > 0 && t.nowFn().UTC().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
		br.CheckHistoricalData("")
		time.Sleep(delay)
	}

	remaining := br.RemainingSymbols()
	if len(remaining) > 0 {
		logger.Warnf("%d remaining symbols to process.", len(remaining))
	} else {
		t.state.resetTimesDown()
	}
	t.checkTerminalRestart(len(remaining))
}

// evaluateSymbol runs the default strategy on a freshly backfilled
// series and sends the order it proposes, respecting the open-order
// cap.
func (t *Trader) evaluateSymbol(br *bridge.Bridge, symbol string, series market.Series) {
	strat := strategy.ByComment("", t.cfg.Trading)
	pip := t.registry.Pip(symbol)
	order, ok := strat.Evaluate(strategy.Context{
		Symbol: symbol,
		Series: series,
		Now:    t.nowFn().In(t.cfg.Terminal.BrokerLocation()),
		Pip:    pip,
		Lots:   t.cfg.Trading.DefaultLots,
	})
	if !ok {
		logger.Debugf("%s 本轮无信号", symbol)
		return
	}
	if open := br.Orders(); len(open) >= t.cfg.Trading.MaxOpenOrders {
		logger.Warnf("持仓数已达上限 %d，放弃开仓 %s", t.cfg.Trading.MaxOpenOrders, symbol)
		return
	}
	if err := br.OpenOrder(order); err != nil {
		logger.Errorf("开仓命令发送失败: %v", err)
		return
	}
	logger.Infof("已发送开仓命令 %s", order)
	t.notifyOrderOpened(order.Symbol, order.String())
}

func (t *Trader) notifyOrderOpened(symbol, description string) {
	msg := notifier.StructuredMessage{
		Icon:  "📈",
		Title: "开仓决策 " + symbol,
		Sections: []notifier.MessageSection{
			{Title: "订单", Lines: []string{description}},
		},
		Timestamp: t.nowFn().In(t.cfg.Terminal.LocalLocation()),
	}
	go func() {
		if err := t.notify.SendText(msg.RenderMarkdown()); err != nil {
			logger.Warnf("开仓推送失败: %v", err)
		}
	}()
}

// sendProfitReport logs and pushes the balance delta since the last
// report, but only at the configured report minute.
func (t *Trader) sendProfitReport(br *bridge.Bridge) {
	local := t.nowFn().In(t.cfg.Terminal.LocalLocation())
	balance := br.GetBalance()
	last := t.state.lastBalance()
	difference := balance - last

	hours := t.cfg.Trader.ProfitReportHours
	if hours <= 0 {
		hours = 12
	}
	if local.Hour()%hours != 0 || local.Minute() != t.cfg.Trader.ProfitReportMinute {
		return
	}
	if balance < 0 {
		logger.Warnf("账户余额不可用，跳过盈亏汇报")
		return
	}

	emoji := "🚀"
	if difference < 0 {
		emoji = "☔"
	}
	logger.Infof("%s %.2f €", emoji, difference)

	msg := notifier.StructuredMessage{
		Icon:  emoji,
		Title: "盈亏汇报",
		Sections: []notifier.MessageSection{
			{Lines: []string{
				fmt.Sprintf("当前余额: %.2f", balance),
				fmt.Sprintf("上次余额: %.2f", last),
				fmt.Sprintf("差额: %.2f €", difference),
			}},
		},
		Timestamp: local,
	}
	if err := t.notify.SendText(msg.RenderMarkdown()); err != nil {
		logger.Warnf("盈亏推送失败: %v", err)
	}
	if err := t.state.saveBalance(balance); err != nil {
		logger.Warnf("记录余额失败: %v", err)
	}
}

// checkTerminalRestart reboots the terminal when more than half the
// universe stayed unanswered for several consecutive runs.
func (t *Trader) checkTerminalRestart(remaining int) {
	if remaining == 0 {
		return
	}
	ctd := t.state.timesDown()
	total := len(t.registry.Symbols())
	if remaining > total/2 && ctd > t.cfg.Trader.RestartThreshold {
		logger.Warnf("终端疑似掉线 (remaining=%d/%d down=%d)，执行重启", remaining, total, ctd)
		if err := t.restartTerminal(); err != nil {
			logger.Errorf("终端重启失败: %v", err)
			return
		}
		t.state.resetTimesDown()
		return
	}
	t.state.incrementTimesDown()
}

func (t *Trader) restartTerminal() error {
	command := t.cfg.Trader.RestartCommand
	if command == "" {
		return fmt.Errorf("未配置 trader.restart_command")
	}
	out, err := exec.Command("/bin/sh", "-c", command).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, out)
	}
	return nil
}
