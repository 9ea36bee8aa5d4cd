// Package bridge is the file-based link to the trading terminal. One
// Bridge owns one terminal directory: commands go out through numbered
// slot files, state comes back through JSON snapshot files watched by
// per-category pollers. A Bridge is built, started once, and thrown
// away; a new run gets a new Bridge.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sorul/tradingbot/internal/config"
	"github.com/sorul/tradingbot/internal/logger"
	"github.com/sorul/tradingbot/internal/market"
)

// SymbolSource names the symbols the bridge backfills and cleans up
// after. The instruments registry satisfies it.
type SymbolSource interface {
	Symbols() []string
}

// SymbolList is a fixed SymbolSource, handy for tests.
type SymbolList []string

func (s SymbolList) Symbols() []string { return append([]string(nil), s...) }

// Bridge is the facade over the terminal directory.
type Bridge struct {
	paths    Paths
	box      Mailbox
	channel  *commandChannel
	universe SymbolSource
	handler  EventHandler

	brokerLoc          *time.Location
	timeframe          market.Timeframe
	lookbackDays       int
	tradesLookbackDays int
	categories         config.CategoriesConfig
	pollInterval       time.Duration

	nowFn func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
	running atomic.Bool
	active  atomic.Bool

	ticks     atomic.Pointer[map[string]market.Tick]
	bars      atomic.Pointer[map[string]barEntry]
	orders    atomic.Pointer[ordersState]
	trades    atomic.Pointer[map[string]HistoricalTrade]
	msgLog    atomic.Pointer[MessageLog]
	msgMillis atomic.Int64

	histMu     sync.RWMutex
	historical map[string]market.Series
	successful map[string]struct{}
}

// New builds a Bridge over the configured terminal directory. The
// directory must already exist, otherwise the terminal is not where
// the config says it is and nothing else can work.
func New(cfg *config.Config, universe SymbolSource, handler EventHandler) (*Bridge, error) {
	info, err := os.Stat(cfg.Terminal.FilesDir)
	if err != nil {
		return nil, fmt.Errorf("终端文件目录不可用 %s: %w", cfg.Terminal.FilesDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("终端文件路径不是目录: %s", cfg.Terminal.FilesDir)
	}
	paths := NewPaths(cfg.Terminal.FilesDir)
	box := NewFileMailbox(paths, cfg.Bridge.CommandSlots)
	return NewWithMailbox(cfg, box, universe, handler)
}

// NewWithMailbox is New with the slot transport supplied by the
// caller. Tests hand in an in-memory mailbox here.
func NewWithMailbox(cfg *config.Config, box Mailbox, universe SymbolSource, handler EventHandler) (*Bridge, error) {
	timeframe, err := market.ParseTimeframe(cfg.History.Timeframe)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		handler = NopHandler{}
	}
	if universe == nil {
		universe = SymbolList(nil)
	}
	b := &Bridge{
		paths:              NewPaths(cfg.Terminal.FilesDir),
		box:                box,
		channel:            newCommandChannel(box, cfg.Bridge.CommandRetry(), cfg.Bridge.SleepDelay()),
		universe:           universe,
		handler:            handler,
		brokerLoc:          cfg.Terminal.BrokerLocation(),
		timeframe:          timeframe,
		lookbackDays:       cfg.History.LookbackDays,
		tradesLookbackDays: cfg.History.TradesLookbackDays,
		categories:         cfg.Bridge.Categories,
		pollInterval:       cfg.Bridge.PollInterval(),
		nowFn:              time.Now,
		historical:         make(map[string]market.Series),
		successful:         make(map[string]struct{}),
	}
	b.active.Store(true)
	emptyTicks := map[string]market.Tick{}
	b.ticks.Store(&emptyTicks)
	emptyBars := map[string]barEntry{}
	b.bars.Store(&emptyBars)
	b.orders.Store(&ordersState{rawAccount: map[string]any{}})
	emptyTrades := map[string]HistoricalTrade{}
	b.trades.Store(&emptyTrades)
	b.msgLog.Store(&MessageLog{})
	return b, nil
}

// Start resets the command sequence with the terminal and spawns one
// poller per enabled category. It may be called once per Bridge.
func (b *Bridge) Start(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return errors.New("bridge 已经启动过")
	}
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.running.Store(true)

	if err := b.channel.reset(); err != nil {
		b.cancel()
		return fmt.Errorf("重置命令序号失败: %w", err)
	}

	type pollerSpec struct {
		name    string
		enabled bool
		poll    func()
	}
	specs := []pollerSpec{
		{"messages", b.categories.Messages, b.checkMessages},
		{"market_data", b.categories.MarketData, b.checkMarketData},
		{"bar_data", b.categories.BarData, b.checkBarData},
		{"open_orders", b.categories.OpenOrders, b.checkOpenOrders},
		{"historical_data", b.categories.HistoricalData, b.pollHistoricalData},
		{"historical_trades", b.categories.HistoricalTrades, b.checkHistoricalTrades},
	}
	for _, spec := range specs {
		if !spec.enabled {
			continue
		}
		b.wg.Add(1)
		go b.runLoop(spec.name, spec.poll)
	}
	logger.Infof("bridge 已启动，目录 %s", b.paths.Root())
	return nil
}

// runLoop drives one category: sleep an interval, then poll if the
// bridge is neither paused nor shut down.
func (b *Bridge) runLoop(name string, poll func()) {
	defer b.wg.Done()
	timer := time.NewTimer(b.pollInterval)
	defer timer.Stop()
	for {
		select {
		case <-b.ctx.Done():
			logger.Debugf("%s 轮询已退出", name)
			return
		case <-timer.C:
		}
		if !b.active.Load() {
			logger.Debugf("%s 轮询已退出", name)
			return
		}
		if b.running.Load() {
			poll()
		}
		timer.Reset(b.pollInterval)
	}
}

// Stop pauses the pollers without tearing anything down.
func (b *Bridge) Stop() {
	b.running.Store(false)
}

// Resume lifts a Stop pause.
func (b *Bridge) Resume() {
	b.running.Store(true)
}

// Deactivate shuts the bridge down for good. Pollers exit and the
// Bridge cannot be restarted.
func (b *Bridge) Deactivate() {
	b.active.Store(false)
	if b.cancel != nil {
		b.cancel()
	}
}

// Wait blocks until every poller has exited.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

// Running reports whether pollers currently execute their checks.
func (b *Bridge) Running() bool { return b.running.Load() }

// Active reports whether the bridge has not been deactivated.
func (b *Bridge) Active() bool { return b.active.Load() }

// Sequence exposes the current command sequence number.
func (b *Bridge) Sequence() int { return b.channel.sequence() }

// CleanAllCommandFiles clears command slots in ascending order and
// stops at the first slot it cannot remove, so a slot the terminal is
// consuming right now ends the sweep instead of being skipped over.
func (b *Bridge) CleanAllCommandFiles() {
	for slot := 0; slot < b.box.Slots(); slot++ {
		if err := b.box.Delete(slot); err != nil {
			return
		}
	}
}
