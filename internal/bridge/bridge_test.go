package bridge

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorul/tradingbot/internal/config"
	"github.com/sorul/tradingbot/internal/market"
	"github.com/sorul/tradingbot/internal/trading"
)

// memMailbox keeps command slots in memory so channel behavior can be
// tested without a terminal directory.
type memMailbox struct {
	mu    sync.Mutex
	slots int
	data  map[int][]byte
}

func newMemMailbox(slots int) *memMailbox {
	return &memMailbox{slots: slots, data: make(map[int][]byte)}
}

func (m *memMailbox) Slots() int { return m.slots }

func (m *memMailbox) TryClaim(slot int, payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.data[slot]; taken {
		return false
	}
	m.data[slot] = append([]byte(nil), payload...)
	return true
}

func (m *memMailbox) Read(slot int) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[slot]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), raw...), true
}

func (m *memMailbox) Delete(slot int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[slot]; !ok {
		return os.ErrNotExist
	}
	delete(m.data, slot)
	return nil
}

func (m *memMailbox) contents() map[int]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]string, len(m.data))
	for slot, raw := range m.data {
		out[slot] = string(raw)
	}
	return out
}

type tickEvent struct {
	symbol   string
	bid, ask float64
}

// recordingHandler collects every event in arrival order.
type recordingHandler struct {
	mu          sync.Mutex
	messages    []Message
	ticks       []tickEvent
	barKeys     []string
	orderEvents [][]trading.Order
	accounts    []trading.AccountInfo
	histSymbols []string
}

func (h *recordingHandler) OnMessage(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *recordingHandler) OnTick(symbol string, bid, ask float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ticks = append(h.ticks, tickEvent{symbol: symbol, bid: bid, ask: ask})
}

func (h *recordingHandler) OnBarData(symbol, timeframe string, _ market.Series) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.barKeys = append(h.barKeys, symbol+"_"+timeframe)
}

func (h *recordingHandler) OnOrderEvent(account trading.AccountInfo, orders []trading.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.accounts = append(h.accounts, account)
	h.orderEvents = append(h.orderEvents, orders)
}

func (h *recordingHandler) OnHistoricalData(symbol string, _ market.Series) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.histSymbols = append(h.histSymbols, symbol)
}

func (h *recordingHandler) tickCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ticks)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Terminal.FilesDir = t.TempDir()
	cfg.Bridge.CommandSlots = 8
	cfg.Bridge.CommandRetrySeconds = 1
	cfg.Bridge.SleepDelayMS = 1
	cfg.Bridge.PollIntervalMS = 5
	cfg.History.Timeframe = "M5"
	cfg.History.LookbackDays = 30
	cfg.History.TradesLookbackDays = 30
	return cfg
}

func newTestBridge(t *testing.T, handler EventHandler) (*Bridge, *memMailbox) {
	t.Helper()
	cfg := testConfig(t)
	paths := NewPaths(cfg.Terminal.FilesDir)
	require.NoError(t, os.MkdirAll(paths.Root(), 0o755))
	box := newMemMailbox(cfg.Bridge.CommandSlots)
	b, err := NewWithMailbox(cfg, box, SymbolList{"EURUSD", "GBPUSD"}, handler)
	require.NoError(t, err)
	return b, box
}

func writeSnapshot(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBridgeStartOnlyOnce(t *testing.T) {
	b, _ := newTestBridge(t, nil)
	b.channel.settle = 0

	require.NoError(t, b.Start(context.Background()))
	defer func() {
		b.Deactivate()
		b.Wait()
	}()

	assert.Error(t, b.Start(context.Background()))
}

func TestBridgeStartSendsReset(t *testing.T) {
	b, box := newTestBridge(t, nil)
	b.channel.settle = 0

	require.NoError(t, b.Start(context.Background()))
	defer func() {
		b.Deactivate()
		b.Wait()
	}()

	content, ok := box.Read(0)
	require.True(t, ok)
	assert.Equal(t, "<:1|RESET_COMMAND_IDS|:>", string(content))
	assert.Equal(t, 1, b.Sequence())
}

func TestBridgeStopResumeDeactivate(t *testing.T) {
	b, _ := newTestBridge(t, nil)
	b.channel.settle = 0

	require.NoError(t, b.Start(context.Background()))
	assert.True(t, b.Running())
	assert.True(t, b.Active())

	b.Stop()
	assert.False(t, b.Running())
	b.Resume()
	assert.True(t, b.Running())

	b.Deactivate()
	assert.False(t, b.Active())
	b.Wait()
}

func TestBridgePollerDeliversTicks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bridge.Categories.MarketData = true
	paths := NewPaths(cfg.Terminal.FilesDir)
	require.NoError(t, os.MkdirAll(paths.Root(), 0o755))

	handler := &recordingHandler{}
	box := newMemMailbox(cfg.Bridge.CommandSlots)
	b, err := NewWithMailbox(cfg, box, SymbolList{"EURUSD"}, handler)
	require.NoError(t, err)
	b.channel.settle = 0

	writeSnapshot(t, paths.MarketData(), `{"EURUSD": {"bid": 1.1, "ask": 1.2}}`)

	require.NoError(t, b.Start(context.Background()))
	defer func() {
		b.Deactivate()
		b.Wait()
	}()

	assert.Eventually(t, func() bool { return handler.tickCount() > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCleanAllCommandFilesStopsAtFirstGap(t *testing.T) {
	b, box := newTestBridge(t, nil)

	require.True(t, box.TryClaim(0, []byte("a")))
	require.True(t, box.TryClaim(1, []byte("b")))
	require.True(t, box.TryClaim(3, []byte("c")))

	b.CleanAllCommandFiles()

	left := box.contents()
	assert.NotContains(t, left, 0)
	assert.NotContains(t, left, 1)
	// Slot 2 was never claimed, so the sweep ends there.
	assert.Contains(t, left, 3)
}

func TestNewRejectsMissingTerminalDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Terminal.FilesDir = cfg.Terminal.FilesDir + "/does-not-exist"
	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestNewRejectsUnknownTimeframe(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Timeframe = "M7"
	_, err := NewWithMailbox(cfg, newMemMailbox(4), nil, nil)
	assert.Error(t, err)
}
