package bridge

import (
	"encoding/json"
	"sort"

	"github.com/sorul/tradingbot/internal/logger"
	"github.com/sorul/tradingbot/internal/market"
)

// checkMarketData compares the latest quote snapshot against the cache
// and fires one tick per new or changed symbol, in sorted symbol order.
// The cache is replaced wholesale afterwards, so symbols that vanish
// from the file vanish from the cache too.
func (b *Bridge) checkMarketData() {
	raw, ok := tryLoadJSON(b.paths.MarketData())
	if !ok {
		return
	}
	var decoded map[string]market.Tick
	if err := json.Unmarshal(raw, &decoded); err != nil {
		logger.TraceSnapshotError(b.paths.MarketData(), err)
		return
	}
	prev := *b.ticks.Load()
	if tickMapsEqual(prev, decoded) {
		return
	}
	symbols := make([]string, 0, len(decoded))
	for symbol := range decoded {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		tick := decoded[symbol]
		if old, ok := prev[symbol]; !ok || old != tick {
			b.handler.OnTick(symbol, tick.Bid, tick.Ask)
		}
	}
	b.ticks.Store(&decoded)
}

func tickMapsEqual(a, b map[string]market.Tick) bool {
	if len(a) != len(b) {
		return false
	}
	for symbol, tick := range a {
		if other, ok := b[symbol]; !ok || other != tick {
			return false
		}
	}
	return true
}

// MarketData returns a copy of the current quote cache.
func (b *Bridge) MarketData() map[string]market.Tick {
	cached := *b.ticks.Load()
	out := make(map[string]market.Tick, len(cached))
	for symbol, tick := range cached {
		out[symbol] = tick
	}
	return out
}

// GetBidAsk returns the cached quote for symbol, or zeros with a
// warning when the symbol has not ticked yet. Callers treat (0, 0)
// as "no quote".
func (b *Bridge) GetBidAsk(symbol string) (bid, ask float64) {
	cached := *b.ticks.Load()
	tick, ok := cached[symbol]
	if !ok {
		logger.Warnf("尚无 %s 的报价，返回零值", symbol)
		return 0, 0
	}
	return tick.Bid, tick.Ask
}
