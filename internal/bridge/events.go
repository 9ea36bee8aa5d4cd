package bridge

import (
	"github.com/sorul/tradingbot/internal/market"
	"github.com/sorul/tradingbot/internal/trading"
)

// EventHandler receives bridge events synchronously on the poller
// goroutine that produced them. Handlers must return quickly or hand
// off; a slow handler stalls its whole category.
type EventHandler interface {
	// OnMessage fires once per new terminal message, oldest first.
	OnMessage(msg Message)
	// OnTick fires per symbol whose quote appeared or changed.
	OnTick(symbol string, bid, ask float64)
	// OnBarData fires per symbol/timeframe key whose bar series changed.
	OnBarData(symbol, timeframe string, bars market.Series)
	// OnOrderEvent fires once per reconcile that found any order
	// difference, carrying the full new state.
	OnOrderEvent(account trading.AccountInfo, orders []trading.Order)
	// OnHistoricalData fires when a requested backfill series arrived
	// fresh.
	OnHistoricalData(symbol string, series market.Series)
}

// NopHandler is an EventHandler that ignores everything; embed it to
// implement only the callbacks a consumer cares about.
type NopHandler struct{}

func (NopHandler) OnMessage(Message) {}

func (NopHandler) OnTick(string, float64, float64) {}

func (NopHandler) OnBarData(string, string, market.Series) {}

func (NopHandler) OnOrderEvent(trading.AccountInfo, []trading.Order) {}

func (NopHandler) OnHistoricalData(string, market.Series) {}
