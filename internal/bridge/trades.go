package bridge

import (
	"encoding/json"

	"github.com/sorul/tradingbot/internal/logger"
)

// HistoricalTrade is one closed trade from the account history reply.
type HistoricalTrade struct {
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Lots       float64 `json:"lots"`
	OpenTime   string  `json:"open_time"`
	CloseTime  string  `json:"close_time"`
	OpenPrice  float64 `json:"open_price"`
	ClosePrice float64 `json:"close_price"`
	StopLoss   float64 `json:"SL"`
	TakeProf   float64 `json:"TP"`
	PNL        float64 `json:"pnl"`
	Swap       float64 `json:"swap"`
	Commission float64 `json:"commission"`
	Magic      int     `json:"magic"`
	Comment    string  `json:"comment"`
}

// checkHistoricalTrades replaces the cache wholesale on every poll.
// No diffing and no event: callers read the cache when they need it,
// and a vanished file clears it.
func (b *Bridge) checkHistoricalTrades() {
	raw, ok := tryLoadJSON(b.paths.HistoricalTrades())
	if !ok {
		empty := map[string]HistoricalTrade{}
		b.trades.Store(&empty)
		return
	}
	var decoded map[string]HistoricalTrade
	if err := json.Unmarshal(raw, &decoded); err != nil {
		logger.TraceSnapshotError(b.paths.HistoricalTrades(), err)
		return
	}
	b.trades.Store(&decoded)
}

// HistoricalTrades returns a copy of the closed-trade cache keyed by
// ticket.
func (b *Bridge) HistoricalTrades() map[string]HistoricalTrade {
	cached := *b.trades.Load()
	out := make(map[string]HistoricalTrade, len(cached))
	for ticket, trade := range cached {
		out[ticket] = trade
	}
	return out
}
