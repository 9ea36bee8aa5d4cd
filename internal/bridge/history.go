package bridge

import (
	"encoding/json"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/sorul/tradingbot/internal/logger"
	"github.com/sorul/tradingbot/internal/market"
)

type histRow struct {
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume float64 `json:"tick_volume"`
}

// pollHistoricalData is the poller entry: it picks one random
// still-missing symbol per tick so a slow symbol cannot starve the
// rest of the backfill.
func (b *Bridge) pollHistoricalData() {
	b.CheckHistoricalData("")
}

// CheckHistoricalData loads the reply file for symbol (random
// remaining symbol when empty), caches whatever decodes, and when the
// series is fresh marks the symbol done, fires the event and removes
// the pending request commands. Stale data still lands in the cache
// so strategy warm-up can run on it.
func (b *Bridge) CheckHistoricalData(symbol string) (market.Series, bool) {
	remaining := b.RemainingSymbols()
	if len(remaining) == 0 {
		return market.Series{}, false
	}
	if symbol == "" {
		symbol = remaining[rand.IntN(len(remaining))]
	}

	path := b.paths.HistoricalData(symbol)
	raw, ok := tryLoadJSON(path)
	if !ok {
		return market.Series{}, false
	}
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err != nil {
		logger.TraceSnapshotError(path, err)
		return market.Series{}, false
	}
	key := symbol + "_" + b.timeframe.Key
	body, ok := keyed[key]
	if !ok {
		logger.Warnf("%s 中没有 %s，可能是其他周期的残留文件", path, key)
		return market.Series{}, false
	}
	series, err := decodeHistoricalSeries(body, b.brokerLoc)
	if err != nil {
		logger.Warnf("%s 历史数据解码失败: %v", symbol, err)
		logger.TraceSnapshotError(path, err)
		return market.Series{}, false
	}

	b.histMu.Lock()
	b.historical[symbol] = series
	b.histMu.Unlock()

	if !b.seriesFresh(series) {
		return series, false
	}

	b.histMu.Lock()
	b.successful[symbol] = struct{}{}
	b.histMu.Unlock()
	if last, ok := series.Last(); ok {
		logger.Debugf("%s 历史数据已就绪，最后一根K线 %s", symbol, last.Time.Format(time.RFC3339))
	}
	b.handler.OnHistoricalData(symbol, series)
	b.removeHistoricalCommandFiles(symbol)
	return series, true
}

// decodeHistoricalSeries turns the time-keyed rows into a series
// sorted ascending by bar time.
func decodeHistoricalSeries(raw json.RawMessage, loc *time.Location) (market.Series, error) {
	var rows map[string]histRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return market.Series{}, err
	}
	var series market.Series
	for stamp, row := range rows {
		ts, err := market.ParseBrokerTime(stamp, loc)
		if err != nil {
			return market.Series{}, err
		}
		series.Append(market.Bar{
			Time:       ts,
			Open:       row.Open,
			High:       row.High,
			Low:        row.Low,
			Close:      row.Close,
			TickVolume: row.TickVolume,
		})
	}
	series.Sort()
	return series, nil
}

// seriesFresh accepts a series whose last bar falls inside the
// current five-minute window. A bar sitting exactly on the next
// boundary is not fresh yet.
func (b *Bridge) seriesFresh(series market.Series) bool {
	last, ok := series.Last()
	if !ok {
		return false
	}
	start := market.Floor(b.nowFn(), 5*time.Minute)
	end := start.Add(5 * time.Minute)
	return !last.Time.Before(start) && last.Time.Before(end)
}

// removeHistoricalCommandFiles drops every command slot still carrying
// a historical-data request for symbol, so the terminal stops
// re-answering a symbol that already completed.
func (b *Bridge) removeHistoricalCommandFiles(symbol string) {
	pattern := string(VerbGetHistoricalData) + "|" + symbol
	for slot := 0; slot < b.box.Slots(); slot++ {
		content, ok := b.box.Read(slot)
		if !ok {
			continue
		}
		if strings.Contains(string(content), pattern) {
			if err := b.box.Delete(slot); err != nil {
				logger.Warnf("清理历史数据命令槽 %d 失败: %v", slot, err)
			}
		}
	}
}

// RemainingSymbols returns the sorted symbols still waiting for fresh
// historical data.
func (b *Bridge) RemainingSymbols() []string {
	all := b.universe.Symbols()
	b.histMu.RLock()
	defer b.histMu.RUnlock()
	out := make([]string, 0, len(all))
	for _, symbol := range all {
		if _, done := b.successful[symbol]; !done {
			out = append(out, symbol)
		}
	}
	sort.Strings(out)
	return out
}

// SuccessfulSymbols returns the sorted symbols whose backfill
// completed this run.
func (b *Bridge) SuccessfulSymbols() []string {
	b.histMu.RLock()
	defer b.histMu.RUnlock()
	out := make([]string, 0, len(b.successful))
	for symbol := range b.successful {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// HistoricalSeries returns the cached series for symbol, fresh or not.
func (b *Bridge) HistoricalSeries(symbol string) (market.Series, bool) {
	b.histMu.RLock()
	defer b.histMu.RUnlock()
	series, ok := b.historical[symbol]
	return series, ok
}

// CleanAllHistoricalFiles removes the per-symbol reply files for the
// whole universe. Missing files are fine.
func (b *Bridge) CleanAllHistoricalFiles() {
	for _, symbol := range b.universe.Symbols() {
		if err := removeIfPresent(b.paths.HistoricalData(symbol)); err != nil {
			logger.Warnf("清理 %s 历史数据文件失败: %v", symbol, err)
		}
	}
}
