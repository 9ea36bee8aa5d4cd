package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sorul/tradingbot/internal/logger"
	"github.com/sorul/tradingbot/internal/market"
)

// barEntry keeps the raw bytes next to the decoded series. Change
// detection compares the raw bytes so a re-written but identical
// entry costs nothing.
type barEntry struct {
	raw    json.RawMessage
	series market.Series
}

type barColumns struct {
	Time       []string  `json:"time"`
	Open       []float64 `json:"open"`
	High       []float64 `json:"high"`
	Low        []float64 `json:"low"`
	Close      []float64 `json:"close"`
	TickVolume []float64 `json:"tick_volume"`
}

// checkBarData fires one event per SYMBOL_TIMEFRAME key whose raw
// content changed since the previous poll, in sorted key order, then
// replaces the cache wholesale.
func (b *Bridge) checkBarData() {
	raw, ok := tryLoadJSON(b.paths.BarData())
	if !ok {
		return
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		logger.TraceSnapshotError(b.paths.BarData(), err)
		return
	}
	prev := *b.bars.Load()
	if barMapsEqual(prev, decoded) {
		return
	}

	keys := make([]string, 0, len(decoded))
	for key := range decoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	next := make(map[string]barEntry, len(decoded))
	for _, key := range keys {
		body := decoded[key]
		if old, ok := prev[key]; ok && bytes.Equal(old.raw, body) {
			next[key] = old
			continue
		}
		symbol, timeframe, err := splitBarKey(key)
		if err != nil {
			logger.Warnf("K线键无法解析，已跳过: %v", err)
			continue
		}
		series, err := decodeBarSeries(body, b.brokerLoc)
		if err != nil {
			logger.Warnf("%s 的K线数据解码失败: %v", key, err)
			logger.TraceSnapshotError(b.paths.BarData(), err)
			continue
		}
		next[key] = barEntry{raw: body, series: series}
		b.handler.OnBarData(symbol, timeframe, series)
	}
	b.bars.Store(&next)
}

func barMapsEqual(prev map[string]barEntry, decoded map[string]json.RawMessage) bool {
	if len(prev) != len(decoded) {
		return false
	}
	for key, body := range decoded {
		old, ok := prev[key]
		if !ok || !bytes.Equal(old.raw, body) {
			return false
		}
	}
	return true
}

// splitBarKey cuts SYMBOL_TIMEFRAME at the last underscore so symbols
// that themselves contain underscores keep working.
func splitBarKey(key string) (symbol, timeframe string, err error) {
	idx := strings.LastIndex(key, "_")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", fmt.Errorf("bar data key %q is not SYMBOL_TIMEFRAME", key)
	}
	return key[:idx], key[idx+1:], nil
}

func decodeBarSeries(raw json.RawMessage, loc *time.Location) (market.Series, error) {
	var cols barColumns
	if err := json.Unmarshal(raw, &cols); err != nil {
		return market.Series{}, err
	}
	series := market.Series{
		Open:       cols.Open,
		High:       cols.High,
		Low:        cols.Low,
		Close:      cols.Close,
		TickVolume: cols.TickVolume,
	}
	series.Times = make([]time.Time, 0, len(cols.Time))
	for _, value := range cols.Time {
		ts, err := market.ParseBrokerTime(value, loc)
		if err != nil {
			return market.Series{}, err
		}
		series.Times = append(series.Times, ts)
	}
	if err := series.Validate(); err != nil {
		return market.Series{}, err
	}
	return series, nil
}

// BarData returns a copy of the decoded bar series per key.
func (b *Bridge) BarData() map[string]market.Series {
	cached := *b.bars.Load()
	out := make(map[string]market.Series, len(cached))
	for key, entry := range cached {
		out[key] = entry.series
	}
	return out
}
