package market

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe 描述 MetaTrader 风格的周期（M1、H4、D1 ...）。
type Timeframe struct {
	Key      string
	Duration time.Duration
}

var supportedTimeframes = map[string]Timeframe{
	"M1":  {Key: "M1", Duration: time.Minute},
	"M5":  {Key: "M5", Duration: 5 * time.Minute},
	"M15": {Key: "M15", Duration: 15 * time.Minute},
	"M30": {Key: "M30", Duration: 30 * time.Minute},
	"H1":  {Key: "H1", Duration: time.Hour},
	"H4":  {Key: "H4", Duration: 4 * time.Hour},
	"D1":  {Key: "D1", Duration: 24 * time.Hour},
	"W1":  {Key: "W1", Duration: 7 * 24 * time.Hour},
	// MN1 is calendar dependent; 30 days is good enough for alignment.
	"MN1": {Key: "MN1", Duration: 30 * 24 * time.Hour},
}

// ParseTimeframe resolves a timeframe code, case insensitive.
func ParseTimeframe(key string) (Timeframe, error) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if tf, ok := supportedTimeframes[k]; ok {
		return tf, nil
	}
	return Timeframe{}, fmt.Errorf("unsupported timeframe: %s", key)
}

// MustTimeframe is ParseTimeframe for static keys; panics on typos.
func MustTimeframe(key string) Timeframe {
	tf, err := ParseTimeframe(key)
	if err != nil {
		panic(err)
	}
	return tf
}

func (t Timeframe) String() string {
	return t.Key
}

// Floor aligns ts down to a multiple of d since the zero epoch, in UTC.
func Floor(ts time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return ts.UTC()
	}
	return ts.UTC().Truncate(d)
}
