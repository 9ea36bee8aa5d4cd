package market

import (
	"fmt"
	"strings"
	"time"
)

// MetaTrader renders bar and trade times as "2021.10.01 18:35", with
// seconds appearing only in trade history exports.
const (
	brokerTimeLayout        = "2006.01.02 15:04"
	brokerTimeLayoutSeconds = "2006.01.02 15:04:05"
)

// ParseBrokerTime parses a terminal timestamp in the broker timezone
// and returns it in UTC.
func ParseBrokerTime(value string, broker *time.Location) (time.Time, error) {
	v := strings.TrimSpace(value)
	if broker == nil {
		broker = time.UTC
	}
	for _, layout := range []string{brokerTimeLayout, brokerTimeLayoutSeconds} {
		if ts, err := time.ParseInLocation(layout, v, broker); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable broker time: %q", value)
}

// FormatBrokerTime renders ts the way the terminal writes it.
func FormatBrokerTime(ts time.Time, broker *time.Location) string {
	if broker == nil {
		broker = time.UTC
	}
	return ts.In(broker).Format(brokerTimeLayout)
}
