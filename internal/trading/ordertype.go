package trading

import (
	"fmt"
	"strings"
)

// Side 是订单方向。
type Side int8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "sell"
	}
	return "buy"
}

// Execution 是订单的执行方式。
type Execution int8

const (
	ExecMarket Execution = iota
	ExecLimit
	ExecStop
)

// OrderType pairs a side with an execution kind. The zero value is a
// market buy. Only the six combinations the terminal understands exist;
// anything else fails ParseOrderType.
type OrderType struct {
	Side      Side
	Execution Execution
}

var orderTypeNames = map[string]OrderType{
	"buy":       {SideBuy, ExecMarket},
	"sell":      {SideSell, ExecMarket},
	"buylimit":  {SideBuy, ExecLimit},
	"selllimit": {SideSell, ExecLimit},
	"buystop":   {SideBuy, ExecStop},
	"sellstop":  {SideSell, ExecStop},
}

// ParseOrderType maps a terminal order type string onto the closed set.
// Unknown values are a decode error, never a silent default.
func ParseOrderType(value string) (OrderType, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if t, ok := orderTypeNames[v]; ok {
		return t, nil
	}
	return OrderType{}, fmt.Errorf("unrecognized order type: %q", value)
}

// String renders the wire form the terminal expects.
func (t OrderType) String() string {
	switch t.Execution {
	case ExecLimit:
		return t.Side.String() + "limit"
	case ExecStop:
		return t.Side.String() + "stop"
	default:
		return t.Side.String()
	}
}

func (t OrderType) Buy() bool  { return t.Side == SideBuy }
func (t OrderType) Sell() bool { return t.Side == SideSell }

// Market reports a live position (filled at market).
func (t OrderType) Market() bool { return t.Execution == ExecMarket }

// Pending reports a resting limit or stop order.
func (t OrderType) Pending() bool { return t.Execution != ExecMarket }
