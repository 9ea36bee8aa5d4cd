// Package strategy turns bar series into order proposals and manages
// the orders those proposals produced. A strategy is resolved from an
// order's comment, so every order carries enough to find its way back
// to the code that opened it.
package strategy

import (
	"time"

	"github.com/sorul/tradingbot/internal/config"
	"github.com/sorul/tradingbot/internal/market"
	"github.com/sorul/tradingbot/internal/trading"
)

// Context carries everything one evaluation may look at.
type Context struct {
	Symbol string
	Series market.Series
	Now    time.Time
	Pip    float64
	Lots   float64
}

// Quote is the current bid/ask of the managed order's symbol.
type Quote struct {
	Bid float64
	Ask float64
}

// Action is the maintenance verdict for an open order.
type Action int

const (
	ActionNone Action = iota
	// ActionCancel closes a pending order that drifted too far.
	ActionCancel
	// ActionBreakEven moves the stop loss to the entry price.
	ActionBreakEven
)

type Strategy interface {
	Name() string
	// Evaluate proposes at most one order from a fresh series.
	Evaluate(ctx Context) (trading.Order, bool)
	// HandlePending judges an unfilled pending order.
	HandlePending(order trading.Order, quote Quote, pip float64) Action
	// HandleFilled judges a filled market order.
	HandleFilled(order trading.Order, quote Quote, pip float64) Action
}

// ByComment resolves the strategy that opened an order. Unknown
// comments fall back to the EMA strategy, the only one in rotation.
func ByComment(comment string, cfg config.TradingConfig) Strategy {
	switch comment {
	case NameEMA:
		return NewEMA(cfg)
	default:
		return NewEMA(cfg)
	}
}

// base carries the shared order-maintenance rules. Concrete strategies
// embed it and add their entry logic.
type base struct {
	name              string
	breakEvenPips     float64
	pendingCancelPips float64
}

func (b base) Name() string { return b.name }

// HandlePending cancels a pending order once the market moved further
// than pendingCancelPips away from its requested price.
func (b base) HandlePending(order trading.Order, quote Quote, pip float64) Action {
	if pip <= 0 {
		return ActionNone
	}
	ref := quote.Ask
	if order.Type.Sell() {
		ref = quote.Bid
	}
	if ref == 0 {
		return ActionNone
	}
	if trading.PipDistance(ref, order.Price, pip) > b.pendingCancelPips {
		return ActionCancel
	}
	return ActionNone
}

// HandleFilled moves the stop to entry once the trade has run
// breakEvenPips in profit and the stop is not there yet.
func (b base) HandleFilled(order trading.Order, quote Quote, pip float64) Action {
	if pip <= 0 {
		return ActionNone
	}
	var move float64
	if order.Type.Buy() {
		if quote.Bid == 0 {
			return ActionNone
		}
		move = trading.PipDistance(quote.Bid, order.Price, pip)
		if quote.Bid < order.Price {
			return ActionNone
		}
	} else {
		if quote.Ask == 0 {
			return ActionNone
		}
		move = trading.PipDistance(order.Price, quote.Ask, pip)
		if quote.Ask > order.Price {
			return ActionNone
		}
	}
	if move >= b.breakEvenPips && !stopAtEntry(order) {
		return ActionBreakEven
	}
	return ActionNone
}

// stopAtEntry reports whether the stop loss already protects the
// entry price.
func stopAtEntry(order trading.Order) bool {
	if order.StopLoss == 0 {
		return false
	}
	if order.Type.Buy() {
		return order.StopLoss >= order.Price
	}
	return order.StopLoss <= order.Price
}
