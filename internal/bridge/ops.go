package bridge

import (
	"strconv"
	"strings"
	"time"

	"github.com/sorul/tradingbot/internal/trading"
)

// formatFloat renders floats the shortest way that round-trips, so
// 0.01 stays "0.01" and zero stays "0" on the wire.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SubscribeSymbols asks the terminal to stream ticks for symbols.
func (b *Bridge) SubscribeSymbols(symbols []string) error {
	return b.channel.send(VerbSubscribeSymbols, strings.Join(symbols, ","))
}

// SubscribeSymbolsBarData asks the terminal to stream bars for the
// given symbol and timeframe pairs.
func (b *Bridge) SubscribeSymbolsBarData(subscriptions [][2]string) error {
	parts := make([]string, 0, len(subscriptions)*2)
	for _, sub := range subscriptions {
		parts = append(parts, sub[0], sub[1])
	}
	return b.channel.send(VerbSubscribeSymbolsBarData, strings.Join(parts, ","))
}

// RequestHistoricalData asks for the configured lookback of bars in
// the configured timeframe. The window ends ten hours in the future
// so the forming bar always falls inside it.
func (b *Bridge) RequestHistoricalData(symbol string) error {
	end := b.nowFn().Add(10 * time.Hour)
	start := end.AddDate(0, 0, -b.lookbackDays)
	payload := strings.Join([]string{
		symbol,
		b.timeframe.Key,
		strconv.FormatInt(start.Unix(), 10),
		strconv.FormatInt(end.Unix(), 10),
	}, ",")
	return b.channel.send(VerbGetHistoricalData, payload)
}

// RequestHistoricalTrades asks for the closed trades of the configured
// lookback window.
func (b *Bridge) RequestHistoricalTrades() error {
	return b.channel.send(VerbGetHistoricalTrades, strconv.Itoa(b.tradesLookbackDays))
}

// OpenOrder sends an open command. A pending order is first
// reclassified into its stop or limit flavor from the cached quote.
func (b *Bridge) OpenOrder(order trading.Order) error {
	if order.Type.Pending() {
		order.Type = b.classifyPending(order)
	}
	payload := strings.Join([]string{
		order.Symbol,
		order.Type.String(),
		formatFloat(order.Lots),
		formatFloat(order.Price),
		formatFloat(order.StopLoss),
		formatFloat(order.TakeProfit),
		strconv.Itoa(order.Magic),
		order.Comment,
		strconv.FormatInt(order.Expiration, 10),
	}, ",")
	return b.channel.send(VerbOpenOrder, payload)
}

// classifyPending picks stop or limit from where the requested price
// sits relative to the market. Without a cached quote the order keeps
// the flavor it came with.
func (b *Bridge) classifyPending(order trading.Order) trading.OrderType {
	bid, ask := b.GetBidAsk(order.Symbol)
	if bid == 0 || ask == 0 {
		return order.Type
	}
	t := order.Type
	switch {
	case t.Side == trading.SideBuy && order.Price > ask:
		t.Execution = trading.ExecStop
	case t.Side == trading.SideBuy && order.Price < ask:
		t.Execution = trading.ExecLimit
	case t.Side == trading.SideSell && order.Price < bid:
		t.Execution = trading.ExecStop
	case t.Side == trading.SideSell && order.Price > bid:
		t.Execution = trading.ExecLimit
	}
	return t
}

// ModifyOrder rewrites the mutable order details of ticket. Zero
// fields mean "leave as is" on the terminal side.
func (b *Bridge) ModifyOrder(ticket int, details trading.MutableOrderDetails) error {
	payload := strings.Join([]string{
		strconv.Itoa(ticket),
		formatFloat(details.Lots),
		formatFloat(details.Price),
		formatFloat(details.StopLoss),
		formatFloat(details.TakeProfit),
		strconv.FormatInt(details.Expiration, 10),
	}, ",")
	return b.channel.send(VerbModifyOrder, payload)
}

// PlaceBreakEven moves the stop loss of order one pip past its open
// price on the profitable side, leaving price and take profit alone.
func (b *Bridge) PlaceBreakEven(order trading.Order, pip float64) error {
	details := order.MutableOrderDetails
	details.Price = 0
	details.StopLoss = trading.BreakEvenStop(order, pip)
	return b.ModifyOrder(order.Ticket, details)
}

// CloseOrder closes ticket, fully when lots is zero.
func (b *Bridge) CloseOrder(ticket int, lots float64) error {
	return b.channel.send(VerbCloseOrder, strconv.Itoa(ticket)+","+formatFloat(lots))
}

// CloseAllOrders closes every open order.
func (b *Bridge) CloseAllOrders() error {
	return b.channel.send(VerbCloseAllOrders, "")
}

// CloseOrdersBySymbol closes every open order on symbol.
func (b *Bridge) CloseOrdersBySymbol(symbol string) error {
	return b.channel.send(VerbCloseOrdersBySymbol, symbol)
}

// CloseOrdersByMagic closes every open order carrying magic.
func (b *Bridge) CloseOrdersByMagic(magic int) error {
	return b.channel.send(VerbCloseOrdersByMagic, strconv.Itoa(magic))
}

// ResetCommandIDs restarts the command sequence on both sides.
func (b *Bridge) ResetCommandIDs() error {
	return b.channel.reset()
}
