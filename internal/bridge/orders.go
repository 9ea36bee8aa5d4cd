package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/sorul/tradingbot/internal/logger"
	"github.com/sorul/tradingbot/internal/trading"
)

type rawOrder struct {
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Lots       float64 `json:"lots"`
	OpenPrice  float64 `json:"open_price"`
	StopLoss   float64 `json:"SL"`
	TakeProf   float64 `json:"TP"`
	PNL        float64 `json:"pnl"`
	Magic      int     `json:"magic"`
	Comment    string  `json:"comment"`
	Expiration int64   `json:"expiration"`
}

type ordersFile struct {
	Orders      map[string]rawOrder `json:"orders"`
	AccountInfo map[string]any      `json:"account_info"`
}

// ordersState is the reconciler cache, swapped as one unit.
type ordersState struct {
	orders     []trading.Order
	account    trading.AccountInfo
	rawAccount map[string]any
}

// checkOpenOrders reconciles the terminal's open-order snapshot. A
// snapshot only counts once both top-level keys decode as objects and
// every order type parses; a half-written file skips the whole tick.
// On change the cache is replaced, the mirror file is rewritten from
// the original bytes, and exactly one aggregated event fires.
func (b *Bridge) checkOpenOrders() {
	raw, ok := tryLoadJSON(b.paths.Orders())
	if !ok {
		return
	}
	if !gjson.GetBytes(raw, "orders").IsObject() || !gjson.GetBytes(raw, "account_info").IsObject() {
		logger.TraceSnapshotError(b.paths.Orders(), errors.New("orders/account_info 不是对象"))
		return
	}
	var file ordersFile
	if err := json.Unmarshal(raw, &file); err != nil {
		logger.TraceSnapshotError(b.paths.Orders(), err)
		return
	}
	orders, err := decodeOrders(file.Orders)
	if err != nil {
		logger.Warnf("订单快照解码失败，本轮跳过: %v", err)
		return
	}
	account, err := trading.DecodeAccountInfo(file.AccountInfo)
	if err != nil {
		logger.Warnf("账户信息解码失败，本轮跳过: %v", err)
		return
	}

	prev := b.orders.Load()
	if account == prev.account && ordersIdentical(prev.orders, orders) {
		return
	}
	fireEvent := ordersDiffer(prev.orders, orders)

	b.orders.Store(&ordersState{orders: orders, account: account, rawAccount: file.AccountInfo})
	if err := writeFileAtomic(b.paths.OrdersStored(), raw); err != nil {
		logger.Warnf("订单镜像写入失败: %v", err)
	}
	if fireEvent {
		b.handler.OnOrderEvent(account, append([]trading.Order(nil), orders...))
	}
}

// decodeOrders maps the keyed snapshot to typed orders sorted by
// ticket. One unrecognized order type fails the whole snapshot.
func decodeOrders(raw map[string]rawOrder) ([]trading.Order, error) {
	orders := make([]trading.Order, 0, len(raw))
	for ticket, entry := range raw {
		var order trading.Order
		number, err := strconv.Atoi(ticket)
		if err != nil {
			return nil, fmt.Errorf("订单号 %q 无法解析: %w", ticket, err)
		}
		order.Ticket = number
		orderType, err := trading.ParseOrderType(entry.Type)
		if err != nil {
			return nil, fmt.Errorf("订单 %s: %w", ticket, err)
		}
		order.Symbol = entry.Symbol
		order.Type = orderType
		order.Magic = entry.Magic
		order.Comment = entry.Comment
		order.Lots = entry.Lots
		order.Price = entry.OpenPrice
		order.StopLoss = entry.StopLoss
		order.TakeProfit = entry.TakeProf
		order.Expiration = entry.Expiration
		order.PNL = entry.PNL
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Ticket < orders[j].Ticket })
	return orders, nil
}

// ordersIdentical reports positional equality of the sorted slices.
func ordersIdentical(a, b []trading.Order) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ordersDiffer reports whether any order value appears on one side
// only. Every field takes part, so a moved stop or a PNL move on an
// existing ticket counts as a difference too.
func ordersDiffer(old, next []trading.Order) bool {
	for _, o := range old {
		if !containsOrder(next, o) {
			return true
		}
	}
	for _, o := range next {
		if !containsOrder(old, o) {
			return true
		}
	}
	return false
}

func containsOrder(orders []trading.Order, want trading.Order) bool {
	for _, o := range orders {
		if o == want {
			return true
		}
	}
	return false
}

// Orders returns a copy of the reconciled open orders.
func (b *Bridge) Orders() []trading.Order {
	state := b.orders.Load()
	return append([]trading.Order(nil), state.orders...)
}

// AccountInfo returns the last reconciled account snapshot.
func (b *Bridge) AccountInfo() trading.AccountInfo {
	return b.orders.Load().account
}

// GetBalance returns the account balance, or -1 with a warning when
// the terminal has not reported a numeric balance yet.
func (b *Bridge) GetBalance() float64 {
	state := b.orders.Load()
	balance, ok := state.rawAccount["balance"].(float64)
	if !ok {
		logger.Warnf("账户余额不可用: %v", state.rawAccount["balance"])
		return -1
	}
	return balance
}
