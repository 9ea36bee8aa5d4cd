package trader

import (
	"strings"
	"sync/atomic"

	"github.com/sorul/tradingbot/internal/bridge"
	"github.com/sorul/tradingbot/internal/logger"
	"github.com/sorul/tradingbot/internal/market"
	"github.com/sorul/tradingbot/internal/trading"
)

// runHandler receives bridge events for one run. The bridge needs its
// handler at construction while the handler needs the bridge to act,
// so the bridge is bound right after both exist.
type runHandler struct {
	trader *Trader
	br     atomic.Pointer[bridge.Bridge]
}

func (h *runHandler) bind(br *bridge.Bridge) {
	h.br.Store(br)
}

// OnMessage surfaces terminal messages into the log and pushes errors
// to the notifier.
func (h *runHandler) OnMessage(msg bridge.Message) {
	body := strings.Join(msg.Payload(), " | ")
	if msg.Severity == bridge.SeverityError {
		logger.Errorf("终端报错: %s", body)
		go func() {
			if err := h.trader.notify.SendText("⚠️ 终端报错\n" + body); err != nil {
				logger.Warnf("终端报错推送失败: %v", err)
			}
		}()
		return
	}
	logger.Debugf("终端消息: %s", body)
}

func (h *runHandler) OnTick(symbol string, bid, ask float64) {
	logger.Debugf("tick %s bid=%v ask=%v", symbol, bid, ask)
}

func (h *runHandler) OnBarData(symbol, timeframe string, bars market.Series) {
	logger.Debugf("bar %s %s 共 %d 根", symbol, timeframe, bars.Len())
}

// OnOrderEvent logs the reconciled position set whenever it changes.
func (h *runHandler) OnOrderEvent(account trading.AccountInfo, orders []trading.Order) {
	logger.Infof("订单变动: %d 笔持仓 equity=%.2f", len(orders), account.Equity)
}

// OnHistoricalData is the strategy trigger: a symbol finished its
// backfill, evaluate it right away.
func (h *runHandler) OnHistoricalData(symbol string, series market.Series) {
	br := h.br.Load()
	if br == nil {
		return
	}
	h.trader.evaluateSymbol(br, symbol, series)
}
