package strategy

import (
	"github.com/sorul/tradingbot/internal/config"
	"github.com/sorul/tradingbot/internal/trading"
)

// NameEMA is the comment stamped onto every order the EMA strategy
// opens.
const NameEMA = "EMA_strategy"

// EMA trades EMA(20/50) alignment confirmed by swing structure:
// higher highs plus higher lows long, lower highs plus lower lows
// short. Stops hang off the slow EMA, targets off the fast one.
type EMA struct {
	base
}

func NewEMA(cfg config.TradingConfig) *EMA {
	return &EMA{base: base{
		name:              NameEMA,
		breakEvenPips:     cfg.BreakEvenPips,
		pendingCancelPips: cfg.PendingCancelPips,
	}}
}

func (s *EMA) Evaluate(ctx Context) (trading.Order, bool) {
	fastArr := EMASeries(ctx.Series.Close, 20)
	slowArr := EMASeries(ctx.Series.Close, 50)
	if len(fastArr) == 0 || len(slowArr) == 0 {
		return trading.Order{}, false
	}
	fast := fastArr[len(fastArr)-1]
	slow := slowArr[len(slowArr)-1]

	highs := PivotsHigh(ctx.Series.High, 6, 3, 2)
	lows := PivotsLow(ctx.Series.Low, 6, 3, 2)
	if len(highs) < 2 || len(lows) < 2 {
		return trading.Order{}, false
	}
	upper := highs[0].Value > highs[1].Value && lows[0].Value > lows[1].Value
	lower := !upper && highs[0].Value < highs[1].Value && lows[0].Value < lows[1].Value

	magic := trading.NewMagicNumber(ctx.Now)
	pip := ctx.Pip

	switch {
	case fast >= slow && upper:
		return trading.NewMarketOrder(
			ctx.Symbol, trading.SideBuy, ctx.Lots,
			trading.SubPips(slow, pip, 10),
			trading.AddPips(fast, pip, 20),
			magic, s.name,
		), true
	case lower:
		return trading.NewMarketOrder(
			ctx.Symbol, trading.SideSell, ctx.Lots,
			trading.AddPips(slow, pip, 10),
			trading.SubPips(fast, pip, 20),
			magic, s.name,
		), true
	}
	return trading.Order{}, false
}
