package trading

import "fmt"

// ImmutableOrderDetails never change for the lifetime of a ticket.
type ImmutableOrderDetails struct {
	Symbol  string
	Type    OrderType
	Magic   int
	Comment string
}

// MutableOrderDetails is the facet the terminal may rewrite on every
// snapshot: volume, prices and running profit.
type MutableOrderDetails struct {
	Lots       float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Expiration int64
	PNL        float64
}

// Order 是终端侧一个持仓或挂单的完整快照，以 ticket 为主键。
// 所有字段均可比较，快照差分直接用 == 判断。
type Order struct {
	Ticket int
	ImmutableOrderDetails
	MutableOrderDetails
}

// NewMarketOrder builds a market order ready for the open command.
// Price stays zero so the terminal fills at the current quote.
func NewMarketOrder(symbol string, side Side, lots float64, sl, tp float64, magic int, comment string) Order {
	return Order{
		ImmutableOrderDetails: ImmutableOrderDetails{
			Symbol:  symbol,
			Type:    OrderType{Side: side},
			Magic:   magic,
			Comment: comment,
		},
		MutableOrderDetails: MutableOrderDetails{
			Lots:       lots,
			StopLoss:   sl,
			TakeProfit: tp,
		},
	}
}

// NewPendingOrder builds a resting order at price; the bridge decides
// limit versus stop against the live quote right before sending.
func NewPendingOrder(symbol string, side Side, lots, price, sl, tp float64, magic int, comment string) Order {
	return Order{
		ImmutableOrderDetails: ImmutableOrderDetails{
			Symbol:  symbol,
			Type:    OrderType{Side: side, Execution: ExecLimit},
			Magic:   magic,
			Comment: comment,
		},
		MutableOrderDetails: MutableOrderDetails{
			Lots:       lots,
			Price:      price,
			StopLoss:   sl,
			TakeProfit: tp,
		},
	}
}

func (o Order) String() string {
	return fmt.Sprintf("#%d %s %s %.2f@%g sl=%g tp=%g magic=%d comment=%q pnl=%.2f",
		o.Ticket, o.Type, o.Symbol, o.Lots, o.Price, o.StopLoss, o.TakeProfit, o.Magic, o.Comment, o.PNL)
}
