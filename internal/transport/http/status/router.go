package statushttp

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sorul/tradingbot/internal/bridge"
	"github.com/sorul/tradingbot/internal/instruments"
	"github.com/sorul/tradingbot/internal/trading"
)

// Router 暴露当前轮次的只读查询接口。
type Router struct {
	source   BridgeSource
	registry *instruments.Registry
}

func NewRouter(source BridgeSource, registry *instruments.Registry) *Router {
	return &Router{source: source, registry: registry}
}

// Register 将 /api/v1 路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/status", r.handleStatus)
	group.GET("/account", r.handleAccount)
	group.GET("/orders", r.handleOrders)
	group.GET("/market", r.handleMarket)
	group.GET("/bars", r.handleBars)
	group.GET("/backfill", r.handleBackfill)
	group.GET("/messages", r.handleMessages)
	group.GET("/instruments", r.handleInstruments)
}

// live returns the running bridge or answers 503 itself.
func (r *Router) live(c *gin.Context) (*bridge.Bridge, bool) {
	br := r.source.LiveBridge()
	if br == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "当前没有运行中的交易轮次"})
		return nil, false
	}
	return br, true
}

func (r *Router) handleStatus(c *gin.Context) {
	br := r.source.LiveBridge()
	if br == nil {
		c.JSON(http.StatusOK, gin.H{"state": "idle"})
		return
	}
	state := "running"
	if !br.Running() {
		state = "paused"
	}
	if !br.Active() {
		state = "stopped"
	}
	c.JSON(http.StatusOK, gin.H{
		"state":              state,
		"command_sequence":   br.Sequence(),
		"remaining_symbols":  len(br.RemainingSymbols()),
		"successful_symbols": len(br.SuccessfulSymbols()),
	})
}

func (r *Router) handleAccount(c *gin.Context) {
	br, ok := r.live(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, br.AccountInfo())
}

type orderView struct {
	Ticket     int     `json:"ticket"`
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Lots       float64 `json:"lots"`
	OpenPrice  float64 `json:"open_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	PNL        float64 `json:"pnl"`
	Magic      int     `json:"magic"`
	Comment    string  `json:"comment"`
}

func toOrderView(o trading.Order) orderView {
	return orderView{
		Ticket:     o.Ticket,
		Symbol:     o.Symbol,
		Type:       o.Type.String(),
		Lots:       o.Lots,
		OpenPrice:  o.Price,
		StopLoss:   o.StopLoss,
		TakeProfit: o.TakeProfit,
		PNL:        o.PNL,
		Magic:      o.Magic,
		Comment:    o.Comment,
	}
}

func (r *Router) handleOrders(c *gin.Context) {
	br, ok := r.live(c)
	if !ok {
		return
	}
	orders := br.Orders()
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": views, "count": len(views)})
}

func (r *Router) handleMarket(c *gin.Context) {
	br, ok := r.live(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, br.MarketData())
}

func (r *Router) handleBars(c *gin.Context) {
	br, ok := r.live(c)
	if !ok {
		return
	}
	out := make(map[string]gin.H)
	for key, series := range br.BarData() {
		entry := gin.H{"bars": series.Len()}
		if last, ok := series.Last(); ok {
			entry["last_time"] = last.Time.Format(time.RFC3339)
			entry["last_close"] = last.Close
		}
		out[key] = entry
	}
	c.JSON(http.StatusOK, out)
}

func (r *Router) handleBackfill(c *gin.Context) {
	br, ok := r.live(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"remaining":  br.RemainingSymbols(),
		"successful": br.SuccessfulSymbols(),
	})
}

func (r *Router) handleMessages(c *gin.Context) {
	br, ok := r.live(c)
	if !ok {
		return
	}
	log := br.Messages()
	c.JSON(http.StatusOK, gin.H{
		"info":  log.Info,
		"error": log.Error,
	})
}

func (r *Router) handleInstruments(c *gin.Context) {
	if r.registry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "品种表未加载"})
		return
	}
	c.JSON(http.StatusOK, r.registry.Snapshot())
}
