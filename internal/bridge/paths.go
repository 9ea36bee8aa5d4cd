package bridge

import (
	"fmt"
	"path/filepath"
)

// agentFilesDir is the subdirectory of the terminal Files folder the
// MQL agent reads and writes.
const agentFilesDir = "AgentFiles"

// Paths resolves every file the protocol touches under one root.
type Paths struct {
	root string
}

func NewPaths(filesDir string) Paths {
	return Paths{root: filepath.Join(filesDir, agentFilesDir)}
}

func (p Paths) Root() string             { return p.root }
func (p Paths) Orders() string           { return filepath.Join(p.root, "Orders.json") }
func (p Paths) OrdersStored() string     { return filepath.Join(p.root, "Orders_Stored.json") }
func (p Paths) Messages() string         { return filepath.Join(p.root, "Messages.json") }
func (p Paths) MarketData() string       { return filepath.Join(p.root, "Market_Data.json") }
func (p Paths) BarData() string          { return filepath.Join(p.root, "Bar_Data.json") }
func (p Paths) HistoricalTrades() string { return filepath.Join(p.root, "Historical_Trades.json") }

func (p Paths) HistoricalData(symbol string) string {
	return filepath.Join(p.root, fmt.Sprintf("Historical_Data_%s.json", symbol))
}

// CommandSlot returns the path of rotating command slot i.
func (p Paths) CommandSlot(i int) string {
	return filepath.Join(p.root, fmt.Sprintf("Commands_%d.txt", i))
}
