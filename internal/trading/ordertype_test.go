package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderType(t *testing.T) {
	cases := map[string]OrderType{
		"buy":       {SideBuy, ExecMarket},
		"sell":      {SideSell, ExecMarket},
		"buylimit":  {SideBuy, ExecLimit},
		"selllimit": {SideSell, ExecLimit},
		"buystop":   {SideBuy, ExecStop},
		"sellstop":  {SideSell, ExecStop},
	}
	for wire, want := range cases {
		got, err := ParseOrderType(wire)
		require.NoError(t, err, wire)
		assert.Equal(t, want, got)
		// Round trip back to the wire form.
		assert.Equal(t, wire, got.String())
	}

	// Terminal builds differ in casing.
	got, err := ParseOrderType(" BuyLimit ")
	require.NoError(t, err)
	assert.Equal(t, OrderType{SideBuy, ExecLimit}, got)

	_, err = ParseOrderType("buysteep")
	assert.Error(t, err)
	_, err = ParseOrderType("")
	assert.Error(t, err)
}

func TestOrderTypePredicates(t *testing.T) {
	buy := OrderType{SideBuy, ExecMarket}
	assert.True(t, buy.Buy())
	assert.False(t, buy.Sell())
	assert.True(t, buy.Market())
	assert.False(t, buy.Pending())

	sellStop := OrderType{SideSell, ExecStop}
	assert.True(t, sellStop.Sell())
	assert.True(t, sellStop.Pending())
	assert.False(t, sellStop.Market())
}

func TestZeroOrderTypeIsMarketBuy(t *testing.T) {
	var zero OrderType
	assert.Equal(t, "buy", zero.String())
	assert.True(t, zero.Market())
}
