package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algofleet/algofleet/internal/wire"
)

func d(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestApplyFill_OpenLong(t *testing.T) {
	p := NewPosition("AAPL")

	realized := p.ApplyFill(wire.SideBuy, 10, d(100))

	assert.True(t, realized.IsZero())
	assert.Equal(t, int64(10), p.Quantity)
	assert.True(t, p.AvgCost.Equal(d(100)), "avg_cost = %s", p.AvgCost)
}

func TestApplyFill_WeightedAverage(t *testing.T) {
	p := NewPosition("AAPL")
	p.ApplyFill(wire.SideBuy, 10, d(100))

	realized := p.ApplyFill(wire.SideBuy, 10, d(110))

	assert.True(t, realized.IsZero())
	assert.Equal(t, int64(20), p.Quantity)
	assert.True(t, p.AvgCost.Equal(d(105)), "avg_cost = %s", p.AvgCost)
	assert.True(t, p.RealizedPnL.IsZero())
}

func TestApplyFill_ReduceRealizes(t *testing.T) {
	p := NewPosition("AAPL")
	p.ApplyFill(wire.SideBuy, 10, d(100))

	realized := p.ApplyFill(wire.SideSell, 4, d(120))

	assert.True(t, realized.Equal(d(80)), "realized = %s", realized)
	assert.Equal(t, int64(6), p.Quantity)
	assert.True(t, p.AvgCost.Equal(d(100)), "reducing keeps the cost basis")
}

func TestApplyFill_FlipOpensAtFillPrice(t *testing.T) {
	p := NewPosition("AAPL")
	p.ApplyFill(wire.SideBuy, 10, d(100))

	realized := p.ApplyFill(wire.SideSell, 15, d(120))

	assert.True(t, realized.Equal(d(200)), "realized = %s (10 x (120-100))", realized)
	assert.Equal(t, int64(-5), p.Quantity)
	assert.True(t, p.AvgCost.Equal(d(120)), "excess opens fresh at fill price")
	assert.True(t, p.RealizedPnL.Equal(d(200)))
}

func TestApplyFill_FullCloseResetsAvgCost(t *testing.T) {
	p := NewPosition("AAPL")
	p.ApplyFill(wire.SideBuy, 10, d(100))

	realized := p.ApplyFill(wire.SideSell, 10, d(90))

	assert.True(t, realized.Equal(d(-100)), "realized = %s", realized)
	assert.Equal(t, int64(0), p.Quantity)
	assert.True(t, p.AvgCost.IsZero(), "flat position has no cost basis")
}

func TestApplyFill_ShortSide(t *testing.T) {
	p := NewPosition("MSFT")

	realized := p.ApplyFill(wire.SideSell, 10, d(200))
	assert.True(t, realized.IsZero())
	assert.Equal(t, int64(-10), p.Quantity)
	assert.True(t, p.AvgCost.Equal(d(200)))

	// Covering below the basis is a profit for a short.
	realized = p.ApplyFill(wire.SideBuy, 10, d(180))
	assert.True(t, realized.Equal(d(200)), "realized = %s (10 x (200-180))", realized)
	assert.Equal(t, int64(0), p.Quantity)
	assert.True(t, p.AvgCost.IsZero())
}

func TestApplyFill_AddToShortWeightsAverage(t *testing.T) {
	p := NewPosition("MSFT")
	p.ApplyFill(wire.SideSell, 10, d(200))
	p.ApplyFill(wire.SideSell, 10, d(210))

	assert.Equal(t, int64(-20), p.Quantity)
	assert.True(t, p.AvgCost.Equal(d(205)), "avg_cost = %s", p.AvgCost)
}

func TestUnrealizedPnL(t *testing.T) {
	p := NewPosition("AAPL")
	assert.True(t, p.UnrealizedPnL(d(150)).IsZero(), "flat position marks to zero")

	p.ApplyFill(wire.SideBuy, 10, d(100))
	assert.True(t, p.UnrealizedPnL(d(110)).Equal(d(100)))
	assert.True(t, p.UnrealizedPnL(d(90)).Equal(d(-100)))

	short := NewPosition("MSFT")
	short.ApplyFill(wire.SideSell, 5, d(200))
	assert.True(t, short.UnrealizedPnL(d(190)).Equal(d(50)))
	assert.True(t, short.UnrealizedPnL(d(210)).Equal(d(-50)))
}

func TestRealizedPnL_IgnoresMarkToMarket(t *testing.T) {
	p := NewPosition("AAPL")
	p.ApplyFill(wire.SideBuy, 10, d(100))

	require.True(t, p.RealizedPnL.IsZero())
	_ = p.UnrealizedPnL(d(500))
	assert.True(t, p.RealizedPnL.IsZero(), "marking must never move realized P&L")
}
