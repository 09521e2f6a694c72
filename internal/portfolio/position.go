// Package portfolio tracks per-symbol positions and realized and
// unrealized profit-and-loss under average-cost accounting.
package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/algofleet/algofleet/internal/wire"
)

// Position tracks holdings for a single symbol. Quantity is signed
// (negative for short). AvgCost is the cost basis of the currently
// open signed quantity; it is zero exactly when Quantity is zero.
// RealizedPnL is adjusted only by closing trades, never by
// mark-to-market movement.
//
// Position itself is not synchronized; Portfolio serializes access.
type Position struct {
	Symbol      string
	Quantity    int64
	AvgCost     decimal.Decimal
	RealizedPnL decimal.Decimal
}

// NewPosition creates a flat position for a symbol.
func NewPosition(symbol string) *Position {
	return &Position{
		Symbol:      symbol,
		AvgCost:     decimal.Zero,
		RealizedPnL: decimal.Zero,
	}
}

// ApplyFill updates the position for one execution and returns the
// realized P&L delta. Opening and adding realize nothing; reducing
// realizes close_qty x (price − avg_cost) for a long (mirrored for a
// short); a fill crossing zero closes the old position and opens the
// excess as a fresh position at the fill price.
func (p *Position) ApplyFill(side wire.Side, fillQty uint64, fillPrice decimal.Decimal) decimal.Decimal {
	signed := int64(fillQty)
	if side == wire.SideSell {
		signed = -signed
	}

	switch {
	case p.Quantity == 0:
		// Opening a fresh position.
		p.Quantity = signed
		p.AvgCost = fillPrice
		return decimal.Zero

	case (p.Quantity > 0) == (signed > 0):
		// Adding to the position: size-weighted average cost.
		oldValue := decimal.NewFromInt(abs(p.Quantity)).Mul(p.AvgCost)
		addValue := decimal.NewFromInt(int64(fillQty)).Mul(fillPrice)
		p.Quantity += signed
		p.AvgCost = oldValue.Add(addValue).Div(decimal.NewFromInt(abs(p.Quantity)))
		return decimal.Zero

	default:
		// Reducing, closing, or flipping.
		closeQty := int64(fillQty)
		if open := abs(p.Quantity); closeQty > open {
			closeQty = open
		}
		var realized decimal.Decimal
		if p.Quantity > 0 {
			realized = decimal.NewFromInt(closeQty).Mul(fillPrice.Sub(p.AvgCost))
		} else {
			realized = decimal.NewFromInt(closeQty).Mul(p.AvgCost.Sub(fillPrice))
		}
		p.RealizedPnL = p.RealizedPnL.Add(realized)

		oldQty := p.Quantity
		p.Quantity += signed
		if p.Quantity == 0 {
			p.AvgCost = decimal.Zero
		} else if (oldQty > 0) != (p.Quantity > 0) {
			// Crossed zero: the excess opens a new position at the
			// fill price.
			p.AvgCost = fillPrice
		}
		return realized
	}
}

// UnrealizedPnL marks the open quantity against the given price.
func (p *Position) UnrealizedPnL(currentPrice decimal.Decimal) decimal.Decimal {
	switch {
	case p.Quantity == 0:
		return decimal.Zero
	case p.Quantity > 0:
		return decimal.NewFromInt(p.Quantity).Mul(currentPrice.Sub(p.AvgCost))
	default:
		return decimal.NewFromInt(-p.Quantity).Mul(p.AvgCost.Sub(currentPrice))
	}
}

// TotalPnL is realized plus unrealized at the given price.
func (p *Position) TotalPnL(currentPrice decimal.Decimal) decimal.Decimal {
	return p.RealizedPnL.Add(p.UnrealizedPnL(currentPrice))
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
