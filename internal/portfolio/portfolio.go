package portfolio

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/algofleet/algofleet/internal/wire"
)

// Trade is one record of the append-only trade log.
type Trade struct {
	ID          string
	Symbol      string
	Side        wire.Side
	Qty         uint64
	Price       decimal.Decimal
	RealizedPnL decimal.Decimal
	Timestamp   time.Time
}

// Portfolio owns the per-symbol position ledgers and the trade log.
// Ledgers are created lazily on first reference and never removed: a
// symbol once touched always has an entry, possibly flat.
//
// All methods are safe for concurrent use. Writes come from the fill
// delivery path; reads may come from strategy or display threads. The
// lock guarantees a reader never observes a partially updated
// (quantity, avg_cost, realized_pnl) triple.
type Portfolio struct {
	mu        sync.RWMutex
	positions map[string]*Position
	trades    []Trade
}

// New creates an empty portfolio.
func New() *Portfolio {
	return &Portfolio{positions: make(map[string]*Position)}
}

// RecordFill applies one execution to the relevant ledger and returns
// the appended trade record, whose RealizedPnL field carries the
// realized P&L delta of this fill.
func (pf *Portfolio) RecordFill(symbol string, side wire.Side, qty uint64, price decimal.Decimal) Trade {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	pos := pf.ledger(symbol)
	realized := pos.ApplyFill(side, qty, price)
	trade := Trade{
		ID:          uuid.New().String(),
		Symbol:      symbol,
		Side:        side,
		Qty:         qty,
		Price:       price,
		RealizedPnL: realized,
		Timestamp:   time.Now(),
	}
	pf.trades = append(pf.trades, trade)
	return trade
}

// ledger returns the position for a symbol, creating it if needed.
// Callers must hold the write lock.
func (pf *Portfolio) ledger(symbol string) *Position {
	pos, ok := pf.positions[symbol]
	if !ok {
		pos = NewPosition(symbol)
		pf.positions[symbol] = pos
	}
	return pos
}

// Position returns a snapshot of one symbol's ledger.
func (pf *Portfolio) Position(symbol string) (Position, bool) {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	pos, ok := pf.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Quantity returns the signed open quantity for a symbol, zero if the
// symbol has never traded.
func (pf *Portfolio) Quantity(symbol string) int64 {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	if pos, ok := pf.positions[symbol]; ok {
		return pos.Quantity
	}
	return 0
}

// Positions returns a snapshot of every ledger, flat ones included.
func (pf *Portfolio) Positions() map[string]Position {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	out := make(map[string]Position, len(pf.positions))
	for symbol, pos := range pf.positions {
		out[symbol] = *pos
	}
	return out
}

// ActivePositions returns a snapshot of ledgers with nonzero quantity.
func (pf *Portfolio) ActivePositions() map[string]Position {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	out := make(map[string]Position)
	for symbol, pos := range pf.positions {
		if pos.Quantity != 0 {
			out[symbol] = *pos
		}
	}
	return out
}

// TotalRealizedPnL sums realized P&L across all ledgers.
func (pf *Portfolio) TotalRealizedPnL() decimal.Decimal {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	total := decimal.Zero
	for _, pos := range pf.positions {
		total = total.Add(pos.RealizedPnL)
	}
	return total
}

// TotalUnrealizedPnL marks open positions against the given price
// snapshot. Symbols with no quoted price are silently excluded; this
// is documented behavior, callers wanting completeness must supply a
// price for every open symbol.
func (pf *Portfolio) TotalUnrealizedPnL(prices map[string]decimal.Decimal) decimal.Decimal {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	total := decimal.Zero
	for symbol, pos := range pf.positions {
		if pos.Quantity == 0 {
			continue
		}
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		total = total.Add(pos.UnrealizedPnL(price))
	}
	return total
}

// TotalPnL is total realized plus total unrealized.
func (pf *Portfolio) TotalPnL(prices map[string]decimal.Decimal) decimal.Decimal {
	return pf.TotalRealizedPnL().Add(pf.TotalUnrealizedPnL(prices))
}

// Trades returns a copy of the append-only trade log, in order.
func (pf *Portfolio) Trades() []Trade {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return append([]Trade(nil), pf.trades...)
}
