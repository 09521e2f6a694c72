package strategy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/wire"
)

var ErrExecutionInProgress = errors.New("an execution is already in progress")

// slicePlan tracks one parent order being worked in slices.
type slicePlan struct {
	Symbol        string
	Side          wire.Side
	TotalQty      uint64
	ExecutedQty   uint64
	NumSlices     int
	SliceInterval time.Duration
	LastSlice     time.Time
	Limit         *decimal.Decimal
}

// SlicedExec works a parent order as evenly scheduled child slices
// over a time horizon (TWAP-style). One parent order at a time; a new
// Execute while one is working fails with ErrExecutionInProgress.
type SlicedExec struct {
	mu   sync.Mutex
	plan *slicePlan
	now  func() time.Time
}

// NewSlicedExec creates an idle execution strategy.
func NewSlicedExec() *SlicedExec {
	return &SlicedExec{now: time.Now}
}

func (s *SlicedExec) Name() string { return "sliced-exec" }

// Execute schedules a parent order: totalQty split into numSlices
// child orders spread across the duration. When limit is nil each
// slice goes out at the last seen price, or as a market order if no
// price is known yet.
func (s *SlicedExec) Execute(symbol string, side wire.Side, totalQty uint64, duration time.Duration, numSlices int, limit *decimal.Decimal) error {
	if numSlices <= 0 {
		numSlices = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan != nil {
		return ErrExecutionInProgress
	}
	s.plan = &slicePlan{
		Symbol:        symbol,
		Side:          side,
		TotalQty:      totalQty,
		NumSlices:     numSlices,
		SliceInterval: duration / time.Duration(numSlices),
		Limit:         limit,
	}
	return nil
}

// CancelExecution abandons the remaining slices of the working parent
// order. Child orders already sent are unaffected.
func (s *SlicedExec) CancelExecution() {
	s.mu.Lock()
	s.plan = nil
	s.mu.Unlock()
}

// IsExecuting reports whether a parent order is being worked.
func (s *SlicedExec) IsExecuting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan != nil
}

// Progress returns executed and total quantities of the working parent
// order, zeroes when idle.
func (s *SlicedExec) Progress() (executed, total uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return 0, 0
	}
	return s.plan.ExecutedQty, s.plan.TotalQty
}

func (s *SlicedExec) OnStart(ctx context.Context, r *Runner) error {
	r.Logger().Info("sliced-exec ready")
	return nil
}

func (s *SlicedExec) OnTick(ctx context.Context, r *Runner, prices map[string]decimal.Decimal) error {
	s.mu.Lock()
	plan := s.plan
	if plan == nil {
		s.mu.Unlock()
		return nil
	}
	now := s.now()
	if now.Sub(plan.LastSlice) < plan.SliceInterval {
		s.mu.Unlock()
		return nil
	}

	remaining := plan.TotalQty - plan.ExecutedQty
	if remaining == 0 {
		s.complete(r)
		s.mu.Unlock()
		return nil
	}

	qty := nextSliceQty(plan.TotalQty, plan.ExecutedQty, plan.NumSlices)
	limit := plan.Limit
	if limit == nil {
		if p, ok := prices[plan.Symbol]; ok {
			limit = &p
		}
	}
	symbol, side := plan.Symbol, plan.Side

	plan.ExecutedQty += qty
	plan.LastSlice = now
	done := plan.ExecutedQty >= plan.TotalQty
	if done {
		s.complete(r)
	}
	s.mu.Unlock()

	var err error
	if side == wire.SideBuy {
		_, err = r.Buy(ctx, symbol, qty, limit)
	} else {
		_, err = r.Sell(ctx, symbol, qty, limit)
	}
	return err
}

// complete logs and clears the plan. Callers must hold s.mu.
func (s *SlicedExec) complete(r *Runner) {
	r.Logger().Info("sliced execution complete",
		zap.String("symbol", s.plan.Symbol),
		zap.Uint64("total_qty", s.plan.TotalQty),
	)
	s.plan = nil
}

func (s *SlicedExec) OnFill(ctx context.Context, r *Runner, fill wire.Fill) {}

func (s *SlicedExec) OnStop(r *Runner) {}

// nextSliceQty sizes the next child order so the remainder spreads
// evenly over the slices left.
func nextSliceQty(totalQty, executedQty uint64, numSlices int) uint64 {
	remaining := totalQty - executedQty
	perSlice := float64(totalQty) / float64(numSlices)
	done := int(float64(executedQty) / perSlice)
	slicesLeft := numSlices - done
	if slicesLeft < 1 {
		slicesLeft = 1
	}
	qty := remaining / uint64(slicesLeft)
	if qty == 0 {
		qty = 1
	}
	return qty
}
