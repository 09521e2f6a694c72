package strategy

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/wire"
)

// PairsConfig tunes the ratio-spread statistical arbitrage strategy.
type PairsConfig struct {
	SymbolA        string
	SymbolB        string
	LookbackWindow int
	EntryThreshold float64
	ExitThreshold  float64
	OrderSize      uint64
}

// Pairs trades the ratio spread between two correlated symbols: when
// the ratio stretches past the entry threshold it shorts the rich leg
// and buys the cheap one, unwinding both once the spread normalizes.
type Pairs struct {
	cfg        PairsConfig
	spread     []float64
	inPosition bool
}

// NewPairs creates the strategy with sane defaults.
func NewPairs(cfg PairsConfig) *Pairs {
	if cfg.LookbackWindow <= 0 {
		cfg.LookbackWindow = 20
	}
	if cfg.EntryThreshold == 0 {
		cfg.EntryThreshold = 2.0
	}
	if cfg.ExitThreshold == 0 {
		cfg.ExitThreshold = 0.5
	}
	if cfg.OrderSize == 0 {
		cfg.OrderSize = 10
	}
	return &Pairs{cfg: cfg}
}

func (p *Pairs) Name() string { return "pairs" }

func (p *Pairs) OnStart(ctx context.Context, r *Runner) error {
	r.Logger().Info("pairs starting",
		zap.String("symbol_a", p.cfg.SymbolA),
		zap.String("symbol_b", p.cfg.SymbolB),
	)
	return nil
}

func (p *Pairs) OnTick(ctx context.Context, r *Runner, prices map[string]decimal.Decimal) error {
	priceA, okA := prices[p.cfg.SymbolA]
	priceB, okB := prices[p.cfg.SymbolB]
	if !okA || !okB || priceB.IsZero() {
		return nil
	}

	ratio := priceA.InexactFloat64() / priceB.InexactFloat64()
	p.spread = trimWindow(append(p.spread, ratio), p.cfg.LookbackWindow+10)
	if len(p.spread) < p.cfg.LookbackWindow {
		return nil
	}
	z := zScore(ratio, p.spread[len(p.spread)-p.cfg.LookbackWindow:])

	if !p.inPosition {
		switch {
		case z > p.cfg.EntryThreshold:
			// A rich relative to B: short A, long B.
			if _, err := r.Sell(ctx, p.cfg.SymbolA, p.cfg.OrderSize, &priceA); err != nil {
				return err
			}
			if _, err := r.Buy(ctx, p.cfg.SymbolB, p.cfg.OrderSize, &priceB); err != nil {
				return err
			}
			p.inPosition = true
		case z < -p.cfg.EntryThreshold:
			if _, err := r.Buy(ctx, p.cfg.SymbolA, p.cfg.OrderSize, &priceA); err != nil {
				return err
			}
			if _, err := r.Sell(ctx, p.cfg.SymbolB, p.cfg.OrderSize, &priceB); err != nil {
				return err
			}
			p.inPosition = true
		}
		return nil
	}

	if z > -p.cfg.ExitThreshold && z < p.cfg.ExitThreshold {
		if err := p.flatten(ctx, r, p.cfg.SymbolA, priceA); err != nil {
			return err
		}
		if err := p.flatten(ctx, r, p.cfg.SymbolB, priceB); err != nil {
			return err
		}
		p.inPosition = false
	}
	return nil
}

func (p *Pairs) flatten(ctx context.Context, r *Runner, symbol string, price decimal.Decimal) error {
	position := r.Quantity(symbol)
	switch {
	case position > 0:
		_, err := r.Sell(ctx, symbol, uint64(position), &price)
		return err
	case position < 0:
		_, err := r.Buy(ctx, symbol, uint64(-position), &price)
		return err
	}
	return nil
}

func (p *Pairs) OnFill(ctx context.Context, r *Runner, fill wire.Fill) {
	r.Logger().Debug("pairs legs",
		zap.Int64("position_a", r.Quantity(p.cfg.SymbolA)),
		zap.Int64("position_b", r.Quantity(p.cfg.SymbolB)),
	)
}

func (p *Pairs) OnStop(r *Runner) {}
