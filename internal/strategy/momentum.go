package strategy

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/wire"
)

type trend string

const (
	trendLong  trend = "long"
	trendShort trend = "short"
)

// MomentumConfig tunes the moving-average crossover strategy.
type MomentumConfig struct {
	Symbols     []string
	ShortWindow int
	LongWindow  int
	OrderSize   uint64
	MaxPosition int64
}

// Momentum trades a moving-average crossover: go long while the short
// average sits above the long average, flatten when it crosses back
// under. Orders fire only on signal changes.
type Momentum struct {
	cfg     MomentumConfig
	history map[string][]decimal.Decimal
	signal  map[string]trend
}

// NewMomentum creates the strategy with sane window defaults.
func NewMomentum(cfg MomentumConfig) *Momentum {
	if cfg.ShortWindow <= 0 {
		cfg.ShortWindow = 5
	}
	if cfg.LongWindow <= 0 {
		cfg.LongWindow = 20
	}
	if cfg.OrderSize == 0 {
		cfg.OrderSize = 10
	}
	if cfg.MaxPosition == 0 {
		cfg.MaxPosition = 100
	}
	return &Momentum{
		cfg:     cfg,
		history: make(map[string][]decimal.Decimal),
		signal:  make(map[string]trend),
	}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) OnStart(ctx context.Context, r *Runner) error {
	r.Logger().Info("momentum starting", zap.Strings("symbols", m.cfg.Symbols))
	return nil
}

func (m *Momentum) OnTick(ctx context.Context, r *Runner, prices map[string]decimal.Decimal) error {
	for _, symbol := range m.cfg.Symbols {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		m.history[symbol] = trimWindow(append(m.history[symbol], price), m.cfg.LongWindow+10)
		history := m.history[symbol]
		if len(history) < m.cfg.LongWindow {
			continue
		}

		shortMA := average(history[len(history)-m.cfg.ShortWindow:])
		longMA := average(history[len(history)-m.cfg.LongWindow:])
		newSignal := trendShort
		if shortMA.GreaterThan(longMA) {
			newSignal = trendLong
		}
		if newSignal == m.signal[symbol] {
			continue
		}
		m.signal[symbol] = newSignal

		position := r.Quantity(symbol)
		if newSignal == trendLong {
			if position < 0 {
				// Cover the short before building the long.
				if _, err := r.Buy(ctx, symbol, uint64(-position), &price); err != nil {
					return err
				}
			}
			if position < m.cfg.MaxPosition {
				open := position
				if open < 0 {
					open = 0
				}
				qty := m.cfg.OrderSize
				if room := uint64(m.cfg.MaxPosition - open); qty > room {
					qty = room
				}
				if qty > 0 {
					if _, err := r.Buy(ctx, symbol, qty, &price); err != nil {
						return err
					}
				}
			}
		} else if position > 0 {
			if _, err := r.Sell(ctx, symbol, uint64(position), &price); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Momentum) OnFill(ctx context.Context, r *Runner, fill wire.Fill) {
	r.Logger().Debug("momentum position",
		zap.String("symbol", fill.Symbol),
		zap.Int64("quantity", r.Quantity(fill.Symbol)),
	)
}

func (m *Momentum) OnStop(r *Runner) {}
