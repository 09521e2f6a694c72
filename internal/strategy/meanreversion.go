package strategy

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/wire"
)

// MeanReversionConfig tunes the z-score mean-reversion strategy.
type MeanReversionConfig struct {
	Symbols        []string
	LookbackWindow int
	EntryThreshold float64
	ExitThreshold  float64
	OrderSize      uint64
}

// MeanReversion fades extremes: it buys when the price sits far below
// its rolling mean, sells when far above, and flattens once the
// z-score decays back inside the exit band.
type MeanReversion struct {
	cfg     MeanReversionConfig
	history map[string][]float64
}

// NewMeanReversion creates the strategy with sane defaults.
func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
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
	return &MeanReversion{cfg: cfg, history: make(map[string][]float64)}
}

func (m *MeanReversion) Name() string { return "mean-reversion" }

func (m *MeanReversion) OnStart(ctx context.Context, r *Runner) error {
	r.Logger().Info("mean-reversion starting", zap.Strings("symbols", m.cfg.Symbols))
	return nil
}

func (m *MeanReversion) OnTick(ctx context.Context, r *Runner, prices map[string]decimal.Decimal) error {
	for _, symbol := range m.cfg.Symbols {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		value := price.InexactFloat64()
		m.history[symbol] = trimWindow(append(m.history[symbol], value), m.cfg.LookbackWindow+10)
		history := m.history[symbol]
		if len(history) < m.cfg.LookbackWindow {
			continue
		}

		z := zScore(value, history[len(history)-m.cfg.LookbackWindow:])
		position := r.Quantity(symbol)

		if position == 0 {
			switch {
			case z < -m.cfg.EntryThreshold:
				if _, err := r.Buy(ctx, symbol, m.cfg.OrderSize, &price); err != nil {
					return err
				}
			case z > m.cfg.EntryThreshold:
				if _, err := r.Sell(ctx, symbol, m.cfg.OrderSize, &price); err != nil {
					return err
				}
			}
		} else if z > -m.cfg.ExitThreshold && z < m.cfg.ExitThreshold {
			if position > 0 {
				if _, err := r.Sell(ctx, symbol, uint64(position), &price); err != nil {
					return err
				}
			} else {
				if _, err := r.Buy(ctx, symbol, uint64(-position), &price); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (m *MeanReversion) OnFill(ctx context.Context, r *Runner, fill wire.Fill) {
	r.Logger().Debug("mean-reversion position",
		zap.String("symbol", fill.Symbol),
		zap.Int64("quantity", r.Quantity(fill.Symbol)),
	)
}

func (m *MeanReversion) OnStop(r *Runner) {}
