package strategy

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/exchange"
	"github.com/algofleet/algofleet/internal/portfolio"
	"github.com/algofleet/algofleet/internal/wire"
)

// Config holds per-runner settings.
type Config struct {
	// Name labels this runner in logs and on the dashboard.
	Name string
	// TickInterval is the strategy tick period. Defaults to 1s.
	TickInterval time.Duration
}

// Runner drives one strategy against one exchange client. It caches
// the last seen price per symbol (updated from fills and from any
// external market data feed), applies fills to its portfolio, and
// exposes order placement helpers to the strategy.
type Runner struct {
	cfg       Config
	client    *exchange.Client
	portfolio *portfolio.Portfolio
	logger    *zap.Logger

	mu         sync.RWMutex
	lastPrices map[string]decimal.Decimal
	onTrade    func(portfolio.Trade)

	// strat and runCtx are set by Run; the fill observer forwards to
	// the strategy only once both exist.
	strat  Strategy
	runCtx context.Context
}

// NewRunner creates a runner over an exchange client. The runner
// registers itself as a fill observer immediately so no fill is missed
// between construction and Run.
func NewRunner(cfg Config, client *exchange.Client, logger *zap.Logger) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	r := &Runner{
		cfg:        cfg,
		client:     client,
		portfolio:  portfolio.New(),
		logger:     logger,
		lastPrices: make(map[string]decimal.Decimal),
	}
	client.OnFill(func(fill wire.Fill) {
		r.applyFill(fill)
		r.mu.RLock()
		strat, ctx := r.strat, r.runCtx
		r.mu.RUnlock()
		if strat != nil {
			strat.OnFill(ctx, r, fill)
		}
	})
	return r
}

// Name returns the runner's display name.
func (r *Runner) Name() string { return r.cfg.Name }

// Logger exposes the runner's logger for strategy callbacks.
func (r *Runner) Logger() *zap.Logger { return r.logger }

// OnTrade registers a hook invoked for every trade the runner books,
// after the portfolio is updated. Used to feed the trade journal. Must
// be set before Run.
func (r *Runner) OnTrade(hook func(portfolio.Trade)) {
	r.onTrade = hook
}

// Run executes the strategy's tick loop until the context is canceled.
// Tick errors are logged and the loop continues; only cancellation
// stops it.
func (r *Runner) Run(ctx context.Context, strat Strategy) error {
	r.mu.Lock()
	r.strat = strat
	r.runCtx = ctx
	r.mu.Unlock()

	r.logger.Info("strategy starting",
		zap.String("runner", r.cfg.Name),
		zap.String("strategy", strat.Name()),
	)
	if err := strat.OnStart(ctx, r); err != nil {
		return err
	}

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			strat.OnStop(r)
			r.logger.Info("strategy stopped",
				zap.String("runner", r.cfg.Name),
				zap.String("strategy", strat.Name()),
			)
			return ctx.Err()
		case <-ticker.C:
			if err := strat.OnTick(ctx, r, r.Prices()); err != nil {
				r.logger.Error("tick failed",
					zap.String("runner", r.cfg.Name),
					zap.Error(err),
				)
			}
		}
	}
}

// applyFill updates the price cache and the portfolio for one fill.
func (r *Runner) applyFill(fill wire.Fill) {
	price := decimal.NewFromInt(fill.FillPrice)
	r.mu.Lock()
	r.lastPrices[fill.Symbol] = price
	r.mu.Unlock()

	trade := r.portfolio.RecordFill(fill.Symbol, fill.Side, fill.FillQty, price)
	r.logger.Debug("fill applied",
		zap.String("runner", r.cfg.Name),
		zap.String("symbol", fill.Symbol),
		zap.String("side", fill.Side.String()),
		zap.Uint64("qty", fill.FillQty),
		zap.String("price", price.String()),
		zap.String("realized_delta", trade.RealizedPnL.String()),
	)
	if r.onTrade != nil {
		r.onTrade(trade)
	}
}

// Buy places a limit buy, or a market buy when limit is nil. Returns
// the client order id.
func (r *Runner) Buy(ctx context.Context, symbol string, qty uint64, limit *decimal.Decimal) (uint64, error) {
	if limit == nil {
		return r.client.SubmitMarket(ctx, symbol, wire.SideBuy, qty)
	}
	return r.client.SubmitLimit(ctx, symbol, wire.SideBuy, qty, limit.IntPart(), wire.TifDay)
}

// Sell places a limit sell, or a market sell when limit is nil.
func (r *Runner) Sell(ctx context.Context, symbol string, qty uint64, limit *decimal.Decimal) (uint64, error) {
	if limit == nil {
		return r.client.SubmitMarket(ctx, symbol, wire.SideSell, qty)
	}
	return r.client.SubmitLimit(ctx, symbol, wire.SideSell, qty, limit.IntPart(), wire.TifDay)
}

// CancelOrder requests cancellation of a working order.
func (r *Runner) CancelOrder(ctx context.Context, symbol string, clientOrderID uint64) error {
	return r.client.Cancel(ctx, symbol, clientOrderID)
}

// Quantity returns the signed open quantity for a symbol.
func (r *Runner) Quantity(symbol string) int64 {
	return r.portfolio.Quantity(symbol)
}

// Portfolio exposes the runner's portfolio for display and P&L.
func (r *Runner) Portfolio() *portfolio.Portfolio {
	return r.portfolio
}

// PendingOrders returns the client's pending table snapshot.
func (r *Runner) PendingOrders() map[uint64]exchange.PendingOrder {
	return r.client.PendingOrders()
}

// Price returns the last seen price for a symbol.
func (r *Runner) Price(symbol string) (decimal.Decimal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.lastPrices[symbol]
	return p, ok
}

// Prices returns a copy of the last-price cache.
func (r *Runner) Prices() map[string]decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(r.lastPrices))
	for symbol, p := range r.lastPrices {
		out[symbol] = p
	}
	return out
}

// UpdatePrice feeds one external market data point into the cache.
func (r *Runner) UpdatePrice(symbol string, price decimal.Decimal) {
	r.mu.Lock()
	r.lastPrices[symbol] = price
	r.mu.Unlock()
}

// UpdatePrices feeds a batch of external market data into the cache.
func (r *Runner) UpdatePrices(prices map[string]decimal.Decimal) {
	r.mu.Lock()
	for symbol, p := range prices {
		r.lastPrices[symbol] = p
	}
	r.mu.Unlock()
}

// RealizedPnL is the portfolio's total realized P&L.
func (r *Runner) RealizedPnL() decimal.Decimal {
	return r.portfolio.TotalRealizedPnL()
}

// UnrealizedPnL marks open positions against the price cache.
func (r *Runner) UnrealizedPnL() decimal.Decimal {
	return r.portfolio.TotalUnrealizedPnL(r.Prices())
}

// TotalPnL is realized plus unrealized against the price cache.
func (r *Runner) TotalPnL() decimal.Decimal {
	return r.RealizedPnL().Add(r.UnrealizedPnL())
}
