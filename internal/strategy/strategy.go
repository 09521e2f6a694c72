// Package strategy runs trading strategies against an exchange
// client. A Strategy is a pure signal generator driven by callbacks;
// the Runner owns the tick loop, the last-price cache, and the
// portfolio, and forwards fills to both.
package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/algofleet/algofleet/internal/wire"
)

// Strategy is the capability interface implemented by strategy
// variants. Callbacks run on the runner's goroutines: OnStart, OnTick
// and OnStop on the tick loop, OnFill on the client's listener
// goroutine.
type Strategy interface {
	// Name identifies the strategy in logs and on the dashboard.
	Name() string
	// OnStart runs once before the first tick.
	OnStart(ctx context.Context, r *Runner) error
	// OnTick receives the current price snapshot each tick interval.
	OnTick(ctx context.Context, r *Runner, prices map[string]decimal.Decimal) error
	// OnFill receives every fill delivered to the client, after the
	// portfolio has been updated.
	OnFill(ctx context.Context, r *Runner, fill wire.Fill)
	// OnStop runs once when the tick loop exits.
	OnStop(r *Runner)
}
