// Package dashboard renders a periodic plain-text view of every
// runner: open positions, working orders, and P&L.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/strategy"
)

// Config holds dashboard settings.
type Config struct {
	// RefreshInterval between renders. Defaults to 5s.
	RefreshInterval time.Duration
}

// Dashboard periodically writes a snapshot of all runners to out.
type Dashboard struct {
	cfg     Config
	out     io.Writer
	runners []*strategy.Runner
	logger  *zap.Logger
}

// New creates a dashboard over the given runners.
func New(cfg Config, out io.Writer, runners []*strategy.Runner, logger *zap.Logger) *Dashboard {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Second
	}
	return &Dashboard{cfg: cfg, out: out, runners: runners, logger: logger}
}

// Run renders on every refresh interval until the context is canceled.
// A final snapshot is written on shutdown.
func (d *Dashboard) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.Render()
			return ctx.Err()
		case <-ticker.C:
			d.Render()
		}
	}
}

// Render writes one snapshot of every runner plus fleet totals.
func (d *Dashboard) Render() {
	fmt.Fprintf(d.out, "\n=== Portfolio %s ===\n", time.Now().Format("15:04:05"))

	for _, r := range d.runners {
		d.renderRunner(r)
	}

	if len(d.runners) > 1 {
		realized, unrealized := decimal.Zero, decimal.Zero
		for _, r := range d.runners {
			realized = realized.Add(r.RealizedPnL())
			unrealized = unrealized.Add(r.UnrealizedPnL())
		}
		fmt.Fprintf(d.out, "\nfleet: realized=%s unrealized=%s total=%s\n",
			realized.StringFixed(2),
			unrealized.StringFixed(2),
			realized.Add(unrealized).StringFixed(2),
		)
	}
}

func (d *Dashboard) renderRunner(r *strategy.Runner) {
	prices := r.Prices()
	positions := r.Portfolio().ActivePositions()
	pending := r.PendingOrders()

	fmt.Fprintf(d.out, "\n[%s] realized=%s unrealized=%s total=%s\n",
		r.Name(),
		r.RealizedPnL().StringFixed(2),
		r.UnrealizedPnL().StringFixed(2),
		r.TotalPnL().StringFixed(2),
	)

	if len(positions) > 0 {
		w := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  SYMBOL\tQTY\tAVG COST\tLAST\tUNREALIZED")
		for _, symbol := range sortedKeys(positions) {
			pos := positions[symbol]
			last, unrealized := "-", "-"
			if price, ok := prices[symbol]; ok {
				last = price.StringFixed(2)
				unrealized = pos.UnrealizedPnL(price).StringFixed(2)
			}
			fmt.Fprintf(w, "  %s\t%d\t%s\t%s\t%s\n",
				symbol, pos.Quantity, pos.AvgCost.StringFixed(2), last, unrealized)
		}
		w.Flush()
	}

	if len(pending) > 0 {
		fmt.Fprintf(d.out, "  working orders: %d\n", len(pending))
		w := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  ORDER\tSYMBOL\tSIDE\tQTY")
		ids := make([]uint64, 0, len(pending))
		for id := range pending {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			o := pending[id]
			fmt.Fprintf(w, "  %d\t%s\t%s\t%d\n", id, o.Symbol, o.Side.String(), o.Qty)
		}
		w.Flush()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
