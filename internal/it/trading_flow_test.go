// Package it holds integration tests that exercise the full trading
// flow in-process: strategy runner, exchange client, wire codec, and
// trade journal, wired over in-memory pipes to a scripted venue.
package it

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/exchange"
	"github.com/algofleet/algofleet/internal/journal"
	"github.com/algofleet/algofleet/internal/portfolio"
	"github.com/algofleet/algofleet/internal/strategy"
	"github.com/algofleet/algofleet/internal/transport"
	"github.com/algofleet/algofleet/internal/wire"
)

// scriptedVenue acks and immediately fills every order it sees on the
// orders pipe. Limit orders fill at their limit, market orders at
// lastPrice.
type scriptedVenue struct {
	t           *testing.T
	orders      *transport.Pipe
	events      *transport.Pipe
	lastPrice   int64
	nextOrderID uint64
	nextSeq     uint64
}

func (v *scriptedVenue) run(ctx context.Context) {
	for {
		payload, ok, err := v.orders.Poll(ctx, 10*time.Millisecond)
		if err != nil || ctx.Err() != nil {
			return
		}
		if !ok {
			continue
		}
		env, err := wire.Decode(payload)
		require.NoError(v.t, err)

		req, isOrder := env.Body.(wire.NewOrderRequest)
		if !isOrder {
			continue
		}

		v.nextOrderID++
		v.send(ctx, wire.MsgAck, wire.Ack{
			ClientOrderID: req.ClientOrderID,
			OrderID:       v.nextOrderID,
			Symbol:        req.Symbol,
		})

		price := req.LimitPrice
		if req.OrdType == wire.OrdTypeMarket {
			price = v.lastPrice
		}
		v.send(ctx, wire.MsgFill, wire.Fill{
			OrderID:   v.nextOrderID,
			Symbol:    req.Symbol,
			Side:      req.Side,
			FillQty:   req.Qty,
			FillPrice: price,
			Complete:  true,
		})
	}
}

func (v *scriptedVenue) send(ctx context.Context, msgType wire.MsgType, body any) {
	v.nextSeq++
	payload, err := wire.Encode(wire.Envelope{
		Header: wire.MessageHeader{Version: 1, Type: msgType, Seq: v.nextSeq},
		Body:   body,
	})
	require.NoError(v.t, err)
	require.NoError(v.t, v.events.Send(ctx, payload))
}

func TestTradingFlow_OrderToJournal(t *testing.T) {
	orders := transport.NewPipe("orders", 64)
	events := transport.NewPipe("events", 64)

	client := exchange.New(exchange.Config{ClientID: 7, PollInterval: 10 * time.Millisecond}, orders, events, zap.NewNop())
	runner := strategy.NewRunner(strategy.Config{Name: "it", TickInterval: time.Hour}, client, zap.NewNop())

	jnl, err := journal.Open(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	defer jnl.Close()

	journaled := make(chan portfolio.Trade, 8)
	runner.OnTrade(func(trade portfolio.Trade) {
		require.NoError(t, jnl.Append(context.Background(), trade))
		journaled <- trade
	})

	venue := &scriptedVenue{t: t, orders: orders, events: events, lastPrice: 100}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go venue.run(ctx)
	go func() { _ = client.Listen(ctx) }()
	go func() { _ = runner.Run(ctx, &idleStrategy{}) }()

	// Buy 10 at 100, sell 10 at a 120 limit.
	limit := decimal.NewFromInt(100)
	_, err = runner.Buy(ctx, "AAPL", 10, &limit)
	require.NoError(t, err)

	waitForTrade(t, journaled)

	limit = decimal.NewFromInt(120)
	_, err = runner.Sell(ctx, "AAPL", 10, &limit)
	require.NoError(t, err)

	sell := waitForTrade(t, journaled)
	assert.True(t, sell.RealizedPnL.Equal(decimal.NewFromInt(200)), "got %s", sell.RealizedPnL)

	// Flat again, round trip banked.
	assert.Equal(t, int64(0), runner.Quantity("AAPL"))
	assert.True(t, runner.RealizedPnL().Equal(decimal.NewFromInt(200)))
	assert.Empty(t, runner.PendingOrders(), "completing fills clear the pending table")

	count, err := jnl.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTradingFlow_MarketOrderFillsAtTape(t *testing.T) {
	orders := transport.NewPipe("orders", 64)
	events := transport.NewPipe("events", 64)

	client := exchange.New(exchange.Config{ClientID: 7, PollInterval: 10 * time.Millisecond}, orders, events, zap.NewNop())
	runner := strategy.NewRunner(strategy.Config{Name: "it", TickInterval: time.Hour}, client, zap.NewNop())

	booked := make(chan portfolio.Trade, 1)
	runner.OnTrade(func(trade portfolio.Trade) { booked <- trade })

	venue := &scriptedVenue{t: t, orders: orders, events: events, lastPrice: 137}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go venue.run(ctx)
	go func() { _ = client.Listen(ctx) }()
	go func() { _ = runner.Run(ctx, &idleStrategy{}) }()

	_, err := runner.Buy(ctx, "MSFT", 5, nil)
	require.NoError(t, err)

	trade := waitForTrade(t, booked)
	assert.True(t, trade.Price.Equal(decimal.NewFromInt(137)))
	assert.Equal(t, int64(5), runner.Quantity("MSFT"))
}

func waitForTrade(t *testing.T, ch <-chan portfolio.Trade) portfolio.Trade {
	t.Helper()
	select {
	case trade := <-ch:
		return trade
	case <-time.After(2 * time.Second):
		t.Fatal("trade never arrived")
		return portfolio.Trade{}
	}
}

// idleStrategy never trades on its own; tests drive orders directly.
type idleStrategy struct{}

func (idleStrategy) Name() string                           { return "idle" }
func (idleStrategy) OnStart(context.Context, *strategy.Runner) error { return nil }
func (idleStrategy) OnStop(*strategy.Runner)                {}
func (idleStrategy) OnFill(context.Context, *strategy.Runner, wire.Fill) {}
func (idleStrategy) OnTick(context.Context, *strategy.Runner, map[string]decimal.Decimal) error {
	return nil
}
