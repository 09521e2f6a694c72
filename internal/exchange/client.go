// Package exchange implements the client side of the venue
// connection: order submission and cancellation, correlation of
// client-assigned order ids with venue-assigned ids, per-order
// lifecycle tracking, and fan-out of typed inbound events to
// registered observers.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/transport"
	"github.com/algofleet/algofleet/internal/wire"
)

// PendingOrder is the client's view of an order awaiting a terminal
// event (a reject or a completing fill).
type PendingOrder struct {
	Symbol string
	Side   wire.Side
	Qty    uint64
}

// Observer callbacks for the three inbound event types. Handlers run
// on the listener goroutine, outside the client's critical section, so
// they may call back into the client.
type (
	AckHandler    func(wire.Ack)
	RejectHandler func(wire.Reject)
	FillHandler   func(wire.Fill)
)

// Config holds client construction parameters.
type Config struct {
	// ClientID identifies this session to the venue.
	ClientID uint32
	// PollInterval bounds each wait on the inbound channel. The
	// listener checks for shutdown between polls, so this is also the
	// worst-case shutdown latency. Defaults to 100ms.
	PollInterval time.Duration
}

// Client talks to the venue over a pair of unidirectional channels.
//
// A submitted order moves through
// SUBMITTED → {ACKED → {PARTIALLY_FILLED →}* FILLED} | REJECTED
// as tracked by the pending table: an entry appears at send time and
// is removed by a reject or a completing fill. An ack records the
// venue id but keeps the order pending.
type Client struct {
	cfg      Config
	sender   transport.Sender
	receiver transport.Receiver
	logger   *zap.Logger

	// mu guards the counters and all three correlation maps; they
	// mutate together or not at all within one call so concurrent
	// submits can never assign duplicate or out-of-order ids.
	mu                sync.Mutex
	nextClientOrderID uint64
	nextSeq           uint64
	pending           map[uint64]PendingOrder
	venueIDByClient   map[uint64]uint64
	clientIDByVenue   map[uint64]uint64

	obsMu           sync.Mutex
	ackObservers    []AckHandler
	rejectObservers []RejectHandler
	fillObservers   []FillHandler
}

// New creates a client over the given channels. It does not start the
// listener; call Listen in its own goroutine.
func New(cfg Config, sender transport.Sender, receiver transport.Receiver, logger *zap.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Client{
		cfg:               cfg,
		sender:            sender,
		receiver:          receiver,
		logger:            logger,
		nextClientOrderID: 1,
		nextSeq:           1,
		pending:           make(map[uint64]PendingOrder),
		venueIDByClient:   make(map[uint64]uint64),
		clientIDByVenue:   make(map[uint64]uint64),
	}
}

// OnAck registers an ack observer. Observers are invoked in
// registration order.
func (c *Client) OnAck(h AckHandler) {
	c.obsMu.Lock()
	c.ackObservers = append(c.ackObservers, h)
	c.obsMu.Unlock()
}

// OnReject registers a reject observer.
func (c *Client) OnReject(h RejectHandler) {
	c.obsMu.Lock()
	c.rejectObservers = append(c.rejectObservers, h)
	c.obsMu.Unlock()
}

// OnFill registers a fill observer.
func (c *Client) OnFill(h FillHandler) {
	c.obsMu.Lock()
	c.fillObservers = append(c.fillObservers, h)
	c.obsMu.Unlock()
}

// SubmitLimit places a limit order and returns the allocated client
// order id. Acceptance is asynchronous: the returned id is pending
// until the venue acks, rejects, or fills it.
func (c *Client) SubmitLimit(ctx context.Context, symbol string, side wire.Side, qty uint64, price int64, tif wire.TimeInForce) (uint64, error) {
	return c.submit(ctx, symbol, side, wire.OrdTypeLimit, qty, price, tif)
}

// SubmitMarket places a market order and returns the allocated client
// order id.
func (c *Client) SubmitMarket(ctx context.Context, symbol string, side wire.Side, qty uint64) (uint64, error) {
	return c.submit(ctx, symbol, side, wire.OrdTypeMarket, qty, 0, wire.TifDay)
}

func (c *Client) submit(ctx context.Context, symbol string, side wire.Side, ordType wire.OrdType, qty uint64, price int64, tif wire.TimeInForce) (uint64, error) {
	c.mu.Lock()
	clientOrderID := c.nextClientOrderID
	c.nextClientOrderID++
	seq := c.nextSeq
	c.nextSeq++
	c.mu.Unlock()

	env := wire.NewOrderEnvelope(c.cfg.ClientID, seq, wire.NewOrderRequest{
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Side:          side,
		OrdType:       ordType,
		Qty:           qty,
		LimitPrice:    price,
		Tif:           tif,
	})
	payload, err := wire.Encode(env)
	if err != nil {
		return 0, err
	}
	if err := c.sender.Send(ctx, payload); err != nil {
		return 0, fmt.Errorf("failed to send order %d: %w", clientOrderID, err)
	}

	c.mu.Lock()
	c.pending[clientOrderID] = PendingOrder{Symbol: symbol, Side: side, Qty: qty}
	c.mu.Unlock()

	c.logger.Debug("order submitted",
		zap.Uint64("client_order_id", clientOrderID),
		zap.String("symbol", symbol),
		zap.String("side", side.String()),
		zap.String("ord_type", ordType.String()),
		zap.Uint64("qty", qty),
		zap.Int64("limit_price", price),
	)
	return clientOrderID, nil
}

// Cancel requests cancellation of a previously submitted order. When
// no ack has arrived yet the venue order id is unknown; the request
// then omits order_id and carries only the client order id, leaving it
// to the venue to match by that. A cancel racing a fill or reject is
// expected and harmless.
func (c *Client) Cancel(ctx context.Context, symbol string, clientOrderID uint64) error {
	c.mu.Lock()
	venueID := c.venueIDByClient[clientOrderID]
	seq := c.nextSeq
	c.nextSeq++
	c.mu.Unlock()

	env := wire.CancelEnvelope(c.cfg.ClientID, seq, wire.CancelRequest{
		Symbol:        symbol,
		OrderID:       venueID,
		ClientOrderID: clientOrderID,
	})
	payload, err := wire.Encode(env)
	if err != nil {
		return err
	}
	if err := c.sender.Send(ctx, payload); err != nil {
		return fmt.Errorf("failed to send cancel for order %d: %w", clientOrderID, err)
	}

	c.logger.Debug("cancel submitted",
		zap.Uint64("client_order_id", clientOrderID),
		zap.Uint64("venue_order_id", venueID),
		zap.String("symbol", symbol),
	)
	return nil
}

// PendingOrders returns a point-in-time copy of the pending table.
func (c *Client) PendingOrders() map[uint64]PendingOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uint64]PendingOrder, len(c.pending))
	for id, p := range c.pending {
		out[id] = p
	}
	return out
}

// VenueOrderID returns the venue-assigned id for a client order id, if
// an ack has arrived.
func (c *Client) VenueOrderID(clientOrderID uint64) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.venueIDByClient[clientOrderID]
	return id, ok
}

// Listen runs the inbound dispatch loop until the context is canceled
// or the inbound channel closes. Decode failures are logged and the
// malformed message dropped; the loop continues.
func (c *Client) Listen(ctx context.Context) error {
	c.logger.Info("listener started", zap.Uint32("client_id", c.cfg.ClientID))
	for {
		payload, ok, err := c.receiver.Poll(ctx, c.cfg.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("listener stopping", zap.Uint32("client_id", c.cfg.ClientID))
				return ctx.Err()
			}
			if errors.Is(err, transport.ErrClosed) {
				c.logger.Info("inbound channel closed", zap.Uint32("client_id", c.cfg.ClientID))
				return err
			}
			c.logger.Error("inbound poll failed", zap.Error(err))
			continue
		}
		if !ok {
			// No message within the poll interval: a normal no-op
			// iteration that lets us notice cancellation promptly.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		c.handle(payload)
	}
}

// handle updates correlation state for one inbound message, then fans
// it out to observers. State mutation happens under the lock; dispatch
// happens after releasing it so an observer can call back into the
// client without deadlocking.
//
// The inbound channel may be shared by several sessions (each consumer
// group sees the venue's full event stream), so events that do not
// correlate with an order this client submitted are dropped: acks and
// rejects must match a pending client order id, fills a venue order id
// learned from one of our acks. Client order id spaces overlap across
// sessions; without this filter one bot would book its neighbors'
// trades.
func (c *Client) handle(payload []byte) {
	env, err := wire.Decode(payload)
	if err != nil {
		c.logger.Warn("dropping malformed inbound message", zap.Error(err))
		return
	}

	switch body := env.Body.(type) {
	case wire.Ack:
		c.mu.Lock()
		if _, owned := c.pending[body.ClientOrderID]; !owned {
			c.mu.Unlock()
			c.logger.Debug("ignoring ack for foreign order",
				zap.Uint64("client_order_id", body.ClientOrderID),
			)
			return
		}
		c.venueIDByClient[body.ClientOrderID] = body.OrderID
		c.clientIDByVenue[body.OrderID] = body.ClientOrderID
		c.mu.Unlock()

		c.logger.Debug("order acked",
			zap.Uint64("client_order_id", body.ClientOrderID),
			zap.Uint64("venue_order_id", body.OrderID),
		)
		for _, h := range c.snapshotAckObservers() {
			h(body)
		}

	case wire.Reject:
		c.mu.Lock()
		if _, owned := c.pending[body.ClientOrderID]; !owned {
			c.mu.Unlock()
			c.logger.Debug("ignoring reject for foreign order",
				zap.Uint64("client_order_id", body.ClientOrderID),
			)
			return
		}
		delete(c.pending, body.ClientOrderID)
		c.mu.Unlock()

		c.logger.Info("order rejected",
			zap.Uint64("client_order_id", body.ClientOrderID),
			zap.String("symbol", body.Symbol),
			zap.String("reason", body.Info.Reason),
			zap.Int("code", body.Info.Code),
		)
		for _, h := range c.snapshotRejectObservers() {
			h(body)
		}

	case wire.Fill:
		c.mu.Lock()
		clientOrderID, owned := c.clientIDByVenue[body.OrderID]
		if !owned {
			c.mu.Unlock()
			c.logger.Debug("ignoring fill for foreign order",
				zap.Uint64("venue_order_id", body.OrderID),
			)
			return
		}
		if body.Complete {
			delete(c.pending, clientOrderID)
		}
		c.mu.Unlock()

		c.logger.Debug("fill received",
			zap.Uint64("venue_order_id", body.OrderID),
			zap.String("symbol", body.Symbol),
			zap.Uint64("fill_qty", body.FillQty),
			zap.Int64("fill_price", body.FillPrice),
			zap.Bool("complete", body.Complete),
		)
		for _, h := range c.snapshotFillObservers() {
			h(body)
		}

	default:
		// Heartbeats and protocol extensions this client does not
		// understand.
		c.logger.Debug("ignoring inbound message", zap.String("type", env.Header.Type.String()))
	}
}

func (c *Client) snapshotAckObservers() []AckHandler {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	return append([]AckHandler(nil), c.ackObservers...)
}

func (c *Client) snapshotRejectObservers() []RejectHandler {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	return append([]RejectHandler(nil), c.rejectObservers...)
}

func (c *Client) snapshotFillObservers() []FillHandler {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	return append([]FillHandler(nil), c.fillObservers...)
}
