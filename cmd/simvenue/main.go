package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/logging"
	"github.com/algofleet/algofleet/internal/transport"
	"github.com/algofleet/algofleet/internal/wire"
)

// simvenue is a simulated counterparty for local runs: it consumes
// order requests, acks them, and fills them against a random-walk
// tape. Limit orders fill at their limit price, market orders at the
// current simulated price. There is no resting book.
func main() {
	var (
		brokers     = flag.String("brokers", "127.0.0.1:9092", "Kafka broker addresses")
		ordersTopic = flag.String("orders-topic", "venue.orders", "Topic to consume order requests from")
		eventsTopic = flag.String("events-topic", "venue.events", "Topic to publish execution events to")
		seed        = flag.Int64("seed", 42, "Random seed for deterministic fills")
		rejectPct   = flag.Int("reject-pct", 5, "Percentage of orders rejected (0-100)")
		partialPct  = flag.Int("partial-pct", 30, "Percentage of orders filled in two parts (0-100)")
		logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	logger, err := logging.NewLogger("simvenue", *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	brokerList := parseBrokers(*brokers)
	logger.Info("starting simulated venue",
		zap.Strings("brokers", brokerList),
		zap.String("orders_topic", *ordersTopic),
		zap.String("events_topic", *eventsTopic),
		zap.Int64("seed", *seed),
		zap.Int("reject_pct", *rejectPct),
		zap.Int("partial_pct", *partialPct),
	)

	receiver, err := transport.NewKafkaReceiver(
		transport.Endpoint{Brokers: brokerList, Topic: *ordersTopic}, "simvenue-v1", logger)
	if err != nil {
		logger.Fatal("failed to create order consumer", zap.Error(err))
	}
	defer receiver.Close()

	sender, err := transport.NewKafkaSender(
		transport.Endpoint{Brokers: brokerList, Topic: *eventsTopic}, "simvenue", logger)
	if err != nil {
		logger.Fatal("failed to create event producer", zap.Error(err))
	}
	defer sender.Close()

	venue := &simVenue{
		sender:      sender,
		logger:      logger,
		rng:         rand.New(rand.NewSource(*seed)),
		rejectPct:   *rejectPct,
		partialPct:  *partialPct,
		nextOrderID: 1,
		nextSeq:     1,
		tape:        make(map[string]int64),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	heartbeat := time.NewTicker(5 * time.Second)
	defer heartbeat.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				if err := venue.sendHeartbeat(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("heartbeat failed", zap.Error(err))
				}
			}
		}
	}()

	for {
		payload, ok, err := receiver.Poll(ctx, 200*time.Millisecond)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("order poll failed", zap.Error(err))
			continue
		}
		if !ok {
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if err := venue.handle(ctx, payload); err != nil && ctx.Err() == nil {
			logger.Error("failed to handle order", zap.Error(err))
		}
	}

	logger.Info("simulated venue stopped",
		zap.Uint64("orders_seen", venue.ordersSeen),
		zap.Uint64("orders_rejected", venue.ordersRejected),
	)
}

type simVenue struct {
	sender     *transport.KafkaSender
	logger     *zap.Logger
	rng        *rand.Rand
	rejectPct  int
	partialPct int

	nextOrderID uint64
	nextSeq     uint64
	tape        map[string]int64

	ordersSeen     uint64
	ordersRejected uint64
}

func (v *simVenue) handle(ctx context.Context, payload []byte) error {
	env, err := wire.Decode(payload)
	if err != nil {
		v.logger.Warn("dropping malformed order message", zap.Error(err))
		return nil
	}

	switch body := env.Body.(type) {
	case wire.NewOrderRequest:
		v.ordersSeen++
		return v.handleNewOrder(ctx, body)
	case wire.CancelRequest:
		// Orders fill immediately here, so there is never anything
		// resting to cancel.
		v.logger.Debug("ignoring cancel",
			zap.Uint64("order_id", body.OrderID),
			zap.Uint64("client_order_id", body.ClientOrderID),
		)
		return nil
	default:
		v.logger.Debug("ignoring message", zap.String("type", env.Header.Type.String()))
		return nil
	}
}

func (v *simVenue) handleNewOrder(ctx context.Context, req wire.NewOrderRequest) error {
	if req.Symbol == "" || req.Qty == 0 {
		return v.reject(ctx, req, 400, "invalid order")
	}
	if v.rng.Intn(100) < v.rejectPct {
		return v.reject(ctx, req, 503, "no liquidity")
	}

	orderID := v.nextOrderID
	v.nextOrderID++

	if err := v.sendEvent(ctx, wire.MsgAck, wire.Ack{
		ClientOrderID: req.ClientOrderID,
		OrderID:       orderID,
		Symbol:        req.Symbol,
	}); err != nil {
		return err
	}

	price := req.LimitPrice
	if req.OrdType == wire.OrdTypeMarket {
		price = v.tick(req.Symbol)
	}

	if v.partialPct > 0 && req.Qty > 1 && v.rng.Intn(100) < v.partialPct {
		half := req.Qty / 2
		if err := v.sendEvent(ctx, wire.MsgFill, wire.Fill{
			OrderID: orderID, Symbol: req.Symbol, Side: req.Side,
			FillQty: half, FillPrice: price, Complete: false,
		}); err != nil {
			return err
		}
		return v.sendEvent(ctx, wire.MsgFill, wire.Fill{
			OrderID: orderID, Symbol: req.Symbol, Side: req.Side,
			FillQty: req.Qty - half, FillPrice: price, Complete: true,
		})
	}

	return v.sendEvent(ctx, wire.MsgFill, wire.Fill{
		OrderID: orderID, Symbol: req.Symbol, Side: req.Side,
		FillQty: req.Qty, FillPrice: price, Complete: true,
	})
}

func (v *simVenue) reject(ctx context.Context, req wire.NewOrderRequest, code int, reason string) error {
	v.ordersRejected++
	return v.sendEvent(ctx, wire.MsgReject, wire.Reject{
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Info:          wire.RejectInfo{Reason: reason, Code: code},
	})
}

// tick advances the symbol's random-walk price and returns it, seeding
// new symbols at 10000 ticks.
func (v *simVenue) tick(symbol string) int64 {
	price, ok := v.tape[symbol]
	if !ok {
		price = 10000
	}
	price += int64(v.rng.Intn(201)) - 100
	if price < 1 {
		price = 1
	}
	v.tape[symbol] = price
	return price
}

func (v *simVenue) sendHeartbeat(ctx context.Context) error {
	return v.sendEvent(ctx, wire.MsgHeartbeat, nil)
}

func (v *simVenue) sendEvent(ctx context.Context, msgType wire.MsgType, body any) error {
	seq := v.nextSeq
	v.nextSeq++
	payload, err := wire.Encode(wire.Envelope{
		Header: wire.MessageHeader{Version: 1, Type: msgType, Seq: seq},
		Body:   body,
	})
	if err != nil {
		return err
	}
	return v.sender.Send(ctx, payload)
}

func parseBrokers(brokers string) []string {
	brokerList := make([]string, 0)
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}
	return brokerList
}
