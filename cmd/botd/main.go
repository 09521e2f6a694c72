package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/config"
	"github.com/algofleet/algofleet/internal/dashboard"
	"github.com/algofleet/algofleet/internal/exchange"
	"github.com/algofleet/algofleet/internal/journal"
	"github.com/algofleet/algofleet/internal/logging"
	"github.com/algofleet/algofleet/internal/observability"
	"github.com/algofleet/algofleet/internal/portfolio"
	"github.com/algofleet/algofleet/internal/strategy"
	"github.com/algofleet/algofleet/internal/transport"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig("botd")

	// Initialize logger
	logger, err := logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting botd",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("kafka_brokers", cfg.KafkaBrokers),
		zap.String("orders_topic", cfg.OrdersTopic),
		zap.String("events_topic", cfg.EventsTopic),
		zap.Uint64("client_id", cfg.ClientID),
		zap.Strings("symbols", cfg.Symbols),
	)

	// Open trade journal
	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		logger.Fatal("failed to open trade journal", zap.Error(err))
	}
	defer jnl.Close()
	logger.Info("trade journal opened", zap.String("path", cfg.JournalPath))

	// Create health checker
	healthChecker := observability.NewHealthChecker(logger)

	httpErrCh := make(chan error, 1)
	go func() {
		if err := healthChecker.StartHTTPServer(cfg.HTTPAddr()); err != nil && err != http.ErrServerClosed {
			httpErrCh <- err
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One venue session per strategy: each gets its own client id,
	// consumer group, and portfolio.
	brokers := cfg.Brokers()
	bots := []struct {
		name  string
		strat strategy.Strategy
	}{
		{"momentum", strategy.NewMomentum(strategy.MomentumConfig{Symbols: cfg.Symbols})},
		{"mean-reversion", strategy.NewMeanReversion(strategy.MeanReversionConfig{Symbols: cfg.Symbols})},
	}
	if len(cfg.Symbols) >= 2 {
		bots = append(bots, struct {
			name  string
			strat strategy.Strategy
		}{"pairs", strategy.NewPairs(strategy.PairsConfig{SymbolA: cfg.Symbols[0], SymbolB: cfg.Symbols[1]})})
	}

	var runners []*strategy.Runner
	errCh := make(chan error, len(bots)*2+1)

	for i, bot := range bots {
		bot := bot
		clientID := uint32(cfg.ClientID) + uint32(i)

		sender, err := transport.NewKafkaSender(
			transport.Endpoint{Brokers: brokers, Topic: cfg.OrdersTopic},
			fmt.Sprintf("client-%d", clientID), logger)
		if err != nil {
			logger.Fatal("failed to create order producer", zap.Error(err))
		}
		defer sender.Close()

		receiver, err := transport.NewKafkaReceiver(
			transport.Endpoint{Brokers: brokers, Topic: cfg.EventsTopic},
			fmt.Sprintf("botd-%d", clientID), logger)
		if err != nil {
			logger.Fatal("failed to create event consumer", zap.Error(err))
		}
		defer receiver.Close()

		client := exchange.New(exchange.Config{ClientID: clientID}, sender, receiver, logger)
		runner := strategy.NewRunner(strategy.Config{
			Name:         bot.name,
			TickInterval: cfg.TickInterval,
		}, client, logger)
		runner.OnTrade(func(trade portfolio.Trade) {
			// Background context so trades landing during shutdown
			// still reach the journal.
			if err := jnl.Append(context.Background(), trade); err != nil {
				logger.Error("failed to journal trade",
					zap.String("trade_id", trade.ID),
					zap.Error(err),
				)
			}
		})
		runners = append(runners, runner)

		go func() {
			err := client.Listen(ctx)
			// A dead listener means events are no longer being
			// consumed; report not-ready until the process restarts.
			healthChecker.SetListenerLive(false)
			if err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("listener for %s failed: %w", bot.name, err)
			}
		}()
		go func(strat strategy.Strategy) {
			if err := runner.Run(ctx, strat); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("runner %s failed: %w", bot.name, err)
			}
		}(bot.strat)
	}

	healthChecker.SetTransportReady(true)
	healthChecker.SetListenerLive(true)

	// Start dashboard
	dash := dashboard.New(dashboard.Config{}, os.Stdout, runners, logger)
	go func() {
		if err := dash.Run(ctx); err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("dashboard failed: %w", err)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-httpErrCh:
		logger.Error("HTTP server error", zap.Error(err))
	case err := <-errCh:
		logger.Error("component error", zap.Error(err))
	}

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := healthChecker.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down health checker", zap.Error(err))
	}

	logger.Info("botd stopped")
}
