// Package chaos injects deterministic transport faults: dropped and
// delayed messages on the in-process pipe channels. It exists to
// exercise the client's tolerance of best-effort delivery in tests and
// paper-trading runs; production Kafka channels never wrap it.
package chaos

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Chaos provides deterministic failure injection for a transport
// channel.
type Chaos struct {
	cfg    *Config
	logger *zap.Logger
	rng    *rand.Rand
	mu     sync.Mutex
}

// New creates a Chaos instance seeded from the config.
func New(cfg *Config, logger *zap.Logger) *Chaos {
	return &Chaos{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// MaybeDrop returns true if the message on the given channel should be
// silently discarded.
func (c *Chaos) MaybeDrop(channel string) bool {
	if !c.cfg.Enabled || c.cfg.DropPct == 0 {
		return false
	}

	c.mu.Lock()
	drop := c.rng.Intn(100) < c.cfg.DropPct
	c.mu.Unlock()

	if drop {
		c.logger.Info("chaos drop injected", zap.String("channel", channel))
	}
	return drop
}

// MaybeDelay sleeps for a random interval within the configured range
// before delivery, honoring context cancellation.
func (c *Chaos) MaybeDelay(ctx context.Context, channel string) error {
	if !c.cfg.Enabled {
		return nil
	}
	if c.cfg.DelayMsMin == 0 && c.cfg.DelayMsMax == 0 {
		return nil
	}

	c.mu.Lock()
	var delayMs int
	if c.cfg.DelayMsMin == c.cfg.DelayMsMax {
		delayMs = c.cfg.DelayMsMin
	} else {
		delayMs = c.cfg.DelayMsMin + c.rng.Intn(c.cfg.DelayMsMax-c.cfg.DelayMsMin+1)
	}
	c.mu.Unlock()

	if delayMs == 0 {
		return nil
	}

	c.logger.Debug("chaos delay injected",
		zap.String("channel", channel),
		zap.Int("delay_ms", delayMs),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(delayMs) * time.Millisecond):
		return nil
	}
}
