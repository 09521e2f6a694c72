package chaos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMaybeDrop_DisabledNeverDrops(t *testing.T) {
	c := New(&Config{Enabled: false, DropPct: 100, Seed: 1}, zap.NewNop())
	for i := 0; i < 100; i++ {
		assert.False(t, c.MaybeDrop("orders"))
	}
}

func TestMaybeDrop_FullRateAlwaysDrops(t *testing.T) {
	c := New(&Config{Enabled: true, DropPct: 100, Seed: 1}, zap.NewNop())
	for i := 0; i < 100; i++ {
		assert.True(t, c.MaybeDrop("orders"))
	}
}

func TestMaybeDrop_SeededSequenceIsDeterministic(t *testing.T) {
	a := New(&Config{Enabled: true, DropPct: 50, Seed: 7}, zap.NewNop())
	b := New(&Config{Enabled: true, DropPct: 50, Seed: 7}, zap.NewNop())
	for i := 0; i < 200; i++ {
		assert.Equal(t, a.MaybeDrop("orders"), b.MaybeDrop("orders"))
	}
}

func TestMaybeDelay_HonorsCancellation(t *testing.T) {
	c := New(&Config{Enabled: true, DelayMsMin: 10_000, DelayMsMax: 10_000, Seed: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := c.MaybeDelay(ctx, "orders")
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMaybeDelay_ZeroRangeIsNoop(t *testing.T) {
	c := New(&Config{Enabled: true, Seed: 1}, zap.NewNop())
	require.NoError(t, c.MaybeDelay(context.Background(), "orders"))
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	t.Setenv("CHAOS_ENABLED", "true")
	t.Setenv("CHAOS_DROP_PCT", "25")
	t.Setenv("CHAOS_DELAY_MS_MIN", "5")
	t.Setenv("CHAOS_DELAY_MS_MAX", "50")
	t.Setenv("CHAOS_SEED", "99")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 25, cfg.DropPct)
	assert.Equal(t, 5, cfg.DelayMsMin)
	assert.Equal(t, 50, cfg.DelayMsMax)
	assert.Equal(t, int64(99), cfg.Seed)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 0, cfg.DropPct)
	assert.Equal(t, int64(1), cfg.Seed)
}
