package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/algofleet/algofleet/internal/chaos"
)

func TestPipe_SendAndPoll(t *testing.T) {
	p := NewPipe("test", 4)
	ctx := context.Background()

	require.NoError(t, p.Send(ctx, []byte("one")))
	require.NoError(t, p.Send(ctx, []byte("two")))

	payload, ok, err := p.Poll(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), payload)

	payload, ok, err = p.Poll(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("two"), payload)
}

func TestPipe_PollTimesOutEmpty(t *testing.T) {
	p := NewPipe("test", 4)

	start := time.Now()
	_, ok, err := p.Poll(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPipe_PollHonorsCancellation(t *testing.T) {
	p := NewPipe("test", 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Poll(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipe_CloseDrainsThenErrors(t *testing.T) {
	p := NewPipe("test", 4)
	ctx := context.Background()

	require.NoError(t, p.Send(ctx, []byte("buffered")))
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Send(ctx, []byte("late")), ErrClosed)

	payload, ok, err := p.Poll(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok, "buffered messages stay readable after close")
	assert.Equal(t, []byte("buffered"), payload)

	_, _, err = p.Poll(ctx, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPipe_FaultInjectionDropsSilently(t *testing.T) {
	faults := chaos.New(&chaos.Config{Enabled: true, DropPct: 100, Seed: 1}, zap.NewNop())
	p := NewPipe("test", 4).WithFaults(faults)
	ctx := context.Background()

	// Every send "succeeds" but nothing arrives.
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Send(ctx, []byte("doomed")))
	}
	_, ok, err := p.Poll(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPipe_FaultInjectionPartialDrop(t *testing.T) {
	faults := chaos.New(&chaos.Config{Enabled: true, DropPct: 50, Seed: 42}, zap.NewNop())
	p := NewPipe("test", 256).WithFaults(faults)
	ctx := context.Background()

	const sent = 200
	for i := 0; i < sent; i++ {
		require.NoError(t, p.Send(ctx, []byte("maybe")))
	}

	delivered := 0
	for {
		_, ok, err := p.Poll(ctx, 5*time.Millisecond)
		require.NoError(t, err)
		if !ok {
			break
		}
		delivered++
	}
	assert.Greater(t, delivered, 0)
	assert.Less(t, delivered, sent)
}
