package transport

import (
	"context"
	"sync"
	"time"

	"github.com/algofleet/algofleet/internal/chaos"
)

// Pipe is an in-process unidirectional channel implementing both the
// Sender and Receiver ends. Tests and paper-trading runs wire two
// pipes between a client and a simulated venue instead of Kafka.
type Pipe struct {
	ch     chan []byte
	faults *chaos.Chaos
	name   string

	mu     sync.Mutex
	closed bool
}

// NewPipe creates a pipe with the given buffer capacity.
func NewPipe(name string, capacity int) *Pipe {
	if capacity <= 0 {
		capacity = 64
	}
	return &Pipe{ch: make(chan []byte, capacity), name: name}
}

// WithFaults attaches deterministic fault injection to the send side.
func (p *Pipe) WithFaults(faults *chaos.Chaos) *Pipe {
	p.faults = faults
	return p
}

// Send delivers one message, or discards it when fault injection says
// so (a dropped message is not an error: the channel is best-effort).
func (p *Pipe) Send(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if p.faults != nil {
		if p.faults.MaybeDrop(p.name) {
			return nil
		}
		if err := p.faults.MaybeDelay(ctx, p.name); err != nil {
			return err
		}
	}

	select {
	case p.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poll waits up to the given interval for the next message.
func (p *Pipe) Poll(ctx context.Context, wait time.Duration) ([]byte, bool, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case payload, ok := <-p.ch:
		if !ok {
			return nil, false, ErrClosed
		}
		return payload, true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close closes the pipe. Further sends fail with ErrClosed; buffered
// messages remain readable until drained.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}
