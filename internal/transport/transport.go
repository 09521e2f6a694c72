// Package transport provides the two unidirectional message channels
// between a client and the venue: an outbound push channel and an
// inbound pull channel. Each channel delivers opaque byte messages
// with best-effort ordering per direction; nothing is guaranteed
// across the two directions.
package transport

import (
	"context"
	"errors"
	"time"
)

var (
	ErrClosed = errors.New("transport closed")
)

// Sender is the outbound (client → venue) channel.
type Sender interface {
	// Send publishes one opaque message.
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Receiver is the inbound (venue → client) channel.
type Receiver interface {
	// Poll waits up to the given interval for the next message.
	// Absence of a message within the interval is not an error; it
	// returns ok=false so the caller can check for shutdown and poll
	// again.
	Poll(ctx context.Context, wait time.Duration) (payload []byte, ok bool, err error)
	Close() error
}
