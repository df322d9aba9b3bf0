package notify

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// DefaultBufferSize is the per-channel queue length used when none is given.
const DefaultBufferSize = 16

var (
	// ErrChannelFull is returned by Send when the reader has fallen behind.
	ErrChannelFull = errors.New("notification channel is full")

	// ErrChannelClosed is returned by Send after Close.
	ErrChannelClosed = errors.New("notification channel is closed")
)

// Channel is one live connection that can receive events.
type Channel interface {
	ID() string
	// Send must not block.
	Send(event Event) error
}

// StreamChannel is a Channel backed by a bounded Go channel, drained by the
// connection that owns it.
type StreamChannel struct {
	id     string
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

var _ Channel = (*StreamChannel)(nil)

// NewStreamChannel creates a channel with room for size queued events.
func NewStreamChannel(size int) *StreamChannel {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &StreamChannel{
		id: uuid.NewString(),
		ch: make(chan Event, size),
	}
}

func (c *StreamChannel) ID() string { return c.id }

// Send queues event without blocking.
func (c *StreamChannel) Send(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelClosed
	}
	select {
	case c.ch <- event:
		return nil
	default:
		return ErrChannelFull
	}
}

// Events is closed once Close has been called.
func (c *StreamChannel) Events() <-chan Event {
	return c.ch
}

// Close is idempotent.
func (c *StreamChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
