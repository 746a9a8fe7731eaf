// Package session provides player session tracking, room registry, and
// occupancy management for the game backend.
package session

import (
	"fmt"
	"sync"
)

// Outbox routes server-to-player messages to a Go channel, bridging the
// session system to the WebSocket write pump. Pushes never block: a full
// buffer is reported as an error and the frame is dropped.
type Outbox struct {
	id     string
	frames chan []byte
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for the given player or connection ID.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an Outbox with an open frames channel.
func NewOutbox(id string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		id:     id,
		frames: make(chan []byte, bufferSize),
	}
}

// ID returns the owning identifier.
func (o *Outbox) ID() string {
	return o.id
}

// Push enqueues an encoded frame for delivery.
//
// Postcondition: The frame is enqueued, or an error if the outbox is closed or full.
func (o *Outbox) Push(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.id)
	}
	select {
	case o.frames <- data:
		return nil
	default:
		return fmt.Errorf("outbox %s buffer full", o.id)
	}
}

// Frames returns the read-only frame channel. The write pump drains this
// channel and forwards each frame to the socket.
func (o *Outbox) Frames() <-chan []byte {
	return o.frames
}

// Close marks the outbox as closed and closes the frame channel, which ends
// the write pump. Safe to call more than once.
//
// Postcondition: Further Push calls return an error.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.frames)
	}
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
