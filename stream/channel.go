package stream

import (
	"errors"
	"io"
	"sync"

	"efficio-api/internal/consts"
)

var errChannelClosed = errors.New("channel closed")

// Channel is a single open server-to-client push connection. Writes are
// serialized by a per-channel mutex so the publisher and the heartbeat loop
// can share the underlying response writer.
type Channel struct {
	userID string
	flush  func()

	mu     sync.Mutex
	w      io.Writer
	closed bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewChannel wraps an open response writer. flush may be nil when the
// transport does not buffer.
func NewChannel(userID string, w io.Writer, flush func()) *Channel {
	return &Channel{
		userID: userID,
		w:      w,
		flush:  flush,
		done:   make(chan struct{}),
	}
}

// UserID returns the identity the channel was opened for.
func (c *Channel) UserID() string { return c.userID }

// Send writes one event frame and flushes it. A transport error leaves the
// channel unusable for future writes.
func (c *Channel) Send(event string, data []byte) error {
	frame := make([]byte, 0, len(consts.SSEEventPrefix)+len(event)+len(consts.SSEDataPrefix)+len(data)+3)
	frame = append(frame, consts.SSEEventPrefix...)
	frame = append(frame, event...)
	frame = append(frame, '\n')
	frame = append(frame, consts.SSEDataPrefix...)
	frame = append(frame, data...)
	frame = append(frame, '\n', '\n')
	return c.write(frame)
}

// Comment writes a comment-only frame, used for keep-alive pings.
func (c *Channel) Comment(text string) error {
	return c.write([]byte(":" + text + "\n\n"))
}

func (c *Channel) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errChannelClosed
	}
	if _, err := c.w.Write(frame); err != nil {
		c.closed = true
		return err
	}
	if c.flush != nil {
		c.flush()
	}
	return nil
}

// Close marks the channel dead and signals Done. Safe to call more than once
// and from any goroutine.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
}

// Done is closed when the channel has been torn down, whichever side
// triggered it.
func (c *Channel) Done() <-chan struct{} { return c.done }
