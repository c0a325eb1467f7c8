package hub

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/gullylink/gullylink/pkg/metrics"
)

// sendBufferSize bounds how far a recipient may fall behind before it is
// dropped.
const sendBufferSize = 256

var (
	ErrSendBufferFull = errors.New("send buffer full")
	errClientClosed   = errors.New("connection closed")
)

// client wraps a Conn with an outbound queue drained by writePump, so a
// slow peer only ever delays itself. Send never blocks.
type client struct {
	Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
	closeErr  error
}

func newClient(c Conn) *client {
	return &client{
		Conn: c,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Send queues data for the write pump. It fails when the queue is full or
// the client is closed.
func (c *client) Send(data []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump and closes the underlying connection, which
// also unblocks Receive.
func (c *client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.Conn.Close()
	})
	return c.closeErr
}

// writePump writes queued messages in order until the client is closed or
// a write fails.
func (c *client) writePump(role Role, log *zap.SugaredLogger) {
	for {
		select {
		case msg := <-c.send:
			if err := c.Conn.Send(msg); err != nil {
				metrics.DeliveriesTotal.WithLabelValues(string(role), "failed").Inc()
				log.Warnw("ws_write_failed", "err", err)
				_ = c.Close()
				return
			}
			metrics.DeliveriesTotal.WithLabelValues(string(role), "ok").Inc()
		case <-c.done:
			return
		}
	}
}
