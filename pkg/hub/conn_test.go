package hub

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

var errFakeClosed = errors.New("fake conn closed")

// fakeConn is an in-memory Conn. Messages pushed to inbox are returned by
// Receive; closing inbox ends the receive loop like a remote close. A non-nil
// block stalls every Send until it is closed.
type fakeConn struct {
	id      string
	inbox   chan []byte
	sendErr error
	block   chan struct{}

	mu   sync.Mutex
	sent [][]byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, inbox: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(data []byte) error {
	select {
	case <-c.closed:
		return errFakeClosed
	default:
	}
	if c.block != nil {
		select {
		case <-c.block:
		case <-c.closed:
			return errFakeClosed
		}
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Receive() ([]byte, error) {
	select {
	case msg, ok := <-c.inbox:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	case <-c.closed:
		return nil, errFakeClosed
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
