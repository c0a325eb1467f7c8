package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/gullylink/gullylink/pkg/hub"
)

// wsConn adapts a gorilla connection to hub.Conn. gorilla allows one
// concurrent writer, so sends are serialized; reads happen only on the
// handler goroutine.
type wsConn struct {
	conn         *websocket.Conn
	id           string
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newWSConn(conn *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{conn: conn, id: conn.RemoteAddr().String(), writeTimeout: writeTimeout}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive blocks without a deadline until the next data frame arrives or
// the connection goes away.
func (c *wsConn) Receive() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		// WriteControl is safe to call concurrently with Send.
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*wsConn, bool) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Warnw("ws_upgrade_failed", "remote", r.RemoteAddr, "err", err)
		return nil, false
	}
	return newWSConn(conn, s.cfg.WebSocket.WriteTimeout), true
}

// handleVendorSocket serves /ws/vendor/{vendor_id} for the lifetime of the connection
func (s *Server) handleVendorSocket(w http.ResponseWriter, r *http.Request) {
	vendorID := mux.Vars(r)["vendor_id"]
	conn, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	if err := s.vendors.Serve(r.Context(), conn, vendorID); err != nil {
		s.log.Errorw("vendor_socket_failed", "vendor_id", vendorID, "err", err)
	}
}

// handleUserSocket serves /ws/user for the lifetime of the connection
func (s *Server) handleUserSocket(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	if err := s.users.Serve(r.Context(), conn); err != nil {
		s.log.Errorw("user_socket_failed", "err", err)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.API.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

var _ hub.Conn = (*wsConn)(nil)
