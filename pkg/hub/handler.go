package hub

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/gullylink/gullylink/pkg/metrics"
	"github.com/gullylink/gullylink/pkg/util"
)

// VendorHandler owns the receive loop of vendor connections: every
// well-formed location_update is re-tagged and broadcast to users.
type VendorHandler struct {
	registry   *Registry
	dispatcher *Dispatcher
	log        *zap.SugaredLogger
}

func NewVendorHandler(registry *Registry, dispatcher *Dispatcher, log *zap.SugaredLogger) *VendorHandler {
	return &VendorHandler{registry: registry, dispatcher: dispatcher, log: util.OrNop(log)}
}

// Serve registers conn under RoleVendor and blocks until the connection
// fails or ctx is cancelled. conn is unregistered and closed on return.
func (h *VendorHandler) Serve(ctx context.Context, conn Conn, vendorID string) error {
	return serve(ctx, h.registry, h.log, conn, RoleVendor, func(msg []byte) {
		var update LocationUpdate
		if err := json.Unmarshal(msg, &update); err != nil {
			metrics.MalformedMessagesTotal.Inc()
			h.log.Debugw("vendor_message_malformed", "vendor_id", vendorID, "err", err)
			return
		}
		ev, ok := update.locationEvent(vendorID)
		if !ok {
			if update.Type == "" || update.Location == nil {
				metrics.MalformedMessagesTotal.Inc()
			}
			h.log.Debugw("vendor_message_ignored", "vendor_id", vendorID, "type", update.Type)
			return
		}
		if _, err := h.dispatcher.BroadcastTo(RoleUser, ev); err != nil {
			h.log.Errorw("vendor_moved_broadcast_failed", "vendor_id", vendorID, "err", err)
		}
	}, "vendor_id", vendorID)
}

// UserHandler keeps user connections registered so they receive pushes.
// Anything a user sends is discarded.
type UserHandler struct {
	registry *Registry
	log      *zap.SugaredLogger
}

func NewUserHandler(registry *Registry, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{registry: registry, log: util.OrNop(log)}
}

func (h *UserHandler) Serve(ctx context.Context, conn Conn) error {
	return serve(ctx, h.registry, h.log, conn, RoleUser, func([]byte) {})
}

// serve runs the Connecting -> Open -> Closed lifecycle shared by both roles.
// The registry holds a queued client rather than conn itself, so broadcasts
// never wait on this peer's writes.
func serve(ctx context.Context, registry *Registry, log *zap.SugaredLogger, conn Conn, role Role, onMessage func([]byte), kv ...any) error {
	c := newClient(conn)
	if err := registry.Register(c, role); err != nil {
		_ = c.Close()
		return err
	}
	log = log.With(append([]any{"conn", conn.ID(), "role", role}, kv...)...)
	log.Infow("ws_open", "total", registry.Count(role))

	go c.writePump(role, log)

	// Closing the connection is the only way to unblock Receive.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer func() {
		stop()
		registry.Unregister(c, role)
		_ = c.Close()
		log.Infow("ws_closed", "total", registry.Count(role))
	}()

	for {
		msg, err := c.Receive()
		if err != nil {
			log.Debugw("ws_receive_ended", "err", err)
			return nil
		}
		onMessage(msg)
	}
}
