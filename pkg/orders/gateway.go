package orders

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gullylink/gullylink/pkg/hub"
	"github.com/gullylink/gullylink/pkg/metrics"
	"github.com/gullylink/gullylink/pkg/util"
)

// Gateway accepts orders from users and status decisions from vendors.
//
// Persistence and broadcast are sequential, not atomic: an order is always
// stored before vendors hear about it, and a crash in between leaves a stored
// order that vendors must discover by polling ListVendorOrders.
type Gateway struct {
	store       Store
	broadcaster Broadcaster
	log         *zap.SugaredLogger
}

func NewGateway(store Store, broadcaster Broadcaster, log *zap.SugaredLogger) *Gateway {
	return &Gateway{store: store, broadcaster: broadcaster, log: util.OrNop(log)}
}

// PlaceOrder validates req, persists it as a pending order and announces it
// to every connected vendor. It returns the identity assigned by the store.
// Having no vendor online is not an error.
func (g *Gateway) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (string, error) {
	if err := validateStruct(req); err != nil {
		metrics.OrdersTotal.WithLabelValues("place", "invalid").Inc()
		return "", err
	}

	order := Order{
		VendorID:     req.VendorID,
		UserLocation: *req.UserLocation,
		Items:        req.Items,
		Total:        *req.Total,
		Status:       StatusPending,
	}

	id, err := g.store.InsertOrder(ctx, order)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("place", "error").Inc()
		return "", fmt.Errorf("insert order: %w", err)
	}
	order.ID = id

	delivered, err := g.broadcaster.BroadcastTo(hub.RoleVendor, hub.NewOrderEvent{Type: hub.TypeNewOrder, Order: order})
	if err != nil {
		// The order is already stored; the caller still gets its id.
		g.log.Errorw("new_order_broadcast_failed", "order_id", id, "err", err)
	}
	metrics.OrdersTotal.WithLabelValues("place", "ok").Inc()
	g.log.Infow("order_placed", "order_id", id, "vendor_id", order.VendorID, "total", order.Total, "vendors_notified", delivered)

	return id, nil
}

// UpdateStatus records a vendor's decision. The previous status is not
// checked and users are not notified.
func (g *Gateway) UpdateStatus(ctx context.Context, orderID, status string) error {
	s, err := ParseStatus(status)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("update_status", "invalid").Inc()
		return err
	}

	if err := g.store.UpdateOrderStatus(ctx, orderID, s); err != nil {
		metrics.OrdersTotal.WithLabelValues("update_status", "error").Inc()
		return fmt.Errorf("update order %s: %w", orderID, err)
	}
	metrics.OrdersTotal.WithLabelValues("update_status", "ok").Inc()
	g.log.Infow("order_status_updated", "order_id", orderID, "status", s)
	return nil
}

func (g *Gateway) GetOrder(ctx context.Context, orderID string) (Order, error) {
	return g.store.GetOrder(ctx, orderID)
}

// ListVendorOrders returns every stored order addressed to vendorID, so a
// vendor that was offline can catch up.
func (g *Gateway) ListVendorOrders(ctx context.Context, vendorID string) ([]Order, error) {
	return g.store.ListOrdersByVendor(ctx, vendorID)
}

func (g *Gateway) UpsertVendor(ctx context.Context, v VendorProfile) error {
	if err := validateStruct(v); err != nil {
		return err
	}
	if err := g.store.UpsertVendor(ctx, v); err != nil {
		return fmt.Errorf("upsert vendor %s: %w", v.ID, err)
	}
	g.log.Infow("vendor_upserted", "vendor_id", v.ID, "icon_type", v.IconType)
	return nil
}

func (g *Gateway) GetVendor(ctx context.Context, vendorID string) (VendorProfile, error) {
	return g.store.GetVendor(ctx, vendorID)
}
