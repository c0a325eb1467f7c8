package orders

import (
	"context"

	"github.com/gullylink/gullylink/pkg/hub"
)

// Status is the lifecycle state of an order. accepted and rejected are
// terminal, but the store does not enforce it.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Item struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

type Order struct {
	ID           string       `json:"id"`
	VendorID     string       `json:"vendor_id"`
	UserLocation hub.Location `json:"user_location"`
	Items        []Item       `json:"items"`
	Total        float64      `json:"total"`
	Status       Status       `json:"status"`
}

// PlaceOrderRequest is the client payload for a new order. Pointers make
// absent fields distinguishable from zero values.
type PlaceOrderRequest struct {
	VendorID     string        `json:"vendor_id" validate:"required"`
	UserLocation *hub.Location `json:"user_location" validate:"required"`
	Items        []Item        `json:"items" validate:"required,min=1,dive"`
	Total        *float64      `json:"total" validate:"required,gte=0"`
}

// VendorProfile is static vendor metadata. The hub never reads it.
type VendorProfile struct {
	ID       string        `json:"id" validate:"required"`
	Name     string        `json:"name" validate:"required"`
	IconType string        `json:"icon_type" validate:"required"`
	Location *hub.Location `json:"location" validate:"required"`
	Menu     []Item        `json:"menu" validate:"required,dive"`
}

// Store is the external document store for orders and vendor profiles.
// Lookups of unknown ids return ErrNotFound.
type Store interface {
	// InsertOrder persists o and returns the identity it assigned.
	InsertOrder(ctx context.Context, o Order) (string, error)
	UpdateOrderStatus(ctx context.Context, id string, status Status) error
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrdersByVendor(ctx context.Context, vendorID string) ([]Order, error)

	UpsertVendor(ctx context.Context, v VendorProfile) error
	GetVendor(ctx context.Context, id string) (VendorProfile, error)
}

// Broadcaster delivers a message to every live connection of a role.
type Broadcaster interface {
	BroadcastTo(role hub.Role, message any) (int, error)
}
