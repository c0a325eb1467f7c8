package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gullylink/gullylink/pkg/orders"
)

// InMemoryStore keeps orders and vendors in process memory. Used for
// DB_PATH=memory and in tests.
type InMemoryStore struct {
	mu      sync.Mutex
	orders  map[string]orders.Order
	byVend  map[string][]string
	vendors map[string]orders.VendorProfile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		orders:  make(map[string]orders.Order),
		byVend:  make(map[string][]string),
		vendors: make(map[string]orders.VendorProfile),
	}
}

func (s *InMemoryStore) InsertOrder(_ context.Context, o orders.Order) (string, error) {
	o.ID = uuid.NewString()
	o.Items = append([]orders.Item(nil), o.Items...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	s.byVend[o.VendorID] = append(s.byVend[o.VendorID], o.ID)
	return o.ID, nil
}

func (s *InMemoryStore) UpdateOrderStatus(_ context.Context, id string, status orders.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, orders.ErrNotFound)
	}
	o.Status = status
	s.orders[id] = o
	return nil
}

func (s *InMemoryStore) GetOrder(_ context.Context, id string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, fmt.Errorf("order %s: %w", id, orders.ErrNotFound)
	}
	return o, nil
}

func (s *InMemoryStore) ListOrdersByVendor(_ context.Context, vendorID string) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byVend[vendorID]
	out := make([]orders.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.orders[id])
	}
	return out, nil
}

func (s *InMemoryStore) UpsertVendor(_ context.Context, v orders.VendorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[v.ID] = v
	return nil
}

func (s *InMemoryStore) GetVendor(_ context.Context, id string) (orders.VendorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vendors[id]
	if !ok {
		return orders.VendorProfile{}, fmt.Errorf("vendor %s: %w", id, orders.ErrNotFound)
	}
	return v, nil
}

var _ orders.Store = (*InMemoryStore)(nil)
