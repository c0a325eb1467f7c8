package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"github.com/gullylink/gullylink/pkg/orders"
)

// PebbleStore is the document store for orders and vendor profiles.
// Values are JSON documents.
type PebbleStore struct {
	db *pebble.DB
	// serializes read-modify-write of order documents
	mu sync.Mutex
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	return openPebbleStore(path, &pebble.Options{})
}

func openPebbleStore(path string, opts *pebble.Options) (*PebbleStore, error) {
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// InsertOrder assigns a time-ordered id and writes the order together with
// its vendor index entry.
func (s *PebbleStore) InsertOrder(_ context.Context, o orders.Order) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate order id: %w", err)
	}
	o.ID = id.String()

	data, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order: %w", err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(orderKey(o.ID), data, nil); err != nil {
		return "", fmt.Errorf("failed to stage order: %w", err)
	}
	if err := batch.Set(vendorOrderKey(o.VendorID, o.ID), nil, nil); err != nil {
		return "", fmt.Errorf("failed to stage order index: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return "", fmt.Errorf("failed to save order: %w", err)
	}
	return o.ID, nil
}

// UpdateOrderStatus overwrites the status of an existing order.
func (s *PebbleStore) UpdateOrderStatus(ctx context.Context, id string, status orders.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	o.Status = status

	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := s.db.Set(orderKey(id), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (s *PebbleStore) GetOrder(_ context.Context, id string) (orders.Order, error) {
	var o orders.Order
	if err := s.getJSON(orderKey(id), &o); err != nil {
		return orders.Order{}, fmt.Errorf("order %s: %w", id, err)
	}
	return o, nil
}

// ListOrdersByVendor returns the vendor's orders, oldest first.
func (s *PebbleStore) ListOrdersByVendor(ctx context.Context, vendorID string) ([]orders.Order, error) {
	prefix := vendorOrderPrefix(vendorID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var ids []string
	for iter.First(); iter.Valid(); iter.Next() {
		if id, ok := orderIDFromIndex(iter.Key(), prefix); ok {
			ids = append(ids, id)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}

	out := make([]orders.Order, 0, len(ids))
	for _, id := range ids {
		o, err := s.GetOrder(ctx, id)
		if errors.Is(err, orders.ErrNotFound) {
			continue // dangling index entry
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *PebbleStore) UpsertVendor(_ context.Context, v orders.VendorProfile) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vendor: %w", err)
	}
	if err := s.db.Set(vendorKey(v.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save vendor: %w", err)
	}
	return nil
}

func (s *PebbleStore) GetVendor(_ context.Context, id string) (orders.VendorProfile, error) {
	var v orders.VendorProfile
	if err := s.getJSON(vendorKey(id), &v); err != nil {
		return orders.VendorProfile{}, fmt.Errorf("vendor %s: %w", id, err)
	}
	return v, nil
}

func (s *PebbleStore) getJSON(key []byte, out any) error {
	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return orders.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer closer.Close()

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

var _ orders.Store = (*PebbleStore)(nil)
