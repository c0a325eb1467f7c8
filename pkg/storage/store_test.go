package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/gullylink/gullylink/pkg/hub"
	"github.com/gullylink/gullylink/pkg/orders"
)

func newMemPebble(t *testing.T) *PebbleStore {
	t.Helper()
	s, err := openPebbleStore("gullylink", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func stores(t *testing.T) map[string]orders.Store {
	return map[string]orders.Store{
		"pebble": newMemPebble(t),
		"memory": NewInMemoryStore(),
	}
}

func sampleOrder(vendorID string) orders.Order {
	return orders.Order{
		VendorID:     vendorID,
		UserLocation: hub.Location{Lat: 26.21, Lng: 78.17},
		Items:        []orders.Item{{Name: "Poha", Price: 20}},
		Total:        20,
		Status:       orders.StatusPending,
	}
}

func TestStore_OrderLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			id, err := s.InsertOrder(ctx, sampleOrder("v1"))
			if err != nil {
				t.Fatalf("InsertOrder: %v", err)
			}
			if id == "" {
				t.Fatal("empty id")
			}

			got, err := s.GetOrder(ctx, id)
			if err != nil {
				t.Fatalf("GetOrder: %v", err)
			}
			if got.ID != id || got.Status != orders.StatusPending || got.Items[0].Name != "Poha" {
				t.Errorf("GetOrder = %+v", got)
			}

			if err := s.UpdateOrderStatus(ctx, id, orders.StatusAccepted); err != nil {
				t.Fatalf("UpdateOrderStatus: %v", err)
			}
			// Terminal states are not enforced by the store.
			if err := s.UpdateOrderStatus(ctx, id, orders.StatusRejected); err != nil {
				t.Fatalf("UpdateOrderStatus again: %v", err)
			}
			got, _ = s.GetOrder(ctx, id)
			if got.Status != orders.StatusRejected {
				t.Errorf("status = %s, want rejected", got.Status)
			}
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.GetOrder(ctx, "nope"); !errors.Is(err, orders.ErrNotFound) {
				t.Errorf("GetOrder err = %v, want ErrNotFound", err)
			}
			if err := s.UpdateOrderStatus(ctx, "nope", orders.StatusAccepted); !errors.Is(err, orders.ErrNotFound) {
				t.Errorf("UpdateOrderStatus err = %v, want ErrNotFound", err)
			}
			if _, err := s.GetVendor(ctx, "nope"); !errors.Is(err, orders.ErrNotFound) {
				t.Errorf("GetVendor err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_ListOrdersByVendor(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var want []string
			for i := 0; i < 3; i++ {
				id, err := s.InsertOrder(ctx, sampleOrder("v1"))
				if err != nil {
					t.Fatal(err)
				}
				want = append(want, id)
			}
			// A vendor whose id extends "v1" must not leak into v1's list.
			if _, err := s.InsertOrder(ctx, sampleOrder("v1:x")); err != nil {
				t.Fatal(err)
			}
			if _, err := s.InsertOrder(ctx, sampleOrder("v2")); err != nil {
				t.Fatal(err)
			}

			got, err := s.ListOrdersByVendor(ctx, "v1")
			if err != nil {
				t.Fatalf("ListOrdersByVendor: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("got %d orders, want %d", len(got), len(want))
			}
			for i, o := range got {
				if o.ID != want[i] {
					t.Errorf("order[%d] = %s, want %s", i, o.ID, want[i])
				}
				if o.VendorID != "v1" {
					t.Errorf("order[%d] vendor = %s", i, o.VendorID)
				}
			}

			empty, err := s.ListOrdersByVendor(ctx, "nobody")
			if err != nil || len(empty) != 0 {
				t.Errorf("ListOrdersByVendor(nobody) = %v, %v", empty, err)
			}
		})
	}
}

func TestStore_UpsertVendor(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			v := orders.VendorProfile{
				ID:       "v_bot_4",
				Name:     "SS Kachori",
				IconType: "food",
				Location: &hub.Location{Lat: 26.2124, Lng: 78.1772},
				Menu:     []orders.Item{{Name: "Kachori", Price: 15}},
			}
			if err := s.UpsertVendor(ctx, v); err != nil {
				t.Fatal(err)
			}
			v.Name = "SS Kachori Corner"
			if err := s.UpsertVendor(ctx, v); err != nil {
				t.Fatal(err)
			}

			got, err := s.GetVendor(ctx, "v_bot_4")
			if err != nil {
				t.Fatal(err)
			}
			if got.Name != "SS Kachori Corner" || len(got.Menu) != 1 {
				t.Errorf("GetVendor = %+v", got)
			}
		})
	}
}

func TestKeyUpperBound(t *testing.T) {
	got := keyUpperBound(vendorOrderPrefix("v1"))
	if string(got) != "vord:v1;" {
		t.Errorf("keyUpperBound = %q, want %q", got, "vord:v1;")
	}
}
