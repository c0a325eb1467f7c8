package hub

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gullylink/gullylink/pkg/metrics"
)

func TestRegistry_InvalidRole(t *testing.T) {
	r := NewRegistry()
	c := newFakeConn("c1")

	if err := r.Register(c, Role("admin")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("Register() err = %v, want ErrInvalidRole", err)
	}
	if _, err := r.Snapshot(Role("")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("Snapshot() err = %v, want ErrInvalidRole", err)
	}
	if r.Unregister(c, Role("admin")) {
		t.Error("Unregister() with invalid role reported removal")
	}
}

func TestRegistry_RolesArePartitioned(t *testing.T) {
	r := NewRegistry()
	v := newFakeConn("v")
	u := newFakeConn("u")

	if err := r.Register(v, RoleVendor); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(u, RoleUser); err != nil {
		t.Fatal(err)
	}

	vendors, _ := r.Snapshot(RoleVendor)
	users, _ := r.Snapshot(RoleUser)
	if len(vendors) != 1 || vendors[0] != Conn(v) {
		t.Errorf("vendor snapshot = %v", vendors)
	}
	if len(users) != 1 || users[0] != Conn(u) {
		t.Errorf("user snapshot = %v", users)
	}

	// Removing from the wrong partition is a no-op.
	if r.Unregister(v, RoleUser) {
		t.Error("Unregister(v, user) reported removal")
	}
	if r.Count(RoleVendor) != 1 {
		t.Errorf("vendor count = %d, want 1", r.Count(RoleVendor))
	}
}

func TestRegistry_UnregisterAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	c := newFakeConn("c")
	_ = r.Register(c, RoleUser)

	if !r.Unregister(c, RoleUser) {
		t.Fatal("first Unregister() = false, want true")
	}
	if r.Unregister(c, RoleUser) {
		t.Fatal("second Unregister() = true, want false")
	}
	if r.Count(RoleUser) != 0 {
		t.Fatalf("count = %d, want 0", r.Count(RoleUser))
	}
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeConn("a"), newFakeConn("b")
	_ = r.Register(a, RoleUser)
	_ = r.Register(b, RoleUser)

	snap, _ := r.Snapshot(RoleUser)
	r.Unregister(a, RoleUser)
	r.Unregister(b, RoleUser)

	if len(snap) != 2 {
		t.Fatalf("snapshot changed under mutation: len = %d", len(snap))
	}
}

func TestRegistry_ConcurrentRegisterUnregister(t *testing.T) {
	const n = 200
	r := NewRegistry()

	conns := make([]*fakeConn, n)
	for i := range conns {
		conns[i] = newFakeConn(fmt.Sprintf("c%d", i))
	}

	var wg sync.WaitGroup
	for i, c := range conns {
		role := RoleUser
		if i%2 == 0 {
			role = RoleVendor
		}
		wg.Add(1)
		go func(i int, c *fakeConn, role Role) {
			defer wg.Done()
			if err := r.Register(c, role); err != nil {
				t.Errorf("Register(%s): %v", c.id, err)
				return
			}
			// Concurrent readers must never observe a torn set.
			if _, err := r.Snapshot(role); err != nil {
				t.Errorf("Snapshot: %v", err)
			}
			// Every third connection leaves again, twice, as a broadcast
			// failure and its own receive loop would.
			if i%3 == 0 {
				r.Unregister(c, role)
				r.Unregister(c, role)
			}
		}(i, c, role)
	}
	wg.Wait()

	want := map[Role]map[string]bool{RoleVendor: {}, RoleUser: {}}
	for i, c := range conns {
		if i%3 == 0 {
			continue
		}
		role := RoleUser
		if i%2 == 0 {
			role = RoleVendor
		}
		want[role][c.id] = true
	}

	for _, role := range []Role{RoleVendor, RoleUser} {
		snap, _ := r.Snapshot(role)
		got := make(map[string]bool, len(snap))
		for _, c := range snap {
			if got[c.ID()] {
				t.Errorf("%s: duplicate %s", role, c.ID())
			}
			got[c.ID()] = true
		}
		if len(got) != len(want[role]) {
			t.Errorf("%s: got %d connections, want %d", role, len(got), len(want[role]))
		}
		for id := range want[role] {
			if !got[id] {
				t.Errorf("%s: missing %s", role, id)
			}
		}
	}
}

func TestRegistry_ConnectionsGauge(t *testing.T) {
	r := NewRegistry()
	users := metrics.Connections.WithLabelValues(string(RoleUser))
	vendors := metrics.Connections.WithLabelValues(string(RoleVendor))

	u1, u2, v1 := newFakeConn("u1"), newFakeConn("u2"), newFakeConn("v1")
	_ = r.Register(u1, RoleUser)
	_ = r.Register(u2, RoleUser)
	_ = r.Register(v1, RoleVendor)
	if got := testutil.ToFloat64(users); got != 2 {
		t.Errorf("user gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(vendors); got != 1 {
		t.Errorf("vendor gauge = %v, want 1", got)
	}

	r.Unregister(u1, RoleUser)
	r.Unregister(u1, RoleUser)
	if got := testutil.ToFloat64(users); got != 1 {
		t.Errorf("user gauge after unregister = %v, want 1", got)
	}

	r.Unregister(u2, RoleUser)
	r.Unregister(v1, RoleVendor)
	if got := testutil.ToFloat64(users); got != 0 {
		t.Errorf("user gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(vendors); got != 0 {
		t.Errorf("vendor gauge = %v, want 0", got)
	}
}
