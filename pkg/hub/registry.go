package hub

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gullylink/gullylink/pkg/metrics"
)

// Role partitions connections into broadcast audiences.
type Role string

const (
	RoleVendor Role = "vendor"
	RoleUser   Role = "user"
)

var ErrInvalidRole = errors.New("invalid role")

func (r Role) Valid() bool {
	return r == RoleVendor || r == RoleUser
}

// Conn is one live bidirectional message channel. Its identity is the value
// itself, so implementations must be comparable (typically a pointer).
//
// Send may be called concurrently with Receive. Receive is only called from
// the connection's own handler goroutine.
type Conn interface {
	ID() string
	Send(data []byte) error
	Receive() ([]byte, error)
	Close() error
}

// Registry tracks live connections partitioned by role.
type Registry struct {
	mu    sync.RWMutex
	conns map[Role]map[Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: map[Role]map[Conn]struct{}{
			RoleVendor: make(map[Conn]struct{}),
			RoleUser:   make(map[Conn]struct{}),
		},
	}
}

// Register adds c to role's set.
func (r *Registry) Register(c Conn, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("register %s: %w %q", c.ID(), ErrInvalidRole, role)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[role][c] = struct{}{}
	metrics.Connections.WithLabelValues(string(role)).Set(float64(len(r.conns[role])))
	return nil
}

// Unregister removes c from role's set and reports whether it was present.
// Removing an absent connection is a no-op.
func (r *Registry) Unregister(c Conn, role Role) bool {
	if !role.Valid() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conns[role][c]
	if ok {
		delete(r.conns[role], c)
		metrics.Connections.WithLabelValues(string(role)).Set(float64(len(r.conns[role])))
	}
	return ok
}

// Snapshot returns a copy of role's live connections. The copy is safe to
// iterate while the registry keeps changing.
func (r *Registry) Snapshot(role Role) ([]Conn, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("snapshot: %w %q", ErrInvalidRole, role)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns[role]))
	for c := range r.conns[role] {
		out = append(out, c)
	}
	return out, nil
}

// Count returns the number of live connections for role.
func (r *Registry) Count(role Role) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[role])
}
