package hub

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gullylink/gullylink/pkg/metrics"
	"github.com/gullylink/gullylink/pkg/util"
)

// Dispatcher fans messages out to every live connection of a role.
// Delivery is best effort: no ack, no retry, no ordering across recipients.
type Dispatcher struct {
	registry *Registry
	log      *zap.SugaredLogger
}

func NewDispatcher(registry *Registry, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{registry: registry, log: util.OrNop(log)}
}

// BroadcastTo sends message to every connection registered under role and
// returns how many sends succeeded. For connections opened through a handler
// a successful send means the message was queued; a recipient whose queue is
// full, or whose send fails, is unregistered and closed without affecting the
// others. An empty audience is not an error.
func (d *Dispatcher) BroadcastTo(role Role, message any) (int, error) {
	conns, err := d.registry.Snapshot(role)
	if err != nil {
		return 0, err
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("marshal %s broadcast: %w", role, err)
	}

	metrics.BroadcastsTotal.WithLabelValues(string(role)).Inc()
	if len(conns) == 0 {
		return 0, nil
	}

	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
	)
	for _, c := range conns {
		wg.Add(1)
		go func(c Conn) {
			defer wg.Done()
			if err := c.Send(payload); err != nil {
				metrics.DeliveriesTotal.WithLabelValues(string(role), "dropped").Inc()
				d.drop(c, role, err)
				return
			}
			delivered.Add(1)
		}(c)
	}
	wg.Wait()

	return int(delivered.Load()), nil
}

func (d *Dispatcher) drop(c Conn, role Role, cause error) {
	if !d.registry.Unregister(c, role) {
		return
	}
	d.log.Warnw("ws_send_failed", "conn", c.ID(), "role", role, "err", cause)
	_ = c.Close()
}
