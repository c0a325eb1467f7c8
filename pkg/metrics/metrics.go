package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus collectors for the realtime hub and the order gateway.
var (
	Connections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gullylink_connections",
			Help: "Live websocket connections by role",
		},
		[]string{"role"},
	)

	BroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gullylink_broadcasts_total",
			Help: "Broadcasts dispatched by target role",
		},
		[]string{"role"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gullylink_deliveries_total",
			Help: "Per-connection deliveries by role and result (ok, failed, dropped)",
		},
		[]string{"role", "result"},
	)

	MalformedMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gullylink_malformed_vendor_messages_total",
			Help: "Inbound vendor messages dropped as malformed",
		},
	)

	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gullylink_orders_total",
			Help: "Order gateway operations by operation and result",
		},
		[]string{"op", "result"},
	)
)

// Register registers all collectors with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Connections)
	reg.MustRegister(BroadcastsTotal)
	reg.MustRegister(DeliveriesTotal)
	reg.MustRegister(MalformedMessagesTotal)
	reg.MustRegister(OrdersTotal)
}
