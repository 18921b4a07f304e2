// Package metrics defines and registers the custom Prometheus metrics for
// the marketplace API. It is the single source of truth for metric names,
// labels, and help strings; metrics register with the default registry at
// package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// AuthFailuresTotal counts rejected authentication attempts.
// Label:
//   - reason: "missing", "expired", or "invalid"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected authentication attempts, by reason.",
	},
	[]string{"reason"},
)

// OrdersCreatedTotal counts successfully placed orders.
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders placed.",
	},
)

// OrderStatusUpdatesTotal counts delivery-status transitions applied to orders.
// Label:
//   - status: the new delivery status (e.g. "delivered")
var OrderStatusUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_updates_total",
		Help:      "Total number of order delivery-status updates, by new status.",
	},
	[]string{"status"},
)

// ListingTransitionsTotal counts listing state machine transitions.
// Label:
//   - status: the target listing status
var ListingTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_transitions_total",
		Help:      "Total number of listing status transitions, by target status.",
	},
	[]string{"status"},
)

// ViewDedupTotal counts listing-view deduplication decisions.
// Label:
//   - result: "counted" (first view in the window) or "duplicate"
var ViewDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_dedup_total",
		Help:      "Total number of view deduplication checks, labelled by result.",
	},
	[]string{"result"},
)

// ActivityQueueDepth tracks the number of audit entries waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ActivityDroppedTotal counts audit entries dropped under backpressure.
var ActivityDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_dropped_total",
		Help:      "Total number of audit entries dropped because a worker channel was full.",
	},
)
