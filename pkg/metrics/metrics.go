// Package metrics is the single source of truth for metric names and labels
// across the three services. Counters register themselves on import; each
// service exposes them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shop"

// LoginsTotal counts login attempts by outcome ("ok" / "failed").
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ValidationsTotal counts remote token validations by outcome ("ok" / "invalid").
var ValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of token validation requests, by outcome.",
	},
	[]string{"outcome"},
)

// OrdersPlacedTotal counts orders moved to IN_PROGRESS.
var OrdersPlacedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed.",
	},
)

// BillsCreatedTotal counts bills materialized from consumed messages.
var BillsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bills_created_total",
		Help:      "Total number of bills created from order messages.",
	},
)

// DuplicateDeliveriesTotal counts redelivered order messages skipped by the
// order-number dedup guard.
var DuplicateDeliveriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_deliveries_total",
		Help:      "Total number of duplicate order messages acked without a bill.",
	},
)
