// Package metrics defines and registers all custom Prometheus metrics for
// the IFTA mileage service. It is the single source of truth for metric
// names, labels, and help strings; collectors register against the default
// registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ifta"

// ── Routing metrics ───────────────────────────────────────────────────────────

// RouteResolutionsTotal counts resolver calls by final outcome.
// Label:
//   - outcome: "ok", "transient_error", "permanent_error"
var RouteResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_resolutions_total",
		Help:      "Total route resolver calls, by final outcome.",
	},
	[]string{"outcome"},
)

// RouteRetriesTotal counts retry attempts issued for transient resolver
// failures (timeouts, 429, 5xx).
var RouteRetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_retries_total",
		Help:      "Total retries of transient route resolver failures.",
	},
)

// RouteCacheTotal counts route-cache lookups.
// Label:
//   - result: "hit" or "miss"
var RouteCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_cache_total",
		Help:      "Total route cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Pipeline metrics ──────────────────────────────────────────────────────────

// ReportsCreatedTotal counts accepted report submissions.
var ReportsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_created_total",
		Help:      "Total number of report runs accepted.",
	},
)

// ReportDuration measures one report run from dequeue to persistence.
// Label:
//   - status: "completed" or "failed"
var ReportDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "report_duration_seconds",
		Help:      "Duration of a report pipeline run.",
		Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	},
	[]string{"status"},
)

// GroupsClosedTotal counts trip-group closures by cause.
// Label:
//   - reason: "home", "virtual_return", "unresolved"
var GroupsClosedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "groups_closed_total",
		Help:      "Total trip groups closed, by closure reason.",
	},
	[]string{"reason"},
)

// VirtualLegsTotal counts synthesized empty return legs.
var VirtualLegsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "virtual_legs_total",
		Help:      "Total synthesized empty return legs.",
	},
)

// RowsEmittedTotal counts emitted state-mileage rows.
// Label:
//   - status: "ok" or "calculation_failed"
var RowsEmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_emitted_total",
		Help:      "Total state-mileage rows emitted, by status.",
	},
	[]string{"status"},
)

// JobQueueDepth tracks the events waiting in each report worker channel.
// Label:
//   - worker_id: numeric worker index ("0", "1", ...)
var JobQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "job_queue_depth",
		Help:      "Current number of report jobs pending in each worker channel.",
	},
	[]string{"worker_id"},
)
