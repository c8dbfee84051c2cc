package telemetry

import "github.com/prometheus/client_golang/prometheus"

// HTTPRequestDuration tracks HTTP request latency across all routes.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "controlplane",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// RevisionsPublishedTotal counts successfully published revisions, by domain.
var RevisionsPublishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "controlplane",
		Subsystem: "revisions",
		Name:      "published_total",
		Help:      "Total number of revisions published, by domain.",
	},
	[]string{"domain"},
)

// CommandsIssuedTotal counts commands created, by domain and command type.
var CommandsIssuedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "controlplane",
		Subsystem: "commands",
		Name:      "issued_total",
		Help:      "Total number of commands issued, by domain and command type.",
	},
	[]string{"domain", "command_type"},
)

// CommandsAckedTotal counts command acknowledgements received from nodes, by terminal status.
var CommandsAckedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "controlplane",
		Subsystem: "commands",
		Name:      "acked_total",
		Help:      "Total number of command acknowledgements received, by status.",
	},
	[]string{"status"},
)

// NodeHeartbeatsTotal counts heartbeats received from edge nodes.
var NodeHeartbeatsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "controlplane",
		Subsystem: "nodes",
		Name:      "heartbeats_total",
		Help:      "Total number of node heartbeats received.",
	},
)

// NodesRegisteredTotal counts successful node registrations via bootstrap token.
var NodesRegisteredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "controlplane",
		Subsystem: "nodes",
		Name:      "registered_total",
		Help:      "Total number of nodes registered via bootstrap token consumption.",
	},
)

// ClaimsFinalizedTotal counts onsite claim handshakes, partitioned by whether
// the finalize callback to the edge succeeded.
var ClaimsFinalizedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "controlplane",
		Subsystem: "claims",
		Name:      "finalized_total",
		Help:      "Total number of onsite claims, by finalize outcome.",
	},
	[]string{"finalized"},
)

// NotificationsTotal counts outbound operator notifications (e.g. Slack), by type.
var NotificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "controlplane",
		Subsystem: "notifications",
		Name:      "sent_total",
		Help:      "Total number of outbound notifications sent, by type.",
	},
	[]string{"type"},
)

// All returns all control-plane-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		RevisionsPublishedTotal,
		CommandsIssuedTotal,
		CommandsAckedTotal,
		NodeHeartbeatsTotal,
		NodesRegisteredTotal,
		ClaimsFinalizedTotal,
		NotificationsTotal,
	}
}
