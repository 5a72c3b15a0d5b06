package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeeditor",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "codeeditor",
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"route"},
	)

	StaticResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeeditor",
			Subsystem: "static",
			Name:      "responses_total",
			Help:      "Static asset responses by outcome",
		},
		[]string{"outcome"}, // "served", "not_modified", "not_found", "traversal"
	)

	// Gallery proxy metrics
	ProxyUpstreamResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeeditor",
			Subsystem: "gallery_proxy",
			Name:      "upstream_responses_total",
			Help:      "Upstream gallery responses by status code",
		},
		[]string{"status"},
	)

	ProxyRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeeditor",
			Subsystem: "gallery_proxy",
			Name:      "rejections_total",
			Help:      "Gallery proxy requests refused before any upstream fetch",
		},
		[]string{"reason"}, // "not_configured", "forbidden", "rate_limited"
	)

	CSPScriptHashes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "codeeditor",
			Subsystem: "workbench",
			Name:      "csp_script_hashes",
			Help:      "Inline script hashes emitted per rendered document",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		},
	)

	NLSCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeeditor",
			Subsystem: "nls",
			Name:      "cache_lookups_total",
			Help:      "NLS configuration cache lookups",
		},
		[]string{"result"}, // "hit", "miss", "evicted"
	)

	// Extension-side metrics
	IdleTouches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeeditor",
			Subsystem: "idle",
			Name:      "touches_total",
			Help:      "Idle sentinel writes by activity source",
		},
		[]string{"source"},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeeditor",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session scheduler transitions by target state",
		},
		[]string{"state"},
	)

	ExtensionInstalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeeditor",
			Subsystem: "extsync",
			Name:      "installs_total",
			Help:      "Extension sync install attempts by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	LibraryValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codeeditor",
			Subsystem: "libmgmt",
			Name:      "validations_total",
			Help:      "Library entry validations by section and result",
		},
		[]string{"section", "result"},
	)
)
