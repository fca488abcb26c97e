// Package metrics holds the prometheus collectors shared by the search pipeline
// and the asset cache controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResultCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ducktorrents_result_cache_hits_total",
		Help: "Searches answered from the in-memory result cache.",
	})
	ResultCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ducktorrents_result_cache_misses_total",
		Help: "Searches that had to query the data source.",
	})
	SearchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ducktorrents_search_failures_total",
		Help: "Searches whose data source round trip failed.",
	})
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ducktorrents_search_duration_seconds",
		Help:    "Data source round trip latency for result cache misses.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	// AssetRequests is labelled by resource class and outcome
	// (hit, miss, network, fallback, offline, passthrough).
	AssetRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ducktorrents_asset_requests_total",
		Help: "Requests resolved by the asset cache controller.",
	}, []string{"class", "outcome"})

	SnapshotBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ducktorrents_snapshot_broadcasts_total",
		Help: "snapshot_updated events sent to websocket clients.",
	})
)
