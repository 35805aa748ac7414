// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	heartbeatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewgate_heartbeats_total",
		Help: "Total accepted presence heartbeats",
	})

	liveViewers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "viewgate_live_viewers",
		Help: "Last observed live viewer count per channel",
	}, []string{"channel_id"})

	presenceEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewgate_presence_evictions_total",
		Help: "Presence entries evicted by the liveness sweep",
	})

	viewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewgate_views_total",
		Help: "View events by outcome (counted or deduplicated)",
	}, []string{"outcome"})

	viewPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewgate_view_persist_failures_total",
		Help: "Durable view increments that failed and were swallowed",
	})
)

// RecordHeartbeat records an accepted heartbeat and the resulting live count.
func RecordHeartbeat(channelID string, live int) {
	heartbeatsTotal.Inc()
	liveViewers.WithLabelValues(channelID).Set(float64(live))
}

// RecordPresenceEvictions adds evicted entries to the sweep counter.
func RecordPresenceEvictions(n int) {
	presenceEvictions.Add(float64(n))
}

// RecordView records a view event outcome.
func RecordView(counted bool) {
	outcome := "deduplicated"
	if counted {
		outcome = "counted"
	}
	viewsTotal.WithLabelValues(outcome).Inc()
}

// RecordViewPersistFailure records a swallowed durable-increment failure.
func RecordViewPersistFailure() {
	viewPersistFailures.Inc()
}
