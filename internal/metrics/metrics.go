// Package metrics exposes tracker counters and gauges in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PeerRegistrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infera_peer_registrations_total",
		Help: "Number of peer registrations accepted.",
	})
	Heartbeats = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infera_peer_heartbeats_total",
		Help: "Number of peer heartbeats applied.",
	})
	JobsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infera_jobs_created_total",
		Help: "Number of jobs created.",
	})
	JobsAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infera_jobs_assigned_total",
		Help: "Number of jobs assigned to a peer at creation.",
	})
	JobsUnassigned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infera_jobs_unassigned_total",
		Help: "Number of jobs left queued because no peer was eligible.",
	})
	JobStatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infera_job_status_updates_total",
		Help: "Number of accepted job status updates, by resulting status.",
	}, []string{"status"})
)

// RegisterOnlinePeers installs a gauge that evaluates the current online peer
// count at scrape time.
func RegisterOnlinePeers(count func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "infera_peers_online",
		Help: "Peers currently classified online.",
	}, count)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
