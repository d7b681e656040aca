// Package metrics exposes the validator's cycle health as Prometheus
// collectors, served on /metrics by the query API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for the validator.
type Registry struct {
	registry *prometheus.Registry

	// Cycle counters by cycle name and outcome ("ok", "error", "skipped")
	CycleRuns *prometheus.CounterVec

	// Ledger fetch outcomes per ingestion cycle
	FetchFailures prometheus.Counter
	FetchSuccess  prometheus.Counter

	// Durable-write failures while storing fetched volumes. Kept apart from
	// FetchFailures: the ledger answered, the local store did not.
	StoreWriteFailures prometheus.Counter

	// Emission results
	SnapshotsCommitted prometheus.Counter
	WeightsSubmitted   prometheus.Counter

	// Roster size as of the last ingestion
	TrackedMiners prometheus.Gauge
}

// New creates a registry with all validator metrics registered.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		CycleRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casinotao_cycle_runs_total",
				Help: "Scheduler cycle executions by cycle and outcome",
			},
			[]string{"cycle", "outcome"},
		),
		FetchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "casinotao_ledger_fetch_failures_total",
				Help: "Per-miner ledger fetches that failed and will retry next cycle",
			},
		),
		FetchSuccess: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "casinotao_ledger_fetch_success_total",
				Help: "Per-miner ledger fetches that completed",
			},
		),
		StoreWriteFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "casinotao_volume_write_failures_total",
				Help: "Daily-volume writes that failed; the day is retried next cycle",
			},
		),
		SnapshotsCommitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "casinotao_snapshots_committed_total",
				Help: "Snapshots appended to the audit log",
			},
		),
		WeightsSubmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "casinotao_weights_submitted_total",
				Help: "Weight vectors accepted by the consensus layer",
			},
		),
		TrackedMiners: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "casinotao_tracked_miners",
				Help: "Metagraph roster size at the last ingestion cycle",
			},
		),
	}

	r.registry.MustRegister(
		r.CycleRuns,
		r.FetchFailures,
		r.FetchSuccess,
		r.StoreWriteFailures,
		r.SnapshotsCommitted,
		r.WeightsSubmitted,
		r.TrackedMiners,
	)

	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
