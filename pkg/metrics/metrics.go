// Package metrics provides Prometheus metrics for the filer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyfiler_commands_total",
			Help: "Total number of filer commands",
		},
		[]string{"command", "outcome"},
	)

	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lazyfiler_command_duration_seconds",
			Help:    "Filer command duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	viewPatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyfiler_view_patches_total",
			Help: "View range replacements by primitive",
		},
		[]string{"primitive"},
	)

	viewPatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazyfiler_view_patch_failures_total",
			Help: "View range replacements that failed",
		},
		[]string{"primitive"},
	)

	nodesReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lazyfiler_nodes_reconciled_total",
			Help: "Directory entries read while reconciling the node cache",
		},
	)

	visibleRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lazyfiler_visible_rows",
			Help: "Number of rows in the rendered line model",
		},
	)
)

// Outcomes of a command.
const (
	OutcomeOK     = "ok"
	OutcomeNoop   = "noop"
	OutcomeFailed = "failed"
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCommand records one command with its outcome.
func RecordCommand(command, outcome string, duration time.Duration) {
	commandsTotal.WithLabelValues(command, outcome).Inc()
	commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordViewPatch records a view update issued by a line model primitive.
func RecordViewPatch(primitive string, success bool) {
	viewPatchesTotal.WithLabelValues(primitive).Inc()
	if !success {
		viewPatchFailures.WithLabelValues(primitive).Inc()
	}
}

// AddNodesReconciled counts directory entries classified by a reconcile.
func AddNodesReconciled(n int) {
	nodesReconciled.Add(float64(n))
}

// SetVisibleRows sets the current row count of the line model.
func SetVisibleRows(n int) {
	visibleRows.Set(float64(n))
}
