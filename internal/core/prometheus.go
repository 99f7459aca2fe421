package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetricsRecorder exports service operation counters and latency
// histograms. Collectors are registered with the supplied registerer.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder builds a recorder registered on reg. A nil
// registerer leaves the collectors unregistered.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	factory := promauto.With(reg)
	return &PrometheusMetricsRecorder{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helixcanvas",
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "Workspace operations by name and outcome.",
		}, []string{"operation", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "helixcanvas",
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Latency of workspace operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	status := string(AuditStatusSuccess)
	if !success {
		status = string(AuditStatusError)
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
}
