package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// Metrics holds the Prometheus collectors for one editor (or a fleet of
// them sharing a registry). Attach it via Hooks().
type Metrics struct {
	MutationsTotal   *prometheus.CounterVec
	MutationDuration prometheus.Histogram

	GraphNodes       prometheus.Gauge
	GraphConnections prometheus.Gauge

	HistoryOpsTotal *prometheus.CounterVec
	UndoDepth       prometheus.Gauge
	RedoDepth       prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics set on its own Prometheus registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{registry: reg}

	m.MutationsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_mutations_total",
			Help: "Committed graph mutations by kind",
		},
		[]string{"kind"},
	)

	m.MutationDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "patchbay_mutation_duration_seconds",
			Help:    "Time from operation entry to commit",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	m.GraphNodes = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_graph_nodes",
			Help: "Nodes currently in the graph",
		},
	)

	m.GraphConnections = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_graph_connections",
			Help: "Connections currently in the graph",
		},
	)

	m.HistoryOpsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_history_operations_total",
			Help: "History stack movements by operation",
		},
		[]string{"op"},
	)

	m.UndoDepth = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_history_undo_depth",
			Help: "Entries on the undo stack",
		},
	)

	m.RedoDepth = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_history_redo_depth",
			Help: "Entries on the redo stack",
		},
	)

	return m
}

// Registry returns the underlying Prometheus registry, for mounting the
// scrape handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Hooks returns lifecycle hooks that keep the collectors current. The
// hook bodies only touch Prometheus primitives, which are safe under the
// editor lock.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, evt *domain.MutationEvent) {
			m.MutationsTotal.WithLabelValues(string(evt.Kind)).Inc()
			m.MutationDuration.Observe(evt.Duration.Seconds())
			m.GraphNodes.Set(float64(evt.NodeCount))
			m.GraphConnections.Set(float64(evt.ConnectionCount))
		},
		OnHistory: func(ctx context.Context, evt *domain.HistoryEvent) {
			m.HistoryOpsTotal.WithLabelValues(evt.Op).Inc()
			m.UndoDepth.Set(float64(evt.UndoDepth))
			m.RedoDepth.Set(float64(evt.RedoDepth))
		},
	}
}
