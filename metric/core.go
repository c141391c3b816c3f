package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all runtime-level metrics (not block-specific)
type Metrics struct {
	// Block execution metrics
	BlockStatus     *prometheus.GaugeVec
	WorkInvocations *prometheus.CounterVec
	WorkDuration    *prometheus.HistogramVec
	ItemsProduced   *prometheus.CounterVec
	ItemsConsumed   *prometheus.CounterVec
	StarvedPasses   *prometheus.CounterVec

	// Tag metrics
	TagsAdded  *prometheus.CounterVec
	TagsPruned *prometheus.CounterVec

	// Message port metrics
	MessagesPublished *prometheus.CounterVec
	MessagesDelivered *prometheus.CounterVec
	MessagesDropped   *prometheus.CounterVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all runtime metrics
func NewMetrics() *Metrics {
	return &Metrics{
		BlockStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gr",
				Subsystem: "block",
				Name:      "status",
				Help:      "Block state (0=created, 1=ready, 2=running, 3=done, 4=failed)",
			},
			[]string{"block"},
		),

		WorkInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "block",
				Name:      "work_invocations_total",
				Help:      "Total number of work invocations",
			},
			[]string{"block"},
		),

		WorkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gr",
				Subsystem: "block",
				Name:      "work_duration_seconds",
				Help:      "Work invocation duration in seconds",
				Buckets:   []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1, 1},
			},
			[]string{"block"},
		),

		ItemsProduced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "stream",
				Name:      "items_produced_total",
				Help:      "Total items committed to output streams",
			},
			[]string{"block"},
		),

		ItemsConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "stream",
				Name:      "items_consumed_total",
				Help:      "Total items consumed from input streams",
			},
			[]string{"block"},
		),

		StarvedPasses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "sched",
				Name:      "starved_passes_total",
				Help:      "Scheduling passes that made no progress for a block",
			},
			[]string{"block"},
		),

		TagsAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "tags",
				Name:      "added_total",
				Help:      "Total tags committed to tag stores",
			},
			[]string{"block"},
		),

		TagsPruned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "tags",
				Name:      "pruned_total",
				Help:      "Total tags removed after every consumer advanced past them",
			},
			[]string{"block"},
		),

		MessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "messages",
				Name:      "published_total",
				Help:      "Total messages posted to output ports",
			},
			[]string{"block", "port"},
		),

		MessagesDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "messages",
				Name:      "delivered_total",
				Help:      "Total messages delivered to input port handlers",
			},
			[]string{"block", "port"},
		),

		MessagesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "messages",
				Name:      "dropped_total",
				Help:      "Total messages dropped due to full inboxes",
			},
			[]string{"block", "port"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gr",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors by class",
			},
			[]string{"component", "class"},
		),
	}
}
