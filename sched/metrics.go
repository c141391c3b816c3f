package sched

import (
	"time"

	"github.com/TTCRadio/gnuradio/block"
	"github.com/TTCRadio/gnuradio/metric"
)

// schedMetrics records scheduler activity into the core runtime metrics.
// All methods are nil-receiver safe so the scheduler works without a
// metrics registry.
type schedMetrics struct {
	core *metric.Metrics
}

func newSchedMetrics(registry *metric.MetricsRegistry) *schedMetrics {
	if registry == nil {
		return nil
	}
	return &schedMetrics{core: registry.CoreMetrics()}
}

func (m *schedMetrics) setStatus(blockName string, state block.State) {
	if m == nil {
		return
	}
	m.core.BlockStatus.WithLabelValues(blockName).Set(float64(state))
}

func (m *schedMetrics) recordWork(blockName string, duration time.Duration, produced, consumed int) {
	if m == nil {
		return
	}
	m.core.WorkInvocations.WithLabelValues(blockName).Inc()
	m.core.WorkDuration.WithLabelValues(blockName).Observe(duration.Seconds())
	if produced > 0 {
		m.core.ItemsProduced.WithLabelValues(blockName).Add(float64(produced))
	}
	if consumed > 0 {
		m.core.ItemsConsumed.WithLabelValues(blockName).Add(float64(consumed))
	}
}

func (m *schedMetrics) recordStarved(blockName string) {
	if m == nil {
		return
	}
	m.core.StarvedPasses.WithLabelValues(blockName).Inc()
}

func (m *schedMetrics) recordTags(blockName string, added, pruned int) {
	if m == nil {
		return
	}
	if added > 0 {
		m.core.TagsAdded.WithLabelValues(blockName).Add(float64(added))
	}
	if pruned > 0 {
		m.core.TagsPruned.WithLabelValues(blockName).Add(float64(pruned))
	}
}

func (m *schedMetrics) recordDelivered(blockName, port string) {
	if m == nil {
		return
	}
	m.core.MessagesDelivered.WithLabelValues(blockName, port).Inc()
}

func (m *schedMetrics) recordPublished(blockName, port string) {
	if m == nil {
		return
	}
	m.core.MessagesPublished.WithLabelValues(blockName, port).Inc()
}

func (m *schedMetrics) recordDropped(blockName, port string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.core.MessagesDropped.WithLabelValues(blockName, port).Add(float64(n))
}

func (m *schedMetrics) recordError(component, class string) {
	if m == nil {
		return
	}
	m.core.ErrorsTotal.WithLabelValues(component, class).Inc()
}
