package stream

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TTCRadio/gnuradio/metric"
)

// bufferMetrics exposes buffer statistics as Prometheus metrics.
type bufferMetrics struct {
	fill     prometheus.Gauge
	capacity prometheus.Gauge
	produced prometheus.Counter
	consumed prometheus.Counter
}

func newBufferMetrics(registry *metric.MetricsRegistry, prefix string, capacityItems int) (*bufferMetrics, error) {
	fill := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: prefix + "_fill_items",
		Help: "Current number of unconsumed items in the buffer",
	})
	capacity := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: prefix + "_capacity_items",
		Help: "Buffer capacity in items",
	})
	produced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: prefix + "_produced_items_total",
		Help: "Total items committed by the producer",
	})
	consumed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: prefix + "_consumed_items_total",
		Help: "Total items released by the consumer",
	})

	componentName := "stream_buffer"
	if err := registry.RegisterGauge(componentName, prefix+"_fill_items", fill); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(componentName, prefix+"_capacity_items", capacity); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(componentName, prefix+"_produced_items_total", produced); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(componentName, prefix+"_consumed_items_total", consumed); err != nil {
		return nil, err
	}

	capacity.Set(float64(capacityItems))

	return &bufferMetrics{
		fill:     fill,
		capacity: capacity,
		produced: produced,
		consumed: consumed,
	}, nil
}

func (m *bufferMetrics) recordProduce(n, fill int) {
	m.produced.Add(float64(n))
	m.fill.Set(float64(fill))
}

func (m *bufferMetrics) recordConsume(n, fill int) {
	m.consumed.Add(float64(n))
	m.fill.Set(float64(fill))
}
