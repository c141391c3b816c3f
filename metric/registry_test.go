package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTCRadio/gnuradio/errors"
)

func TestNewMetricsRegistryExposesCoreMetrics(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()
	require.NotNil(t, core)

	// Vectors only show up in a gather once they have a child.
	core.WorkInvocations.WithLabelValues("src").Inc()
	core.ItemsProduced.WithLabelValues("src").Add(64)
	core.MessagesDelivered.WithLabelValues("src", "in").Inc()

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["gr_block_work_invocations_total"])
	assert.True(t, names["gr_stream_items_produced_total"])
	assert.True(t, names["gr_messages_delivered_total"])
}

func TestRegisterCounterRejectsDuplicateKey(t *testing.T) {
	registry := NewMetricsRegistry()

	first := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_publishes_total",
		Help: "Messages published to the bridge",
	})
	require.NoError(t, registry.RegisterCounter("bridge", "publishes", first))

	second := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_publishes_again_total",
		Help: "Duplicate key with a different collector",
	})
	err := registry.RegisterCounter("bridge", "publishes", second)
	require.Error(t, err)
	assert.True(t, errors.IsConstruction(err))
}

func TestRegisterRejectsPrometheusNameConflict(t *testing.T) {
	registry := NewMetricsRegistry()

	mk := func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridge_conflict_total",
			Help: "Conflicting collector name",
		})
	}
	require.NoError(t, registry.RegisterCounter("bridge", "a", mk()))

	err := registry.RegisterCounter("bridge", "b", mk())
	require.Error(t, err)
	assert.True(t, errors.IsConstruction(err))
}

func TestUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_backlog",
		Help: "Pending bridge messages",
	})
	require.NoError(t, registry.RegisterGauge("bridge", "backlog", gauge))

	assert.True(t, registry.Unregister("bridge", "backlog"))
	assert.False(t, registry.Unregister("bridge", "backlog"), "second unregister finds nothing")

	// The key is free again after unregistering.
	require.NoError(t, registry.RegisterGauge("bridge", "backlog", gauge))
}

func TestNewServerDefaults(t *testing.T) {
	registry := NewMetricsRegistry()

	srv := NewServer(0, "", registry)
	assert.Equal(t, "http://localhost:9090/metrics", srv.Address())

	srv = NewServer(9191, "/stats", registry)
	assert.Equal(t, "http://localhost:9191/stats", srv.Address())
}

func TestServerStartRequiresRegistry(t *testing.T) {
	srv := NewServer(9192, "/metrics", nil)
	err := srv.Start()
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}
