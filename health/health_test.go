package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTCRadio/gnuradio/block"
)

func TestAggregateRules(t *testing.T) {
	assert.True(t, Aggregate("sys", nil).IsHealthy())

	allGood := Aggregate("sys", []Status{NewHealthy("a", ""), NewHealthy("b", "")})
	assert.True(t, allGood.IsHealthy())
	assert.Len(t, allGood.SubStatuses, 2)

	oneDegraded := Aggregate("sys", []Status{NewHealthy("a", ""), NewDegraded("b", "")})
	assert.True(t, oneDegraded.IsDegraded())

	oneBad := Aggregate("sys", []Status{NewDegraded("a", ""), NewUnhealthy("b", "")})
	assert.True(t, oneBad.IsUnhealthy(), "unhealthy outranks degraded")
}

func TestFromBlockHealth(t *testing.T) {
	failed := FromBlockHealth("blk", block.HealthStatus{
		Healthy:   false,
		State:     block.StateFailed,
		LastError: "work exploded",
	})
	assert.True(t, failed.IsUnhealthy())
	assert.Equal(t, "work exploded", failed.Message)

	recovered := FromBlockHealth("blk", block.HealthStatus{
		Healthy:    true,
		State:      block.StateRunning,
		ErrorCount: 2,
	})
	assert.True(t, recovered.IsDegraded())

	running := FromBlockHealth("blk", block.HealthStatus{
		Healthy: true,
		State:   block.StateRunning,
		Uptime:  time.Minute,
	})
	assert.True(t, running.IsHealthy())
	require.NotNil(t, running.Metrics)
	assert.Equal(t, time.Minute, running.Metrics.Uptime)
}

func TestMonitorTracksAndAggregates(t *testing.T) {
	m := NewMonitor()
	m.Update("b", NewHealthy("b", "ok"))
	m.Update("a", NewDegraded("a", "slow"))

	assert.Equal(t, 2, m.Count())

	got, ok := m.Get("a")
	require.True(t, ok)
	assert.True(t, got.IsDegraded())

	agg := m.AggregateHealth("graph")
	assert.True(t, agg.IsDegraded())
	require.Len(t, agg.SubStatuses, 2)
	assert.Equal(t, "a", agg.SubStatuses[0].Component, "stable name order")

	m.Remove("a")
	assert.Equal(t, 1, m.Count())
	_, ok = m.Get("a")
	assert.False(t, ok)
}

func TestMonitorStampsNameAndTime(t *testing.T) {
	m := NewMonitor()
	m.Update("blk", Status{Status: "healthy", Healthy: true})

	got, ok := m.Get("blk")
	require.True(t, ok)
	assert.Equal(t, "blk", got.Component)
	assert.False(t, got.Timestamp.IsZero())
}

func TestHandlerStatusCodes(t *testing.T) {
	m := NewMonitor()
	m.Update("a", NewHealthy("a", "ok"))

	rec := httptest.NewRecorder()
	m.Handler("graph").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "graph", body.Component)

	m.Update("b", NewUnhealthy("b", "down"))
	rec = httptest.NewRecorder()
	m.Handler("graph").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
