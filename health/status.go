// Package health aggregates per-block health into a system-level status and
// serves it over HTTP.
package health

import (
	"time"

	"github.com/TTCRadio/gnuradio/block"
)

// Status is the health state of one block or of the whole graph.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"` // "healthy", "unhealthy", "degraded"
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics carries the health-relevant counters of a block.
type Metrics struct {
	Uptime         time.Duration `json:"uptime"`
	ErrorCount     int           `json:"error_count"`
	ItemsPerSecond float64       `json:"items_per_second,omitempty"`
	LastActivity   time.Time     `json:"last_activity,omitempty"`
}

// IsHealthy reports whether the status is healthy.
func (s Status) IsHealthy() bool { return s.Status == "healthy" }

// IsDegraded reports whether the status is degraded.
func (s Status) IsDegraded() bool { return s.Status == "degraded" }

// IsUnhealthy reports whether the status is unhealthy.
func (s Status) IsUnhealthy() bool { return s.Status == "unhealthy" }

// NewHealthy creates a healthy status.
func NewHealthy(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   true,
		Status:    "healthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewUnhealthy creates an unhealthy status.
func NewUnhealthy(component, message string) Status {
	return Status{
		Component: component,
		Status:    "unhealthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDegraded creates a degraded status.
func NewDegraded(component, message string) Status {
	return Status{
		Component: component,
		Status:    "degraded",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// FromBlockHealth converts a block's scheduler-reported health to a Status.
// A failed block is unhealthy; a block that recovered from errors but is
// still running reports degraded.
func FromBlockHealth(name string, hs block.HealthStatus) Status {
	metrics := &Metrics{
		Uptime:       hs.Uptime,
		ErrorCount:   hs.ErrorCount,
		LastActivity: hs.LastCheck,
	}

	switch {
	case !hs.Healthy:
		msg := "block failed"
		if hs.LastError != "" {
			msg = hs.LastError
		}
		return NewUnhealthy(name, msg).WithMetrics(metrics)
	case hs.ErrorCount > 0:
		return NewDegraded(name, "block running after errors").WithMetrics(metrics)
	default:
		return NewHealthy(name, "block "+hs.State.String()).WithMetrics(metrics)
	}
}

// WithMetrics returns a copy of the status with metrics attached.
func (s Status) WithMetrics(metrics *Metrics) Status {
	s.Metrics = metrics
	return s
}

// Aggregate folds sub-statuses into one status: unhealthy if any sub-status
// is unhealthy, else degraded if any is degraded, else healthy.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(component, "no blocks to aggregate")
	}

	hasUnhealthy, hasDegraded := false, false
	for _, sub := range subStatuses {
		switch {
		case sub.IsUnhealthy():
			hasUnhealthy = true
		case sub.IsDegraded():
			hasDegraded = true
		}
	}

	var status Status
	switch {
	case hasUnhealthy:
		status = NewUnhealthy(component, "one or more blocks are unhealthy")
	case hasDegraded:
		status = NewDegraded(component, "one or more blocks are degraded")
	default:
		status = NewHealthy(component, "all blocks are healthy")
	}

	status.SubStatuses = append([]Status(nil), subStatuses...)
	return status
}
