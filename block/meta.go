package block

import (
	"time"
)

// Metadata describes what a block is
type Metadata struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "source", "processor", "sink", "message"
	Description string `json:"description"`
	Version     string `json:"version"`
}

// HealthStatus describes the current health state of a block under scheduling
type HealthStatus struct {
	Healthy    bool          `json:"healthy"`
	State      State         `json:"state"`
	LastCheck  time.Time     `json:"last_check"`
	ErrorCount int           `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	Uptime     time.Duration `json:"uptime"`
}

// FlowMetrics describes the current data flow through a block
type FlowMetrics struct {
	ItemsPerSecond    float64   `json:"items_per_second"`
	MessagesPerSecond float64   `json:"messages_per_second"`
	LastActivity      time.Time `json:"last_activity"`
}
