package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TTCRadio/gnuradio/config"
)

func TestSchedulerOptionsEmptyConfig(t *testing.T) {
	assert.Empty(t, schedulerOptions(config.SchedulerConfig{}))
}

func TestSchedulerOptionsMapsTuningFields(t *testing.T) {
	opts := schedulerOptions(config.SchedulerConfig{
		DefaultBufferItems: 4096,
		MaxCascade:         16,
		BackoffInitial:     time.Millisecond,
		BackoffMax:         time.Second,
	})
	// Buffer size, cascade bound, and one combined backoff option.
	assert.Len(t, opts, 3)
}

func TestSchedulerOptionsBackoffAlone(t *testing.T) {
	opts := schedulerOptions(config.SchedulerConfig{BackoffMax: 2 * time.Second})
	assert.Len(t, opts, 1)
}
