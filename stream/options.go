package stream

import (
	"github.com/TTCRadio/gnuradio/metric"
)

// Option configures buffer behavior using the functional options pattern.
type Option func(*bufferOptions)

// bufferOptions holds internal configuration for buffer instances.
// Stats are ALWAYS collected; Prometheus export is opt-in via WithMetrics.
type bufferOptions struct {
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
}

// WithMetrics enables Prometheus metrics export for buffer statistics.
// If registry is nil or prefix is empty, the option is ignored.
func WithMetrics(registry *metric.MetricsRegistry, prefix string) Option {
	return func(opts *bufferOptions) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// applyOptions applies functional options to create final buffer configuration.
func applyOptions(options ...Option) *bufferOptions {
	opts := &bufferOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
