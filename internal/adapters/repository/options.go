package repository

import "time"

type options struct {
	metricsUpdateInterval time.Duration
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithMetricsUpdateInterval sets the interval for background record-count
// metrics updates. Zero disables the updater.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval >= 0 {
			o.metricsUpdateInterval = interval
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{metricsUpdateInterval: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
