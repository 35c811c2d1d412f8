// Package worker delivers queued match events to a Notifier.
package worker

import (
	"time"

	"github.com/okian/techmatch/internal/domain/dedupe"
	"github.com/okian/techmatch/pkg/logger"
)

// Option applies a configuration option to a Dispatcher.
type Option func(*Dispatcher)

// WithName sets the dispatcher name for identification and logging.
func WithName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.name = name
		}
	}
}

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRetry sets how often and how patiently a delivery is retried.
// attempts counts the first try.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
		if delay >= 0 {
			d.delay = delay
		}
	}
}

// WithDeduper suppresses repeat notifications for the same match.
func WithDeduper(dd dedupe.Deduper) Option {
	return func(d *Dispatcher) {
		d.deduper = dd
	}
}

// WithBucketWidth sets the score granularity used for repeat suppression.
func WithBucketWidth(width float64) Option {
	return func(d *Dispatcher) {
		if width > 0 {
			d.bucketWidth = width
		}
	}
}

func withFlights(f *flights) Option {
	return func(d *Dispatcher) {
		d.flights = f
	}
}
