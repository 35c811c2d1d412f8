package dedupe

import "time"

// Option applies a configuration option to the in-memory Deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps the number of remembered keys. The oldest key is evicted
// first. maxSize <= 0 keeps every key.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithWindow makes a key count as seen only for d after it was recorded.
// Zero keeps keys until evicted.
func WithWindow(window time.Duration) Option {
	return func(d *inMemoryDeduper) {
		if window >= 0 {
			d.window = window
		}
	}
}

// WithClock overrides the time source used for the window.
func WithClock(now func() time.Time) Option {
	return func(d *inMemoryDeduper) {
		if now != nil {
			d.now = now
		}
	}
}
