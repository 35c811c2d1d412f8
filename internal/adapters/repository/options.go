package repository

import "time"

// settings holds options shared by every Store implementation.
type settings struct {
	now func() time.Time
}

func defaultSettings() settings {
	return settings{now: func() time.Time { return time.Now().UTC() }}
}

// Option applies a configuration option to a Store.
type Option func(*settings)

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
