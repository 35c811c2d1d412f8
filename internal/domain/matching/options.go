package matching

import (
	"time"

	"github.com/okian/techmatch/internal/domain/scoring"
	"github.com/okian/techmatch/pkg/logger"
)

// Default orchestration settings.
const (
	DefaultThreshold   = 0.5
	DefaultTimeout     = 2 * time.Second
	DefaultConcurrency = 16
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithWeights sets the required/optional split used for scoring.
func WithWeights(w scoring.Weights) Option {
	return func(o *Orchestrator) {
		o.scorer = scoring.NewScorer(scoring.WithWeights(w))
	}
}

// WithThreshold sets the minimum score that emits a MatchEvent.
func WithThreshold(threshold float64) Option {
	return func(o *Orchestrator) {
		if threshold >= 0 && threshold <= 1 {
			o.threshold = threshold
		}
	}
}

// WithTimeout sets the per-call ranking deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithConcurrency bounds concurrent candidate evaluations within one call.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithEmitter sets where match events go.
func WithEmitter(e Emitter) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.emitter = e
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}
