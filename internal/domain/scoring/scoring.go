// Package scoring compares a freelancer's skill set with a project's
// requirement set and orders the outcomes.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/techmatch/internal/domain/model"
)

// Default weighting of required vs optional coverage.
const (
	DefaultRequiredWeight = 0.8
	DefaultOptionalWeight = 0.2

	// Unscoreable is the Value of a Result whose requirement set declares no
	// required technology. Zero is a legitimate score, so it cannot be used.
	Unscoreable = -1.0

	weightTolerance = 1e-9
)

// Weights splits the score between required and optional coverage.
type Weights struct {
	Required float64
	Optional float64
}

// DefaultWeights returns the 0.8 / 0.2 split.
func DefaultWeights() Weights {
	return Weights{Required: DefaultRequiredWeight, Optional: DefaultOptionalWeight}
}

// Validate checks that both weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	if w.Required < 0 || w.Optional < 0 {
		return fmt.Errorf("%w: negative weight (required=%v optional=%v)", ErrInvalidWeights, w.Required, w.Optional)
	}
	if math.Abs(w.Required+w.Optional-1) > weightTolerance {
		return fmt.Errorf("%w: weights must sum to 1 (got %v)", ErrInvalidWeights, w.Required+w.Optional)
	}
	return nil
}

// Result is the structured outcome of one comparison.
type Result struct {
	MatchedRequired int
	TotalRequired   int
	MatchedOptional int
	TotalOptional   int
	Value           float64
	FullyQualified  bool
}

// Scoreable reports whether the result took part in an actual evaluation.
func (r Result) Scoreable() bool { return r.TotalRequired > 0 }

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights sets the required/optional split. Invalid weights are ignored;
// callers validate configuration up front.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		if w.Validate() == nil {
			s.weights = w
		}
	}
}

// Scorer holds the weighting; Score itself is pure.
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer with the default weights unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the configured split.
func (s *Scorer) Weights() Weights { return s.weights }

// Score compares skills against requirements. Identical inputs always yield
// an identical Result.
func (s *Scorer) Score(skills model.SkillSet, requirements model.RequirementSet) Result {
	return Score(skills, requirements, s.weights)
}

// Score is the free-function form used by Scorer.
func Score(skills model.SkillSet, requirements model.RequirementSet, w Weights) Result {
	var res Result
	for id, required := range requirements {
		has := skills.Has(id)
		if required {
			res.TotalRequired++
			if has {
				res.MatchedRequired++
			}
			continue
		}
		res.TotalOptional++
		if has {
			res.MatchedOptional++
		}
	}

	if res.TotalRequired == 0 {
		res.Value = Unscoreable
		return res
	}

	requiredCoverage := float64(res.MatchedRequired) / float64(res.TotalRequired)
	optionalCoverage := 0.0
	if res.TotalOptional > 0 {
		optionalCoverage = float64(res.MatchedOptional) / float64(res.TotalOptional)
	}

	// Optional coverage only counts once some required technology is met.
	if res.MatchedRequired > 0 {
		res.Value = requiredCoverage*w.Required + optionalCoverage*w.Optional
	}
	res.FullyQualified = res.MatchedRequired == res.TotalRequired
	return res
}
