package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrInvalidWeights = errors.New("invalid scoring weights")
	ErrUnscoreable    = errors.New("requirement set has no required technologies")
)
