package matching

import (
	"errors"

	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/internal/domain/scoring"
)

// Sentinel kinds surfaced by ranking calls. ErrUnscoreable is never returned
// from a ranking call; it names the state that yields an empty result.
var (
	ErrNotFound    = model.ErrNotFound
	ErrUnscoreable = scoring.ErrUnscoreable
	ErrTimeout     = errors.New("ranking deadline exceeded")
	ErrDependency  = errors.New("ranking dependency failed")
)
