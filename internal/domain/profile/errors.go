package profile

import (
	"errors"

	"github.com/okian/techmatch/internal/domain/model"
)

// Sentinel kinds for profile lookups.
var (
	ErrNotFound   = model.ErrNotFound
	ErrDependency = errors.New("profile storage unavailable")
)
