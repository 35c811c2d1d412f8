package catalog

import (
	"errors"

	"github.com/okian/techmatch/internal/domain/model"
)

// Sentinel kinds for catalog errors.
var (
	ErrNotFound    = model.ErrNotFound
	ErrInvalidName = errors.New("technology name must not be empty")
	ErrDependency  = errors.New("catalog storage unavailable")
)
