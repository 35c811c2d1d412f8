package repository

import (
	"errors"

	"github.com/okian/techmatch/internal/domain/model"
)

// Sentinel kinds for storage errors.
var (
	ErrNotFound      = model.ErrNotFound
	ErrFrozen        = errors.New("project requirements are frozen")
	ErrInvalidRating = errors.New("rating out of bounds")
	ErrInvalidInput  = errors.New("invalid input")
)
