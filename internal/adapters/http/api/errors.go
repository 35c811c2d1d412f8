package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/techmatch/internal/domain/catalog"
	"github.com/okian/techmatch/internal/domain/matching"
	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/internal/domain/profile"
	"github.com/okian/techmatch/internal/domain/reputation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest         = errors.New("bad request")
	ErrTooManyCandidates  = errors.New("too many candidates")
	ErrMissingCandidates  = errors.New("candidates query parameter is required")
	ErrInvalidQueryFilter = errors.New("fullyQualified must be true or false")
)

// statusFor maps domain errors onto HTTP status codes and error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, matching.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, matching.ErrDependency),
		errors.Is(err, catalog.ErrDependency),
		errors.Is(err, profile.ErrDependency),
		errors.Is(err, reputation.ErrDependency):
		return http.StatusBadGateway, "dependency_error"
	case errors.Is(err, catalog.ErrInvalidName), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
