package reputation

import "errors"

// ErrDependency wraps storage failures while aggregating reviews.
var ErrDependency = errors.New("review storage unavailable")
