package model

import "errors"

// ErrNotFound is shared by storage and domain so lookups can be matched
// with errors.Is on either side of the boundary.
var ErrNotFound = errors.New("not found")
