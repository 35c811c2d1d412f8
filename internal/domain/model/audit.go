// Package model contains domain models passed between layers.
package model

import "time"

// Audit carries the bookkeeping timestamps every stored record has.
// The persistence layer fills it; the domain never mutates it.
type Audit struct {
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Touch sets ModifiedAt (and CreatedAt on first write) to now.
func (a *Audit) Touch(now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.ModifiedAt = now
}
