package model

import "time"

// Rating bounds for reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// ReviewStatus marks a review live or tombstoned.
type ReviewStatus string

// Review statuses. Deleted reviews stay stored for audit history.
const (
	ReviewActive  ReviewStatus = "active"
	ReviewDeleted ReviewStatus = "deleted"
)

// Review is one party's rating of a freelancer.
type Review struct {
	ID        string       `json:"id"`
	AuthorID  string       `json:"authorId"`
	TargetID  string       `json:"targetId"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment,omitempty"`
	Status    ReviewStatus `json:"status"`
	DeletedAt *time.Time   `json:"deletedAt,omitempty"`
	Audit
}

// Deleted reports whether the review has been tombstoned.
func (r Review) Deleted() bool { return r.Status == ReviewDeleted }

// ValidRating reports whether rating is inside the accepted bounds.
func ValidRating(rating int) bool { return rating >= MinRating && rating <= MaxRating }
