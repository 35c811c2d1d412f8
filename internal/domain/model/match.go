package model

import "time"

// MatchResult is one ranked row. SubjectID is the entity the ranking was
// requested for; CounterpartID is the ranked candidate.
type MatchResult struct {
	SubjectID       string
	CounterpartID   string
	Score           float64
	MatchedRequired int
	TotalRequired   int
	MatchedOptional int
	TotalOptional   int
	FullyQualified  bool
	Reputation      float64
}

// MatchEvent is a notification-worthy outcome of a ranking call.
type MatchEvent struct {
	ID            string
	SubjectID     string
	CounterpartID string
	Score         float64
	Timestamp     time.Time
}

// Notification is a persisted, delivered MatchEvent addressed to one recipient.
type Notification struct {
	ID            string    `json:"id"`
	RecipientID   string    `json:"recipientId"`
	EventID       string    `json:"eventId"`
	SubjectID     string    `json:"subjectId"`
	CounterpartID string    `json:"counterpartId"`
	Score         float64   `json:"score"`
	CreatedAt     time.Time `json:"createdAt"`
}
