// Package matchcheck drives a running techmatch service over HTTP and
// checks that every ranking it returns is well formed.
package matchcheck

import (
	"errors"
	"time"
)

// ErrInvalidConfig is returned when a Config cannot drive a run.
var ErrInvalidConfig = errors.New("invalid matchcheck config")

// Config holds configuration for a check run.
type Config struct {
	BaseURL       string        // Base URL of the service
	ProjectIDs    []string      // Projects whose freelancer ranking is checked
	FreelancerIDs []string      // Freelancers whose project ranking is checked
	SeedFile      string        // Optional fixture to take ids from
	Workers       int           // Concurrent requests
	Timeout       time.Duration // HTTP request timeout
	HealthRetries int           // Health probes before giving up
	OutputFile    string        // Optional JSON report path
}

// Validate checks the config is usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.Join(ErrInvalidConfig, errors.New("base url must not be empty"))
	}
	if len(c.ProjectIDs) == 0 && len(c.FreelancerIDs) == 0 {
		return errors.Join(ErrInvalidConfig, errors.New("no project or freelancer ids to check"))
	}
	if c.Workers < 1 {
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	}
	return nil
}

// Row is the direction-independent view of one ranking row.
type Row struct {
	Rank            int     `json:"rank"`
	ID              string  `json:"id"`
	Score           float64 `json:"score"`
	MatchedRequired int     `json:"matchedRequired"`
	TotalRequired   int     `json:"totalRequired"`
	FullyQualified  bool    `json:"fullyQualified"`
	Reputation      float64 `json:"reputation"`
}

// Outcome is the result of checking one ranking.
type Outcome struct {
	Direction  string   `json:"direction"`
	SubjectID  string   `json:"subjectId"`
	Rows       int      `json:"rows"`
	Status     int      `json:"status"`
	Violations []string `json:"violations,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// OK reports whether the ranking passed.
func (o Outcome) OK() bool { return o.Error == "" && len(o.Violations) == 0 }

// Report summarizes a run.
type Report struct {
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Checked   int           `json:"checked"`
	Failed    int           `json:"failed"`
	Outcomes  []Outcome     `json:"outcomes"`
}
