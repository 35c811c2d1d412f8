// Package types contains the wire shapes returned by the HTTP API.
package types

import "github.com/okian/techmatch/internal/domain/model"

// FreelancerMatch is one row of a project's freelancer ranking.
type FreelancerMatch struct {
	Rank            int     `json:"rank"`
	FreelancerID    string  `json:"freelancerId"`
	Score           float64 `json:"score"`
	MatchedRequired int     `json:"matchedRequired"`
	TotalRequired   int     `json:"totalRequired"`
	MatchedOptional int     `json:"matchedOptional"`
	TotalOptional   int     `json:"totalOptional"`
	FullyQualified  bool    `json:"fullyQualified"`
	Reputation      float64 `json:"reputation"`
}

// ProjectMatch is one row of a freelancer's project ranking.
type ProjectMatch struct {
	Rank            int     `json:"rank"`
	ProjectID       string  `json:"projectId"`
	Score           float64 `json:"score"`
	MatchedRequired int     `json:"matchedRequired"`
	TotalRequired   int     `json:"totalRequired"`
	MatchedOptional int     `json:"matchedOptional"`
	TotalOptional   int     `json:"totalOptional"`
	FullyQualified  bool    `json:"fullyQualified"`
	Reputation      float64 `json:"reputation"`
}

// Reputation is the review aggregate of one freelancer.
type Reputation struct {
	FreelancerID string  `json:"freelancerId"`
	Mean         float64 `json:"mean"`
	Count        int     `json:"count"`
}

// FreelancerMatches converts ranked rows, numbering ranks from 1. When
// fullyQualifiedOnly is set, rows missing a required technology are left out
// and ranks stay contiguous.
func FreelancerMatches(rows []model.MatchResult, fullyQualifiedOnly bool) []FreelancerMatch {
	out := make([]FreelancerMatch, 0, len(rows))
	for _, r := range rows {
		if fullyQualifiedOnly && !r.FullyQualified {
			continue
		}
		out = append(out, FreelancerMatch{
			Rank:            len(out) + 1,
			FreelancerID:    r.CounterpartID,
			Score:           r.Score,
			MatchedRequired: r.MatchedRequired,
			TotalRequired:   r.TotalRequired,
			MatchedOptional: r.MatchedOptional,
			TotalOptional:   r.TotalOptional,
			FullyQualified:  r.FullyQualified,
			Reputation:      r.Reputation,
		})
	}
	return out
}

// ProjectMatches is the mirror of FreelancerMatches.
func ProjectMatches(rows []model.MatchResult, fullyQualifiedOnly bool) []ProjectMatch {
	out := make([]ProjectMatch, 0, len(rows))
	for _, r := range rows {
		if fullyQualifiedOnly && !r.FullyQualified {
			continue
		}
		out = append(out, ProjectMatch{
			Rank:            len(out) + 1,
			ProjectID:       r.CounterpartID,
			Score:           r.Score,
			MatchedRequired: r.MatchedRequired,
			TotalRequired:   r.TotalRequired,
			MatchedOptional: r.MatchedOptional,
			TotalOptional:   r.TotalOptional,
			FullyQualified:  r.FullyQualified,
			Reputation:      r.Reputation,
		})
	}
	return out
}
