package model

import (
	"sort"
	"strings"
)

// TechID identifies a catalog entry.
type TechID int64

// TechEntry is a canonical technology identity. Names are unique
// case-insensitively across the whole catalog.
type TechEntry struct {
	ID       TechID `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Audit
}

// NormalizeTechName returns the lookup key used for case-insensitive identity.
func NormalizeTechName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SkillSet is the set of technologies a freelancer declares.
type SkillSet map[TechID]struct{}

// NewSkillSet builds a SkillSet from ids, collapsing duplicates.
func NewSkillSet(ids ...TechID) SkillSet {
	s := make(SkillSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is part of the set.
func (s SkillSet) Has(id TechID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of distinct technologies.
func (s SkillSet) Len() int { return len(s) }

// IDs returns the members in ascending order.
func (s SkillSet) IDs() []TechID {
	out := make([]TechID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RequirementSet maps each technology a project declares to whether it is
// required (true) or optional (false). A technology appears at most once.
type RequirementSet map[TechID]bool

// Required returns the required technology ids in ascending order.
func (r RequirementSet) Required() []TechID { return r.filter(true) }

// Optional returns the optional technology ids in ascending order.
func (r RequirementSet) Optional() []TechID { return r.filter(false) }

// Scoreable reports whether at least one technology is required.
func (r RequirementSet) Scoreable() bool {
	for _, required := range r {
		if required {
			return true
		}
	}
	return false
}

func (r RequirementSet) filter(required bool) []TechID {
	out := make([]TechID, 0, len(r))
	for id, req := range r {
		if req == required {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
