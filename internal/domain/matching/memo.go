package matching

import (
	"sync"

	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/internal/domain/scoring"
)

// scoreMemo reuses scoring results within one ranking call. Candidates that
// declare the same technologies share a fingerprint and are scored once.
// It never outlives the call, so profile edits are always seen.
type scoreMemo struct {
	scorer *scoring.Scorer
	mu     sync.Mutex
	byKey  map[string]scoring.Result
}

func newScoreMemo(s *scoring.Scorer) *scoreMemo {
	return &scoreMemo{scorer: s, byKey: make(map[string]scoring.Result)}
}

func (m *scoreMemo) score(skills model.SkillSet, reqs model.RequirementSet) scoring.Result {
	key := scoring.Fingerprint(skills, reqs)
	m.mu.Lock()
	res, ok := m.byKey[key]
	m.mu.Unlock()
	if ok {
		return res
	}
	res = m.scorer.Score(skills, reqs)
	m.mu.Lock()
	m.byKey[key] = res
	m.mu.Unlock()
	return res
}

func (m *scoreMemo) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}
