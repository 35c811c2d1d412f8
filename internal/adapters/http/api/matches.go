package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/techmatch/internal/domain/types"
)

// MatchHandler serves both ranking directions.
type MatchHandler struct {
	deps          Dependencies
	maxCandidates int
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies, maxCandidates int) *MatchHandler {
	if maxCandidates < 1 {
		maxCandidates = defaultMaxCandidates
	}
	return &MatchHandler{deps: deps, maxCandidates: maxCandidates}
}

// HandleFreelancersForProject handles
// GET /matches/projects/{projectId}/freelancers?candidates=a,b&fullyQualified=true.
// Without candidates every available freelancer is ranked.
func (h *MatchHandler) HandleFreelancersForProject(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.PathValue("projectId"))
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	q, err := h.parse(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !q.given {
		ids, err := h.deps.FindAvailableFreelancers(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		q.candidates = ids
	}

	rows, err := h.deps.RankFreelancersForProject(r.Context(), projectID, q.candidates)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FreelancerMatches(rows, q.fullyQualified))
}

// HandleProjectsForFreelancer handles
// GET /matches/freelancers/{freelancerId}/projects?candidates=a,b&fullyQualified=true.
func (h *MatchHandler) HandleProjectsForFreelancer(w http.ResponseWriter, r *http.Request) {
	freelancerID := strings.TrimSpace(r.PathValue("freelancerId"))
	if freelancerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	q, err := h.parse(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !q.given {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingCandidates)
		return
	}

	rows, err := h.deps.RankProjectsForFreelancer(r.Context(), freelancerID, q.candidates)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ProjectMatches(rows, q.fullyQualified))
}

type matchQuery struct {
	candidates     []string
	given          bool
	fullyQualified bool
}

func (h *MatchHandler) parse(r *http.Request) (matchQuery, error) {
	var q matchQuery
	values := r.URL.Query()

	if values.Has("candidates") {
		q.given = true
		for _, raw := range values["candidates"] {
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					q.candidates = append(q.candidates, id)
				}
			}
		}
		if len(q.candidates) > h.maxCandidates {
			return q, fmt.Errorf("%w: %d > %d", ErrTooManyCandidates, len(q.candidates), h.maxCandidates)
		}
	}

	if raw := values.Get("fullyQualified"); raw != "" {
		fq, err := strconv.ParseBool(raw)
		if err != nil {
			return q, ErrInvalidQueryFilter
		}
		q.fullyQualified = fq
	}
	return q, nil
}
