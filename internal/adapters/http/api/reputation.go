package api

import (
	"net/http"

	"github.com/okian/techmatch/internal/domain/types"
)

// ReputationHandler serves freelancer reputation.
type ReputationHandler struct {
	deps Dependencies
}

// NewReputationHandler creates a new reputation handler.
func NewReputationHandler(deps Dependencies) *ReputationHandler {
	return &ReputationHandler{deps: deps}
}

// HandleGetReputation handles GET /freelancers/{freelancerId}/reputation.
func (h *ReputationHandler) HandleGetReputation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("freelancerId")
	score, err := h.deps.ReputationOf(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Reputation{FreelancerID: id, Mean: score.Mean, Count: score.Count})
}
