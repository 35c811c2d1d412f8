package api

import (
	"net/http"
)

// CatalogHandler handles technology catalog lookups.
type CatalogHandler struct {
	deps Dependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps Dependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleSearch handles GET /catalog/search?q=keyword.
func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.SearchTech(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
