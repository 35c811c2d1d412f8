package api

import "net/http"

// NotificationHandler lists delivered match notifications.
type NotificationHandler struct {
	deps Dependencies
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(deps Dependencies) *NotificationHandler {
	return &NotificationHandler{deps: deps}
}

// HandleList handles GET /notifications/{recipientId}.
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	notes, err := h.deps.ListNotifications(r.Context(), r.PathValue("recipientId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}
