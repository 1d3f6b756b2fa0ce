package api

import (
	"net/http"
)

// notificationLimit is how many notifications the feed returns.
const notificationLimit = 50

// ListNotifications returns the caller's latest notifications, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Store.ListNotifications(r.Context(), principalFrom(r).ID, notificationLimit)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationDTOs(notes))
}

// MarkNotificationsRead marks the given ids, or all of the caller's, as read.
func (h *Handler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var body MarkReadRequest
	if err := decodeJSON(r, &body); err != nil {
		h.HandleError(w, r, err)
		return
	}
	if err := h.Store.MarkRead(r.Context(), principalFrom(r).ID, body.IDs); err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
