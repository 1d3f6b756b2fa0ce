package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/timeoff"
)

// =============================================================================
// TEAM ENDPOINTS (manager only)
// =============================================================================

// ListTeamBalances returns every user's work-remote balance, ordered by name.
func (h *Handler) ListTeamBalances(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.TeamBalances(r.Context(), principalFrom(r))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	out := make([]TeamBalanceDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTeamBalanceDTO(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// SetTeamBalance sets one user's allowance, or everyone's with setAll.
func (h *Handler) SetTeamBalance(w http.ResponseWriter, r *http.Request) {
	var body SetBalanceRequest
	if err := decodeJSON(r, &body); err != nil {
		h.HandleError(w, r, err)
		return
	}
	if body.Balance == nil {
		h.HandleError(w, r, fmt.Errorf("%w: balance is required", timeoff.ErrInvalidInput))
		return
	}
	allowance := generic.Days(*body.Balance)
	if err := h.Service.SetBalance(r.Context(), principalFrom(r), body.UserID, body.SetAll, allowance); err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UpdateMember changes another user's role and/or password.
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var body MemberUpdateRequest
	if err := decodeJSON(r, &body); err != nil {
		h.HandleError(w, r, err)
		return
	}
	u, err := h.Service.UpdateMember(r.Context(), principalFrom(r), chi.URLParam(r, "id"), timeoff.MemberUpdate{
		Role:        auth.Role(body.Role),
		NewPassword: body.NewPassword,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// RemoveMember deletes a user with their requests and notifications.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveMember(r.Context(), principalFrom(r), chi.URLParam(r, "id")); err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
