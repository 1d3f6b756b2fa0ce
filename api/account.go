package api

import (
	"net/http"
)

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

// Signup registers a new user. The first account becomes a manager.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var body SignupRequest
	if err := decodeJSON(r, &body); err != nil {
		h.HandleError(w, r, err)
		return
	}
	u, err := h.Service.Signup(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  string(u.Role),
	})
}

// Login exchanges credentials for an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := decodeJSON(r, &body); err != nil {
		h.HandleError(w, r, err)
		return
	}
	u, err := h.Service.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	token, expiresAt, err := h.Tokens.Issue(u.Principal())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, User: toUserDTO(u)})
}

// GetProfile returns the caller's record.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Profile(r.Context(), principalFrom(r))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// UpdateProfile changes the caller's name and/or team.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body ProfileUpdateRequest
	if err := decodeJSON(r, &body); err != nil {
		h.HandleError(w, r, err)
		return
	}
	u, err := h.Service.UpdateProfile(r.Context(), principalFrom(r), body.toUpdate())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}
