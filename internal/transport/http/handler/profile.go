package handler

import (
	"net/http"

	"github.com/spendsmart-api/internal/application/user"
	"github.com/spendsmart-api/internal/domain"
	"github.com/spendsmart-api/internal/transport/http/middleware"
)

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	svc user.Service
}

func NewProfileHandler(svc user.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// currentUserID reads the caller's id from the JWT claims, answering 401 when absent.
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return claims.UserID, true
}
