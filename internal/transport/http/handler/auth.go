package handler

import (
	"net/http"

	"github.com/spendsmart-api/internal/application/auth"
	"github.com/spendsmart-api/internal/domain"
)

// AuthHandler handles registration and login endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.RequestRegistration(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "OTP sent to your email. Verify it to complete registration."})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyCodeRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.VerifyRegistration(r.Context(), req.Email, req.OTP)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ResendRegistrationCode(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "A new OTP has been sent to your email"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthEnvelope(res))
}
