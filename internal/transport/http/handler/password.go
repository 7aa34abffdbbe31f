package handler

import (
	"net/http"

	"github.com/spendsmart-api/internal/application/auth"
	"github.com/spendsmart-api/internal/domain"
)

// PasswordHandler handles the forgot-password flow.
type PasswordHandler struct {
	svc auth.Service
}

func NewPasswordHandler(svc auth.Service) *PasswordHandler { return &PasswordHandler{svc: svc} }

func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset OTP sent to your email"})
}

func (h *PasswordHandler) VerifyResetOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.VerifyPasswordResetCode(r.Context(), req.Email, req.OTP); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP verified successfully. You can now reset your password."})
}

func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successful. You can now login with your new password."})
}

func (h *PasswordHandler) ResendResetOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ResendPasswordResetCode(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "New password reset OTP sent to your email"})
}
