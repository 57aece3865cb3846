package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chirpnet/chirp/internal/chirp/service"
	"github.com/chirpnet/chirp/pkg/httpx"
	"github.com/chirpnet/chirp/pkg/slogx"
)

type PasswordHandler struct {
	UserService *service.UserService
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type forgotResponse struct {
	Message string `json:"message"`
}

// HandleForgot accepts a password-reset request. The response body is the
// same whether or not the email belongs to an account, so this endpoint
// cannot be used to enumerate registered addresses.
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	if err := h.UserService.RequestPasswordReset(ctx, req.Email); err != nil {
		// Infrastructure failures only; an unknown email is not an error.
		log.Error("password reset request failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to process request",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, forgotResponse{
		Message: "If that email is registered, a reset link has been sent",
	})
}

// HandleReset redeems a reset credential. Unlike the forgot endpoint this
// one distinguishes failure reasons: the caller already holds a link, so
// telling them it was spent or expired leaks nothing about accounts.
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	err := h.UserService.ResetPassword(ctx, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenAlreadyUsed):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "token_used",
				ErrorDescription: "Token already used",
			})
		case errors.Is(err, service.ErrTokenNotFound),
			errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrTokenMismatch),
			errors.Is(err, service.ErrTokenMalformed):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "invalid_token",
				ErrorDescription: "Invalid or expired token",
			})
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "weak_password",
				ErrorDescription: "Password must be at least 8 characters",
			})
		default:
			log.Error("password reset failed", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to reset password",
			})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
