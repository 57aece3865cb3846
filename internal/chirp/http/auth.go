package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chirpnet/chirp/internal/chirp/service"
	"github.com/chirpnet/chirp/pkg/httpx"
	"github.com/chirpnet/chirp/pkg/slogx"
)

type AuthHandler struct {
	UserService    *service.UserService
	SessionService *service.SessionService
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type accountResponse struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// HandleRegister creates an account. It does not log the caller in;
// clients follow up with /v1/auth/login.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	user, err := h.UserService.Register(ctx, req.Username, req.Email, req.DisplayName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAccount):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "Username and a valid email are required",
			})
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "weak_password",
				ErrorDescription: "Password must be at least 8 characters",
			})
		case errors.Is(err, service.ErrAccountExists):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "account_exists",
				ErrorDescription: "Username or email is already registered",
			})
		default:
			log.Error("registration failed", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to register account",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, accountResponse{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	})
}

// HandleLogin verifies credentials, opens a session, and issues the refresh
// cookie whose Max-Age matches the refresh token TTL (30 days when
// remember is set, 24 hours otherwise).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	user, err := h.UserService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
				Error:            "invalid_credentials",
				ErrorDescription: "Unknown username or wrong password",
			})
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to log in",
		})
		return
	}

	established, err := h.SessionService.Establish(ctx, user.ID, req.Remember)
	if err != nil {
		log.Error("failed to establish session", "user_id", user.ID, "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to log in",
		})
		return
	}

	setSessionCookie(w, established.Session)
	setRefreshCookie(w, established.RefreshCredential, established.RefreshTTL)

	httpx.WriteJSON(w, http.StatusOK, accountResponse{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	})
}

// HandleLogout drops the current session and clears both cookies. It
// succeeds even without a live session so repeated logouts stay idempotent.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.SessionService.Logout(ctx, cookie.Value); err != nil {
			slogx.FromContext(ctx).Error("logout failed", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to log out",
			})
			return
		}
	}

	clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}
