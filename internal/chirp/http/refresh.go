package http

import (
	"errors"
	"net/http"

	"github.com/chirpnet/chirp/internal/chirp/service"
	"github.com/chirpnet/chirp/pkg/httpx"
	"github.com/chirpnet/chirp/pkg/slogx"
)

// RefreshHandler rotates the refresh credential held in the chirp_refresh
// cookie. Every failure mode is a flat 401: a refresh caller gains nothing
// from knowing whether its credential was missing, spent, or expired.
type RefreshHandler struct {
	SessionService *service.SessionService
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
			Error:            "invalid_token",
			ErrorDescription: "Missing or invalid refresh token",
		})
		return
	}

	refreshed, err := h.SessionService.Refresh(ctx, cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenNotFound),
			errors.Is(err, service.ErrTokenAlreadyUsed),
			errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrTokenMismatch),
			errors.Is(err, service.ErrTokenMalformed):
			clearAuthCookies(w)
			httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
				Error:            "invalid_token",
				ErrorDescription: "Missing or invalid refresh token",
			})
		default:
			log.Error("refresh failed", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to refresh session",
			})
		}
		return
	}

	setSessionCookie(w, refreshed.Session)
	setRefreshCookie(w, refreshed.RefreshCredential, refreshed.RefreshTTL)
	w.WriteHeader(http.StatusNoContent)
}
