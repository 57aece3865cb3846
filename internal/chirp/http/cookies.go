package http

import (
	"net/http"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/chirpnet/chirp/internal/chirp/service"
)

// Cookie names for the two credentials a browser holds.
const (
	SessionCookieName = "chirp_session"
	RefreshCookieName = "chirp_refresh"
)

func setSessionCookie(w http.ResponseWriter, session domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// setRefreshCookie stores the "id.secret" refresh credential. Max-Age
// matches the token TTL so the cookie and the record expire together.
func setRefreshCookie(w http.ResponseWriter, credential string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    credential,
		Path:     "/v1/auth",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// resolveSession loads the live session named by the request's cookie. It is
// called explicitly by handlers that need one, so the session travels as a
// plain value instead of ambient request state.
func resolveSession(r *http.Request, sessions *service.SessionService) (domain.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return domain.Session{}, service.ErrSessionNotFound
	}
	return sessions.Resolve(r.Context(), cookie.Value)
}
