package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/service"
	"github.com/chirpnet/chirp/internal/chirp/store"
	"github.com/chirpnet/chirp/pkg/httpx"
	"github.com/chirpnet/chirp/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	UserService    *service.UserService
	SessionService *service.SessionService
	PostService    *service.PostService
	TrendingGate   *service.RateLimiter
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPosts()
	r.registerTrending()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	authHandler := &AuthHandler{
		UserService:    r.UserService,
		SessionService: r.SessionService,
	}
	passwordHandler := &PasswordHandler{UserService: r.UserService}
	refreshHandler := &RefreshHandler{SessionService: r.SessionService}

	// Registration and login take the strict per-instance limit: both are
	// credential-guessing surfaces.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(authHandler.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(authHandler.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(authHandler.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// Forgot-password is the enumeration-sensitive endpoint; rate limit by
	// IP rather than by submitted email so probing many addresses doesn't
	// dodge the gate.
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(passwordHandler.HandleForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(http.HandlerFunc(passwordHandler.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPosts() {
	h := &PostsHandler{
		PostService:    r.PostService,
		SessionService: r.SessionService,
	}

	r.Mux.Handle("POST /v1/posts",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerTrending() {
	h := &TrendingHandler{
		PostService: r.PostService,
		Gate:        r.TrendingGate,
	}

	// The trending gate is the store-backed fixed-window limiter, not the
	// in-process one: counters must agree across instances.
	r.Mux.Handle("GET /v1/trending", h)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
