package http

import (
	"net/http"
	"strconv"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/chirpnet/chirp/internal/chirp/service"
	"github.com/chirpnet/chirp/pkg/httpx"
	"github.com/chirpnet/chirp/pkg/slogx"
)

// TrendingHandler serves the hashtag leaderboard behind the store-backed
// fixed-window gate. Successful responses carry shared-cache headers; the
// gate plus the cache window together bound read load on the store.
type TrendingHandler struct {
	PostService *service.PostService
	Gate        *service.RateLimiter
}

type trendingResponse struct {
	Tags []domain.TrendingTag `json:"tags"`
}

func (h *TrendingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	key := httpx.IPKeyExtractor(r)
	if key == "" {
		key = "unknown"
	}

	result, err := h.Gate.Check(ctx, key)
	if err != nil {
		log.Error("trending gate check failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to load trending tags",
		})
		return
	}

	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

	if !result.Allowed {
		retryAfter := int(result.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		httpx.WriteJSON(w, http.StatusTooManyRequests, httpx.ErrorResponse{
			Error:            "rate_limited",
			ErrorDescription: "Too many requests, slow down",
		})
		return
	}

	tags, err := h.PostService.Trending(ctx)
	if err != nil {
		log.Error("failed to load trending tags", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to load trending tags",
		})
		return
	}
	if tags == nil {
		tags = []domain.TrendingTag{}
	}

	httpx.WriteCachedJSON(w, http.StatusOK, 60, 300, trendingResponse{Tags: tags})
}
