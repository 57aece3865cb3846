package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/service"
	"github.com/chirpnet/chirp/pkg/httpx"
	"github.com/chirpnet/chirp/pkg/slogx"
)

type PostsHandler struct {
	PostService    *service.PostService
	SessionService *service.SessionService
}

type createPostRequest struct {
	Body string `json:"body"`
}

type postResponse struct {
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleCreate publishes a post on behalf of the session's account.
func (h *PostsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	session, err := resolveSession(r, h.SessionService)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
				Error:            "unauthorized",
				ErrorDescription: "Login required",
			})
			return
		}
		log.Error("failed to resolve session", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to create post",
		})
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	post, err := h.PostService.CreatePost(ctx, session.UserID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostEmpty):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "invalid_post",
				ErrorDescription: "Post body must not be empty",
			})
		case errors.Is(err, service.ErrPostTooLong):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "invalid_post",
				ErrorDescription: "Post body exceeds the maximum length",
			})
		default:
			log.Error("failed to create post", "user_id", session.UserID, "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to create post",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, postResponse{
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Body:      post.Body,
		Tags:      post.Tags,
		CreatedAt: post.CreatedAt,
	})
}
