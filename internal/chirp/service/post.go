package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/chirpnet/chirp/internal/chirp/store"
	"github.com/chirpnet/chirp/pkg/idx"
	"github.com/chirpnet/chirp/pkg/slogx"
)

var (
	ErrPostEmpty   = errors.New("post_empty")
	ErrPostTooLong = errors.New("post_too_long")
)

// DefaultTrendingWindow is how far back the trending aggregation looks.
const DefaultTrendingWindow = 7 * 24 * time.Hour

// DefaultTrendingLimit caps how many tags the trending endpoint returns.
const DefaultTrendingLimit = 10

var hashtagPattern = regexp.MustCompile(`#([A-Za-z0-9_]+)`)

// PostService creates posts and serves the trending aggregation over their
// hashtags.
type PostService struct {
	Store store.Store

	TrendingWindow time.Duration
	TrendingLimit  int

	// Now is overridable for tests that advance simulated time.
	Now func() time.Time
}

func (s *PostService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreatePost stores a post, extracting hashtags from the body so the
// trending query is a plain aggregation.
func (s *PostService) CreatePost(ctx context.Context, authorID, body string) (domain.Post, error) {
	log := slogx.FromContext(ctx)

	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Post{}, ErrPostEmpty
	}
	if utf8.RuneCountInString(body) > domain.MaxPostLength {
		return domain.Post{}, ErrPostTooLong
	}

	post := domain.Post{
		ID:        idx.New().String(),
		AuthorID:  authorID,
		Body:      body,
		Tags:      ExtractHashtags(body),
		CreatedAt: s.now(),
	}

	if err := s.Store.Posts().CreatePost(ctx, post); err != nil {
		log.Error("failed to create post", "author_id", authorID, "err", err)
		return domain.Post{}, err
	}

	log.Debug("post created", "post_id", post.ID, "tags", len(post.Tags))
	return post, nil
}

// Trending returns the most used hashtags inside the configured window.
func (s *PostService) Trending(ctx context.Context) ([]domain.TrendingTag, error) {
	window := s.TrendingWindow
	if window <= 0 {
		window = DefaultTrendingWindow
	}
	limit := s.TrendingLimit
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	return s.Store.Posts().TrendingTags(ctx, s.now().Add(-window), limit)
}

// ExtractHashtags pulls #tags out of a post body, lowercased and deduplicated
// in order of first appearance.
func ExtractHashtags(body string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
