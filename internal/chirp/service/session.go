package service

import (
	"context"
	"errors"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/chirpnet/chirp/internal/chirp/store"
	"github.com/chirpnet/chirp/pkg/cryptox"
	"github.com/chirpnet/chirp/pkg/idx"
	"github.com/chirpnet/chirp/pkg/slogx"
)

var ErrSessionNotFound = errors.New("session_not_found")

// Default lifetimes. Refresh TTL tracks whether the login asked to be
// remembered; the cookie max-age matches whichever applies.
const (
	DefaultSessionTTL         = 30 * time.Minute
	DefaultRefreshTTL         = 24 * time.Hour
	DefaultRememberRefreshTTL = 30 * 24 * time.Hour
)

// Refreshed is what a successful login or refresh hands back to the HTTP
// layer: the new session plus the replacement refresh credential and the
// TTL the refresh cookie should carry.
type Refreshed struct {
	Session           domain.Session
	RefreshCredential string
	RefreshTTL        time.Duration
}

// SessionService establishes and tears down server-side sessions and drives
// refresh-token rotation. The token core only marks the old record used;
// minting the replacement session is this service's job, as the caller of
// that core.
type SessionService struct {
	Store  store.Store
	Tokens *TokenService

	SessionTTL         time.Duration
	RefreshTTL         time.Duration
	RememberRefreshTTL time.Duration

	// Now is overridable for tests that advance simulated time.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SessionService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}

func (s *SessionService) refreshTTL(remember bool) time.Duration {
	if remember {
		if s.RememberRefreshTTL > 0 {
			return s.RememberRefreshTTL
		}
		return DefaultRememberRefreshTTL
	}
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

// Establish creates a session and a refresh token for an already
// authenticated user. remember selects the 30-day refresh TTL over the
// 24-hour one.
func (s *SessionService) Establish(ctx context.Context, userID string, remember bool) (Refreshed, error) {
	log := slogx.FromContext(ctx)
	now := s.now()
	ttl := s.refreshTTL(remember)

	session := domain.Session{
		ID:        idx.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL()),
		CreatedAt: now,
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		log.Error("failed to create session", "user_id", userID, "err", err)
		return Refreshed{}, err
	}

	record, secret, err := s.Tokens.Issue(ctx, userID, domain.TokenPurposeRefresh, ttl)
	if err != nil {
		return Refreshed{}, err
	}

	log.Info("session established", "user_id", userID, "session_id", session.ID)

	return Refreshed{
		Session:           session,
		RefreshCredential: EncodeCredential(record.ID, secret),
		RefreshTTL:        ttl,
	}, nil
}

// Refresh rotates a refresh credential: validate, then atomically consume
// the old record, persist its replacement, and open a fresh session. The
// replacement token inherits the lifetime the consumed one was issued with,
// so a remembered login stays remembered across rotations.
func (s *SessionService) Refresh(ctx context.Context, credential string) (Refreshed, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	id, secret, err := DecodeCredential(credential)
	if err != nil {
		return Refreshed{}, err
	}

	record, err := s.Tokens.Validate(ctx, id, secret)
	if err != nil {
		return Refreshed{}, err
	}
	if record.Purpose != domain.TokenPurposeRefresh {
		return Refreshed{}, ErrTokenMismatch
	}

	ttl := record.ExpiresAt.Sub(record.CreatedAt)

	newSecret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return Refreshed{}, err
	}

	replacement := domain.CredentialToken{
		ID:         idx.New().String(),
		UserID:     record.UserID,
		Purpose:    domain.TokenPurposeRefresh,
		SecretHash: cryptox.FingerprintToken(newSecret),
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}

	session := domain.Session{
		ID:        idx.New().String(),
		UserID:    record.UserID,
		ExpiresAt: now.Add(s.sessionTTL()),
		CreatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := consumeToken(ctx, tx, record.ID); err != nil {
			return err
		}
		if err := tx.CredentialTokens().CreateToken(ctx, replacement); err != nil {
			return err
		}
		return tx.Sessions().CreateSession(ctx, session)
	})
	if err != nil {
		if !errors.Is(err, ErrTokenAlreadyUsed) {
			log.Error("refresh rotation failed", "token_id", record.ID, "err", err)
		}
		return Refreshed{}, err
	}

	log.Info("refresh token rotated",
		"user_id", record.UserID,
		"old_token_id", record.ID,
		"new_token_id", replacement.ID,
	)

	return Refreshed{
		Session:           session,
		RefreshCredential: EncodeCredential(replacement.ID, newSecret),
		RefreshTTL:        ttl,
	}, nil
}

// Resolve loads a live session by id. Expired or missing sessions both
// report ErrSessionNotFound.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	if session.Expired(s.now()) {
		return domain.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Logout removes the session. Deleting an unknown id is not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	return s.Store.Sessions().DeleteSession(ctx, sessionID)
}
