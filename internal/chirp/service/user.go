package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/chirpnet/chirp/internal/chirp/store"
	"github.com/chirpnet/chirp/pkg/cryptox"
	"github.com/chirpnet/chirp/pkg/idx"
	"github.com/chirpnet/chirp/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountExists      = errors.New("account_exists")
	ErrInvalidAccount     = errors.New("invalid_account")
	ErrWeakPassword       = errors.New("weak_password")
)

// MinPasswordLength is the minimum accepted password size.
const MinPasswordLength = 8

// DefaultResetTokenTTL is how long a password-reset link stays redeemable.
const DefaultResetTokenTTL = time.Hour

// UserService handles accounts: registration, password verification, and
// the password-reset flow built on top of TokenService.
type UserService struct {
	Store  store.Store
	Tokens *TokenService
	Mailer Mailer

	// ResetTTL overrides DefaultResetTokenTTL when non-zero.
	ResetTTL time.Duration
}

func (s *UserService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultResetTokenTTL
}

// Register creates a new account with an argon2id password digest.
func (s *UserService) Register(
	ctx context.Context,
	username, email, displayName, password string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}

	if username == "" || email == "" || !strings.Contains(email, "@") {
		return domain.User{}, ErrInvalidAccount
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", "err", err)
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrAccountExists
		}
		log.Error("failed to create user", "username", username, "err", err)
		return domain.User{}, err
	}

	log.Info("user registered", "user_id", user.ID, "username", username)
	return user, nil
}

// Authenticate verifies a username/password pair. It returns the same error
// for unknown usernames and wrong passwords.
func (s *UserService) Authenticate(
	ctx context.Context,
	username, password string,
) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// RequestPasswordReset starts the forgot-password flow. Whether or not the
// email matches an account the caller gets a nil error, so account
// existence cannot be read off the response; only store or mail transport
// failures surface. On a hit it issues a reset token and hands the
// credential to the mailer.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	record, secret, err := s.Tokens.Issue(ctx, user.ID, domain.TokenPurposeReset, s.resetTTL())
	if err != nil {
		return err
	}

	if err := s.Mailer.SendPasswordReset(ctx, user.Email, EncodeCredential(record.ID, secret), record.ExpiresAt); err != nil {
		log.Error("failed to dispatch password reset mail", "user_id", user.ID, "err", err)
		return err
	}

	log.Info("password reset token issued", "user_id", user.ID, "token_id", record.ID)
	return nil
}

// ResetPassword redeems a reset credential: it validates the token, then in
// one transaction consumes it, swaps the password digest, and deletes every
// session the account holds. The consume is the conditional write, so a
// concurrent redemption of the same link leaves exactly one winner.
func (s *UserService) ResetPassword(ctx context.Context, credential, newPassword string) error {
	log := slogx.FromContext(ctx)

	id, secret, err := DecodeCredential(credential)
	if err != nil {
		return err
	}

	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	record, err := s.Tokens.Validate(ctx, id, secret)
	if err != nil {
		return err
	}
	if record.Purpose != domain.TokenPurposeReset {
		return ErrTokenMismatch
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", "err", err)
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := consumeToken(ctx, tx, record.ID); err != nil {
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, record.UserID, hash); err != nil {
			return err
		}
		return tx.Sessions().DeleteUserSessions(ctx, record.UserID)
	})
	if err != nil {
		return err
	}

	log.Info("password reset completed", "user_id", record.UserID, "token_id", record.ID)
	return nil
}
