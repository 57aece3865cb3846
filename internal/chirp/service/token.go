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
	ErrTokenNotFound    = errors.New("token_not_found")
	ErrTokenAlreadyUsed = errors.New("token_already_used")
	ErrTokenExpired     = errors.New("token_expired")
	ErrTokenMismatch    = errors.New("token_mismatch")
	ErrTokenMalformed   = errors.New("token_malformed")
)

// credentialSeparator joins record id and opaque secret into the single
// value handed to clients. Both halves are base64url (ULID is Crockford
// base32), so "." can never appear inside either.
const credentialSeparator = "."

// TokenService owns the credential token lifecycle: issuing opaque secrets,
// validating presented ones, and consuming records exactly once. Both
// password-reset links and refresh cookies run through it; they differ only
// in purpose and TTL.
type TokenService struct {
	Store store.Store

	// Now is overridable for tests that advance simulated time.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue mints a fresh 32-byte opaque secret, persists its fingerprint with
// the given TTL, and returns the record plus the raw secret. The raw secret
// exists only in the return value: it is never stored and never logged.
// Issue never deduplicates against outstanding tokens; several live tokens
// per owner is allowed.
func (s *TokenService) Issue(
	ctx context.Context,
	userID string,
	purpose domain.TokenPurpose,
	ttl time.Duration,
) (domain.CredentialToken, string, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate token secret", "err", err)
		return domain.CredentialToken{}, "", err
	}

	record := domain.CredentialToken{
		ID:         idx.New().String(),
		UserID:     userID,
		Purpose:    purpose,
		SecretHash: cryptox.FingerprintToken(secret),
		ExpiresAt:  now.Add(ttl),
		Used:       false,
		CreatedAt:  now,
	}

	if err := s.Store.CredentialTokens().CreateToken(ctx, record); err != nil {
		log.Error("failed to persist credential token",
			"token_id", record.ID,
			"purpose", string(purpose),
			"err", err,
		)
		return domain.CredentialToken{}, "", err
	}

	log.Debug("credential token issued",
		"token_id", record.ID,
		"purpose", string(purpose),
		"expires_at", record.ExpiresAt,
	)

	return record, secret, nil
}

// Validate looks up the record and checks it against the presented secret.
// A nil error means the token is consumable right now. The negative
// outcomes are distinct sentinels; used-state is terminal and reported
// ahead of expiry so a redeemed-then-stale token still says "already used".
func (s *TokenService) Validate(
	ctx context.Context,
	id string,
	secret string,
) (domain.CredentialToken, error) {
	record, err := s.Store.CredentialTokens().GetTokenByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CredentialToken{}, ErrTokenNotFound
		}
		return domain.CredentialToken{}, err
	}

	if record.Used {
		return domain.CredentialToken{}, ErrTokenAlreadyUsed
	}
	if !s.now().Before(record.ExpiresAt) {
		return domain.CredentialToken{}, ErrTokenExpired
	}
	if !cryptox.FingerprintMatches(secret, record.SecretHash) {
		return domain.CredentialToken{}, ErrTokenMismatch
	}

	return record, nil
}

// Consume transitions the record to used. The underlying write is
// conditional (used=0 gate), so two racing consumers see exactly one
// success; the loser gets ErrTokenAlreadyUsed. Side effects gated by the
// token belong after this call, or in the same transaction via consumeToken.
func (s *TokenService) Consume(ctx context.Context, id string) error {
	return consumeToken(ctx, s.Store, id)
}

// consumeToken runs the conditional flip against any Store, which lets
// callers consume inside a transaction alongside the gated side effect.
func consumeToken(ctx context.Context, st store.Store, id string) error {
	err := st.CredentialTokens().MarkTokenUsed(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	// Zero rows affected: either the record never existed or someone else
	// won the race. Look once to tell the two apart for diagnostics.
	if _, getErr := st.CredentialTokens().GetTokenByID(ctx, id); getErr != nil {
		if errors.Is(getErr, store.ErrNotFound) {
			return ErrTokenNotFound
		}
		return getErr
	}
	return ErrTokenAlreadyUsed
}

// EncodeCredential packs a record id and raw secret into the transported
// "id.secret" form used in cookies and reset links.
func EncodeCredential(id, secret string) string {
	return id + credentialSeparator + secret
}

// DecodeCredential splits a transported credential back into record id and
// secret. Malformed input gets its own sentinel so handlers can reject it
// without a store round trip.
func DecodeCredential(credential string) (id, secret string, err error) {
	id, secret, ok := strings.Cut(credential, credentialSeparator)
	if !ok || id == "" || secret == "" {
		return "", "", ErrTokenMalformed
	}
	if _, err := idx.Parse(id); err != nil {
		return "", "", ErrTokenMalformed
	}
	return id, secret, nil
}
