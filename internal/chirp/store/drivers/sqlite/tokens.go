package sqlite

import (
	"context"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
	"github.com/chirpnet/chirp/internal/chirp/store"
)

type credentialTokensRepo struct {
	q querier
}

func (r *credentialTokensRepo) CreateToken(ctx context.Context, t domain.CredentialToken) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO credential_tokens (id, user_id, purpose, secret_hash, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		t.ID, t.UserID, string(t.Purpose), t.SecretHash, toUnix(t.ExpiresAt), toUnix(createdAt),
	)
	return mapConflict(err)
}

func (r *credentialTokensRepo) GetTokenByID(ctx context.Context, id string) (domain.CredentialToken, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, purpose, secret_hash, expires_at, used, created_at
		FROM credential_tokens WHERE id = ?`, id,
	)

	var t domain.CredentialToken
	var purpose string
	var expiresAt, createdAt int64
	var used int
	err := row.Scan(&t.ID, &t.UserID, &purpose, &t.SecretHash, &expiresAt, &used, &createdAt)
	if err != nil {
		return domain.CredentialToken{}, mapNotFound(err)
	}

	t.Purpose = domain.TokenPurpose(purpose)
	t.ExpiresAt = fromUnix(expiresAt)
	t.Used = used != 0
	t.CreatedAt = fromUnix(createdAt)
	return t, nil
}

// MarkTokenUsed is the consumption linearization point: the WHERE used = 0
// predicate makes the flip conditional, so of two racing consumers exactly
// one sees a row affected.
func (r *credentialTokensRepo) MarkTokenUsed(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE credential_tokens SET used = 1 WHERE id = ? AND used = 0`, id,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
