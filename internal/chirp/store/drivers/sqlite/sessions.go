package sqlite

import (
	"context"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
)

type sessionsRepo struct {
	q querier
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		s.ID, s.UserID, toUnix(s.ExpiresAt), toUnix(createdAt),
	)
	return mapConflict(err)
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?`, id,
	)

	var s domain.Session
	var expiresAt, createdAt int64
	if err := row.Scan(&s.ID, &s.UserID, &expiresAt, &createdAt); err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.ExpiresAt = fromUnix(expiresAt)
	s.CreatedAt = fromUnix(createdAt)
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toUnix(now))
	return err
}
