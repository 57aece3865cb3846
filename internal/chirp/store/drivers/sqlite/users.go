package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
)

type usersRepo struct {
	q querier
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := toUnix(time.Now())
	createdAt := now
	if !u.CreatedAt.IsZero() {
		createdAt = toUnix(u.CreatedAt)
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, username, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.DisplayName, u.PasswordHash, createdAt, createdAt,
	)
	return mapConflict(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getUser(ctx, `WHERE username = ?`, username)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(ctx, `WHERE email = ?`, email)
}

func (r *usersRepo) getUser(ctx context.Context, where string, arg any) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, username, email, display_name, password_hash, created_at, updated_at
		FROM users `+where, arg,
	)

	var u domain.User
	var createdAt, updatedAt int64
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return u, nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, toUnix(time.Now()), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
