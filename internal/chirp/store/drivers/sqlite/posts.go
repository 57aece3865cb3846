package sqlite

import (
	"context"
	"time"

	"github.com/chirpnet/chirp/internal/chirp/domain"
)

type postsRepo struct {
	q querier
}

func (r *postsRepo) CreatePost(ctx context.Context, p domain.Post) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	ts := toUnix(createdAt)

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, body, created_at)
		VALUES (?, ?, ?, ?)`,
		p.ID, p.AuthorID, p.Body, ts,
	)
	if err != nil {
		return mapConflict(err)
	}

	for _, tag := range p.Tags {
		if _, err := r.q.ExecContext(ctx, `
			INSERT OR IGNORE INTO post_tags (post_id, tag, created_at)
			VALUES (?, ?, ?)`,
			p.ID, tag, ts,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *postsRepo) TrendingTags(ctx context.Context, since time.Time, limit int) ([]domain.TrendingTag, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT tag, COUNT(*) AS uses
		FROM post_tags
		WHERE created_at >= ?
		GROUP BY tag
		ORDER BY uses DESC, tag ASC
		LIMIT ?`,
		toUnix(since), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []domain.TrendingTag
	for rows.Next() {
		var t domain.TrendingTag
		if err := rows.Scan(&t.Tag, &t.Count); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
