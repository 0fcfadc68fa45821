package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chatcore/internal/domain"
)

type PostRepo struct {
	db DBTX
}

func NewPostRepo(db DBTX) *PostRepo {
	return &PostRepo{db: db}
}

var _ domain.PostRepository = (*PostRepo)(nil)

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO posts (user_id, caption, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`, p.UserID, p.Caption).Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	p := &domain.Post{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, caption, created_at FROM posts WHERE id = $1
	`, id).Scan(&p.ID, &p.UserID, &p.Caption, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (r *PostRepo) Block(ctx context.Context, userID, blockedUserID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO blocked_users (user_id, blocked_user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING
	`, userID, blockedUserID); err != nil {
		return fmt.Errorf("block user: %w", err)
	}
	return nil
}

func (r *PostRepo) IsBlocked(ctx context.Context, userA, userB int64) (bool, error) {
	var blocked bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM blocked_users
			WHERE (user_id = $1 AND blocked_user_id = $2)
			   OR (user_id = $2 AND blocked_user_id = $1)
		)
	`, userA, userB).Scan(&blocked); err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return blocked, nil
}
