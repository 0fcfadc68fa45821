package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (user_id, caption, created_at)
		VALUES (?, ?, ?)
	`, p.UserID, p.Caption, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	p := &domain.Post{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, caption, created_at
		FROM posts
		WHERE id = ?
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
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO blocked_users (user_id, blocked_user_id, created_at)
		VALUES (?, ?, ?)
	`, userID, blockedUserID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("block user: %w", err)
	}
	return nil
}

func (r *PostRepo) IsBlocked(ctx context.Context, userA, userB int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM blocked_users
		WHERE (user_id = ? AND blocked_user_id = ?)
		   OR (user_id = ? AND blocked_user_id = ?)
		LIMIT 1
	`, userA, userB, userB, userA).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return true, nil
}
