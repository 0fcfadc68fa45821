package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chatcore/internal/domain"
)

type reactionTable struct {
	name      string
	targetCol string
	typed     bool
}

var (
	messageReactions = reactionTable{name: "message_reactions", targetCol: "message_id", typed: true}
	postReactions    = reactionTable{name: "post_reactions", targetCol: "post_id"}
)

// ReactionRepo stores one reaction per (target, user) in either reaction table.
type ReactionRepo struct {
	db    DBTX
	table reactionTable
}

func NewMessageReactionRepo(db DBTX) *ReactionRepo {
	return &ReactionRepo{db: db, table: messageReactions}
}

func NewPostReactionRepo(db DBTX) *ReactionRepo {
	return &ReactionRepo{db: db, table: postReactions}
}

var _ domain.ReactionRepository = (*ReactionRepo)(nil)

// Find locks the row for the rest of the enclosing transaction.
func (r *ReactionRepo) Find(ctx context.Context, targetID, userID int64) (*domain.Reaction, error) {
	re := &domain.Reaction{}
	var err error
	if r.table.typed {
		err = r.db.QueryRowContext(ctx, `
			SELECT id, `+r.table.targetCol+`, user_id, type, created_at
			FROM `+r.table.name+`
			WHERE `+r.table.targetCol+` = $1 AND user_id = $2
			FOR UPDATE
		`, targetID, userID).Scan(&re.ID, &re.TargetID, &re.UserID, &re.Type, &re.CreatedAt)
	} else {
		err = r.db.QueryRowContext(ctx, `
			SELECT id, `+r.table.targetCol+`, user_id, created_at
			FROM `+r.table.name+`
			WHERE `+r.table.targetCol+` = $1 AND user_id = $2
			FOR UPDATE
		`, targetID, userID).Scan(&re.ID, &re.TargetID, &re.UserID, &re.CreatedAt)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reaction: %w", err)
	}
	return re, nil
}

func (r *ReactionRepo) Insert(ctx context.Context, re *domain.Reaction) error {
	var err error
	if r.table.typed {
		err = r.db.QueryRowContext(ctx, `
			INSERT INTO `+r.table.name+` (`+r.table.targetCol+`, user_id, type, created_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (`+r.table.targetCol+`, user_id) DO NOTHING
			RETURNING id, created_at
		`, re.TargetID, re.UserID, re.Type).Scan(&re.ID, &re.CreatedAt)
	} else {
		err = r.db.QueryRowContext(ctx, `
			INSERT INTO `+r.table.name+` (`+r.table.targetCol+`, user_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (`+r.table.targetCol+`, user_id) DO NOTHING
			RETURNING id, created_at
		`, re.TargetID, re.UserID).Scan(&re.ID, &re.CreatedAt)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reaction on %s %d by user %d: %w", r.table.targetCol, re.TargetID, re.UserID, domain.ErrConflict)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s %d: %w", r.table.targetCol, re.TargetID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("insert reaction: %w", err)
	}
	return nil
}

func (r *ReactionRepo) Update(ctx context.Context, re *domain.Reaction) error {
	if !r.table.typed {
		return nil
	}
	err := r.db.QueryRowContext(ctx, `
		UPDATE `+r.table.name+` SET type = $1, created_at = NOW()
		WHERE id = $2
		RETURNING created_at
	`, re.Type, re.ID).Scan(&re.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reaction %d: %w", re.ID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update reaction: %w", err)
	}
	return nil
}

func (r *ReactionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table.name+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("reaction %d: %w", id, domain.ErrConflict)
	}
	return nil
}

func (r *ReactionRepo) ListForTarget(ctx context.Context, targetID int64) ([]*domain.Reaction, error) {
	cols := "x.id, x." + r.table.targetCol + ", x.user_id, x.created_at, u.username"
	if r.table.typed {
		cols = "x.id, x." + r.table.targetCol + ", x.user_id, x.type, x.created_at, u.username"
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cols+`
		FROM `+r.table.name+` x
		JOIN users u ON u.id = x.user_id
		WHERE x.`+r.table.targetCol+` = $1
		ORDER BY x.created_at ASC, x.id ASC
	`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	return scanReactions(rows, r.table.typed, true)
}

func scanReactions(rows *sql.Rows, typed, withUsername bool) ([]*domain.Reaction, error) {
	defer rows.Close()
	out := []*domain.Reaction{}
	for rows.Next() {
		re := &domain.Reaction{}
		dest := []any{&re.ID, &re.TargetID, &re.UserID}
		if typed {
			dest = append(dest, &re.Type)
		}
		dest = append(dest, &re.CreatedAt)
		if withUsername {
			dest = append(dest, &re.Username)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		out = append(out, re)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
