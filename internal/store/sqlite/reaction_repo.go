package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

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

func (r *ReactionRepo) columns() string {
	if r.table.typed {
		return "id, " + r.table.targetCol + ", user_id, type, created_at"
	}
	return "id, " + r.table.targetCol + ", user_id, created_at"
}

func (r *ReactionRepo) Find(ctx context.Context, targetID, userID int64) (*domain.Reaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+r.columns()+`
		FROM `+r.table.name+`
		WHERE `+r.table.targetCol+` = ? AND user_id = ?
	`, targetID, userID)
	if err != nil {
		return nil, fmt.Errorf("find reaction: %w", err)
	}
	found, err := scanReactions(rows, r.table.typed, false)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *ReactionRepo) Insert(ctx context.Context, re *domain.Reaction) error {
	if re.CreatedAt.IsZero() {
		re.CreatedAt = time.Now().UTC()
	}
	var (
		res sql.Result
		err error
	)
	if r.table.typed {
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO `+r.table.name+` (`+r.table.targetCol+`, user_id, type, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (`+r.table.targetCol+`, user_id) DO NOTHING
		`, re.TargetID, re.UserID, re.Type, re.CreatedAt)
	} else {
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO `+r.table.name+` (`+r.table.targetCol+`, user_id, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT (`+r.table.targetCol+`, user_id) DO NOTHING
		`, re.TargetID, re.UserID, re.CreatedAt)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s %d: %w", r.table.targetCol, re.TargetID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("insert reaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reaction on %s %d by user %d: %w", r.table.targetCol, re.TargetID, re.UserID, domain.ErrConflict)
	}
	re.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

func (r *ReactionRepo) Update(ctx context.Context, re *domain.Reaction) error {
	if !r.table.typed {
		return nil
	}
	if re.CreatedAt.IsZero() {
		re.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `UPDATE `+r.table.name+` SET type = ?, created_at = ? WHERE id = ?`, re.Type, re.CreatedAt, re.ID)
	if err != nil {
		return fmt.Errorf("update reaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reaction %d: %w", re.ID, domain.ErrConflict)
	}
	return nil
}

func (r *ReactionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table.name+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
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
		WHERE x.`+r.table.targetCol+` = ?
		ORDER BY x.created_at ASC, x.id ASC
	`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	return scanReactions(rows, r.table.typed, true)
}

// ── helpers ──────────────────────────────────────────────────────────────────

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
