package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatcore/internal/domain"
)

type ConversationRepo struct {
	db DBTX
}

func NewConversationRepo(db DBTX) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation, participantIDs []int64) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return runInTx(ctx, r.db, func(q DBTX) error {
		res, err := q.ExecContext(ctx, `
			INSERT INTO conversations (is_group, created_at)
			VALUES (?, ?)
		`, c.IsGroup, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		c.ID = id

		for _, uid := range participantIDs {
			if _, err := q.ExecContext(ctx, `
				INSERT OR IGNORE INTO conversation_participants (conversation_id, user_id, joined_at)
				VALUES (?, ?, ?)
			`, id, uid, c.CreatedAt); err != nil {
				return fmt.Errorf("insert participant: %w", err)
			}
		}

		c.Participants, err = listParticipants(ctx, q, id)
		return err
	})
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, is_group, created_at
		FROM conversations
		WHERE id = ?
	`, id).Scan(&c.ID, &c.IsGroup, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if c.Participants, err = listParticipants(ctx, r.db, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.is_group, c.created_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = ?
		ORDER BY c.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	convs, err := scanConversations(rows)
	if err != nil {
		return nil, err
	}
	for _, c := range convs {
		if c.Participants, err = listParticipants(ctx, r.db, c.ID); err != nil {
			return nil, err
		}
	}
	return convs, nil
}

// FindExistingDirect returns the non-group conversation whose only members are
// userA and userB, or nil when there is none.
func (r *ConversationRepo) FindExistingDirect(ctx context.Context, userA, userB int64) (*domain.Conversation, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id
		FROM conversations c
		WHERE c.is_group = 0
		  AND EXISTS (SELECT 1 FROM conversation_participants p WHERE p.conversation_id = c.id AND p.user_id = ?)
		  AND EXISTS (SELECT 1 FROM conversation_participants p WHERE p.conversation_id = c.id AND p.user_id = ?)
		  AND (SELECT COUNT(*) FROM conversation_participants p WHERE p.conversation_id = c.id) = 2
		ORDER BY c.id ASC
		LIMIT 1
	`, userA, userB).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find direct conversation: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return true, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func listParticipants(ctx context.Context, q DBTX, conversationID int64) ([]*domain.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.id, u.email, u.username, u.full_name, u.avatar_url, u.hashed_password, u.status, u.created_at
		FROM users u
		JOIN conversation_participants cp ON cp.user_id = u.id
		WHERE cp.conversation_id = ?
		ORDER BY cp.joined_at ASC, u.id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return scanUsers(rows)
}

func scanConversations(rows *sql.Rows) ([]*domain.Conversation, error) {
	defer rows.Close()
	var convs []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		if err := rows.Scan(&c.ID, &c.IsGroup, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
