package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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
	return runInTx(ctx, r.db, func(q DBTX) error {
		if err := q.QueryRowContext(ctx, `
			INSERT INTO conversations (is_group, created_at)
			VALUES ($1, NOW())
			RETURNING id, created_at
		`, c.IsGroup).Scan(&c.ID, &c.CreatedAt); err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}

		for _, uid := range participantIDs {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING
			`, c.ID, uid, c.CreatedAt); err != nil {
				return fmt.Errorf("insert participant: %w", err)
			}
		}

		var err error
		c.Participants, err = listParticipants(ctx, q, c.ID)
		return err
	})
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, is_group, created_at FROM conversations WHERE id = $1
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
		WHERE cp.user_id = $1
		ORDER BY c.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		if err := rows.Scan(&c.ID, &c.IsGroup, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

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
		SELECT cp.conversation_id
		FROM conversation_participants cp
		JOIN conversations c ON c.id = cp.conversation_id
		WHERE c.is_group = FALSE
		GROUP BY cp.conversation_id
		HAVING COUNT(*) = 2
		   AND BOOL_OR(cp.user_id = $1)
		   AND BOOL_OR(cp.user_id = $2)
		ORDER BY cp.conversation_id ASC
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
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)
	`, conversationID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return exists, nil
}

func listParticipants(ctx context.Context, q DBTX, conversationID int64) ([]*domain.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.id, u.email, u.username, u.full_name, u.avatar_url, u.hashed_password, u.status, u.created_at
		FROM users u
		JOIN conversation_participants cp ON cp.user_id = u.id
		WHERE cp.conversation_id = $1
		ORDER BY cp.joined_at ASC, u.id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return scanUsers(rows)
}
