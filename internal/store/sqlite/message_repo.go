package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chatcore/internal/domain"
)

type MessageRepo struct {
	db DBTX
}

func NewMessageRepo(db DBTX) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

const messageSelect = `
	SELECT m.id, m.conversation_id, m.sender_id, m.content, m.created_at,
	       u.id, u.email, u.username, u.full_name, u.avatar_url, u.hashed_password, u.status, u.created_at
	FROM messages m
	JOIN users u ON u.id = m.sender_id
`

func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return runInTx(ctx, r.db, func(q DBTX) error {
		res, err := q.ExecContext(ctx, `
			INSERT INTO messages (conversation_id, sender_id, content, created_at)
			VALUES (?, ?, ?, ?)
		`, m.ConversationID, m.SenderID, m.Content, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		for i, media := range m.Media {
			media.MessageID = m.ID
			res, err := q.ExecContext(ctx, `
				INSERT INTO message_media (message_id, position, url, type)
				VALUES (?, ?, ?, ?)
			`, m.ID, i, media.URL, media.Type)
			if err != nil {
				return fmt.Errorf("insert message media: %w", err)
			}
			if media.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
		}
		return nil
	})
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, messageSelect+` WHERE m.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
	}
	if err := r.attach(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs[0], nil
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, messageSelect+`
		WHERE m.conversation_id = ?
		ORDER BY m.created_at ASC, m.id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attach(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *MessageRepo) Delete(ctx context.Context, id int64) error {
	return runInTx(ctx, r.db, func(q DBTX) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id = ?`, id); err != nil {
			return fmt.Errorf("delete message reactions: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM message_media WHERE message_id = ?`, id); err != nil {
			return fmt.Errorf("delete message media: %w", err)
		}
		res, err := q.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete message: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

// ── helpers ──────────────────────────────────────────────────────────────────

// attach loads media and reactions for msgs in two batched queries.
func (r *MessageRepo) attach(ctx context.Context, msgs []*domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Message, len(msgs))
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
		ids = append(ids, m.ID)
		m.Media = []*domain.MessageMedia{}
		m.Reactions = []*domain.Reaction{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message_id, url, type
		FROM message_media
		WHERE message_id IN (`+placeholders(len(ids))+`)
		ORDER BY message_id ASC, position ASC
	`, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("list message media: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		mm := &domain.MessageMedia{}
		if err := rows.Scan(&mm.ID, &mm.MessageID, &mm.URL, &mm.Type); err != nil {
			return fmt.Errorf("scan message media: %w", err)
		}
		byID[mm.MessageID].Media = append(byID[mm.MessageID].Media, mm)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `
		SELECT mr.id, mr.message_id, mr.user_id, mr.type, mr.created_at, u.username
		FROM message_reactions mr
		JOIN users u ON u.id = mr.user_id
		WHERE mr.message_id IN (`+placeholders(len(ids))+`)
		ORDER BY mr.created_at ASC, mr.id ASC
	`, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("list message reactions: %w", err)
	}
	reactions, err := scanReactions(rows, true, true)
	if err != nil {
		return err
	}
	for _, re := range reactions {
		byID[re.TargetID].Reactions = append(byID[re.TargetID].Reactions, re)
	}
	return nil
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	defer rows.Close()
	var msgs []*domain.Message
	for rows.Next() {
		m := &domain.Message{Sender: &domain.User{}}
		u := m.Sender
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt,
			&u.ID, &u.Email, &u.Username, &u.FullName, &u.AvatarURL, &u.HashedPassword, &u.Status, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}
