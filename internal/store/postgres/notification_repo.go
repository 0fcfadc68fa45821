package postgres

import (
	"context"
	"fmt"

	"chatcore/internal/domain"
)

type NotificationRepo struct {
	db DBTX
}

func NewNotificationRepo(db DBTX) *NotificationRepo {
	return &NotificationRepo{db: db}
}

var _ domain.NotificationRepository = (*NotificationRepo)(nil)

func (r *NotificationRepo) CreateBatch(ctx context.Context, ns []*domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return runInTx(ctx, r.db, func(q DBTX) error {
		for _, n := range ns {
			if err := q.QueryRowContext(ctx, `
				INSERT INTO notifications (message, is_read, created_at, sender_id, receiver_id, conversation_id)
				VALUES ($1, $2, NOW(), $3, $4, $5)
				RETURNING id, created_at
			`, n.Message, n.IsRead, n.SenderID, n.ReceiverID, n.ConversationID).Scan(&n.ID, &n.CreatedAt); err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
		}
		return nil
	})
}

func (r *NotificationRepo) ListForReceiver(ctx context.Context, receiverID int64) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message, is_read, created_at, sender_id, receiver_id, conversation_id
		FROM notifications
		WHERE receiver_id = $1
		ORDER BY created_at DESC, id DESC
	`, receiverID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []*domain.Notification{}
	for rows.Next() {
		n := &domain.Notification{}
		if err := rows.Scan(&n.ID, &n.Message, &n.IsRead, &n.CreatedAt, &n.SenderID, &n.ReceiverID, &n.ConversationID); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
