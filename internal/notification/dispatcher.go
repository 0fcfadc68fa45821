// Package notification fans message sends out to the other participants.
package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chatcore/internal/domain"
	"chatcore/internal/metrics"
	"chatcore/internal/view"
)

// Dispatcher creates and lists per-recipient notifications.
type Dispatcher struct {
	store   domain.Store
	metrics *metrics.Recorder
	log     *zap.Logger

	Now func() time.Time
}

func NewDispatcher(store domain.Store, rec *metrics.Recorder, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		store:   store,
		metrics: rec,
		log:     log,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Template renders the notification text for a message from sender.
func Template(sender *domain.User) string {
	return fmt.Sprintf("%s sent you a new message", sender.DisplayName())
}

// FanOutForMessage writes one unread notification per participant other than
// sender. repo should be bound to the transaction that appended the message.
func (d *Dispatcher) FanOutForMessage(ctx context.Context, repo domain.NotificationRepository, conv *domain.Conversation, sender *domain.User) ([]*domain.Notification, error) {
	now := d.Now()
	text := Template(sender)

	batch := make([]*domain.Notification, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if p.ID == sender.ID {
			continue
		}
		batch = append(batch, &domain.Notification{
			Message:        text,
			IsRead:         false,
			CreatedAt:      now,
			SenderID:       sender.ID,
			ReceiverID:     p.ID,
			ConversationID: conv.ID,
		})
	}
	if len(batch) == 0 {
		return batch, nil
	}
	if err := repo.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create notifications: %w", err)
	}
	return batch, nil
}

// Committed records notifications once the enclosing transaction has committed.
func (d *Dispatcher) Committed(ns []*domain.Notification) {
	d.metrics.NotificationsCreated(len(ns))
}

// ListForUser returns userID's notifications, newest first. The sender shown is
// the first conversation participant other than userID, falling back to the
// recorded sender.
func (d *Dispatcher) ListForUser(ctx context.Context, userID int64) ([]view.Notification, error) {
	ns, err := d.store.Notifications().ListForReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}

	convs := make(map[int64]*domain.Conversation)
	users := make(map[int64]*domain.User)
	out := make([]view.Notification, 0, len(ns))
	for _, n := range ns {
		conv, ok := convs[n.ConversationID]
		if !ok {
			conv, err = d.store.Conversations().GetByID(ctx, n.ConversationID)
			if err != nil {
				return nil, err
			}
			convs[n.ConversationID] = conv
		}

		opponent := opponentOf(conv, userID)
		if opponent == nil {
			opponent, ok = users[n.SenderID]
			if !ok {
				opponent, err = d.store.Users().GetByID(ctx, n.SenderID)
				if err != nil {
					return nil, err
				}
				users[n.SenderID] = opponent
			}
		}
		out = append(out, view.NewNotification(n, opponent))
	}
	return out, nil
}

func opponentOf(conv *domain.Conversation, userID int64) *domain.User {
	for _, p := range conv.Participants {
		if p.ID != userID {
			return p
		}
	}
	return nil
}
