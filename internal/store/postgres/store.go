package postgres

import (
	"context"
	"database/sql"

	"chatcore/internal/domain"
)

// Store implements domain.Store on PostgreSQL.
type Store struct {
	db *sql.DB
	q  DBTX
}

func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

var _ domain.Store = (*Store)(nil)

func (s *Store) Users() domain.UserRepository { return NewUserRepo(s.q) }

func (s *Store) Conversations() domain.ConversationRepository {
	return NewConversationRepo(s.q)
}

func (s *Store) Messages() domain.MessageRepository { return NewMessageRepo(s.q) }

func (s *Store) MessageReactions() domain.ReactionRepository {
	return NewMessageReactionRepo(s.q)
}

func (s *Store) PostReactions() domain.ReactionRepository {
	return NewPostReactionRepo(s.q)
}

func (s *Store) Notifications() domain.NotificationRepository {
	return NewNotificationRepo(s.q)
}

func (s *Store) Posts() domain.PostRepository { return NewPostRepo(s.q) }

func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return runInTx(ctx, s.q, func(q DBTX) error {
		return fn(&Store{db: s.db, q: q})
	})
}
