package domain

import (
	"context"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// ConversationRepository defines persistence operations for conversations.
// Returned conversations carry their participants.
type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation, participantIDs []int64) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	FindExistingDirect(ctx context.Context, userA, userB int64) (*Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
}

// MessageRepository defines persistence operations for messages.
// Returned messages carry sender, media and reactions.
type MessageRepository interface {
	// Append stores the message and its media atomically and fills in their ids.
	Append(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	// ListByConversation orders by created_at, then id, ascending.
	ListByConversation(ctx context.Context, conversationID int64) ([]*Message, error)
	// Delete removes reactions, media and the message; ErrNotFound when absent.
	Delete(ctx context.Context, id int64) error
}

// ReactionRepository is the per-target capability the reaction engine toggles through.
type ReactionRepository interface {
	// Find returns nil, nil when the user has no reaction on the target.
	Find(ctx context.Context, targetID, userID int64) (*Reaction, error)
	// Insert returns ErrConflict when a row for (target, user) already exists.
	Insert(ctx context.Context, r *Reaction) error
	Update(ctx context.Context, r *Reaction) error
	// Delete returns ErrConflict when the row is already gone.
	Delete(ctx context.Context, id int64) error
	ListForTarget(ctx context.Context, targetID int64) ([]*Reaction, error)
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	CreateBatch(ctx context.Context, ns []*Notification) error
	// ListForReceiver orders by created_at, then id, descending.
	ListForReceiver(ctx context.Context, receiverID int64) ([]*Notification, error)
}

// PostRepository gives read access to the post graph.
type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	Block(ctx context.Context, userID, blockedUserID int64) error
	// IsBlocked reports whether either user has blocked the other.
	IsBlocked(ctx context.Context, userA, userB int64) (bool, error)
}

// Store groups the repositories behind one transactional boundary.
type Store interface {
	Users() UserRepository
	Conversations() ConversationRepository
	Messages() MessageRepository
	MessageReactions() ReactionRepository
	PostReactions() ReactionRepository
	Notifications() NotificationRepository
	Posts() PostRepository

	// WithinTx runs fn against a transaction-bound Store. Nested calls reuse the open transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
