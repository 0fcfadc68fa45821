package domain

import (
	"fmt"
	"strings"
	"time"
)

// UserStatus is the account state owned by the identity provider.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusLocked   UserStatus = "LOCKED"
)

// User represents an application user. Only the identity side mutates it.
type User struct {
	ID             int64      `db:"id" json:"id"`
	Email          *string    `db:"email" json:"email,omitempty"`
	Username       string     `db:"username" json:"username"`
	FullName       string     `db:"full_name" json:"fullName"`
	AvatarURL      string     `db:"avatar_url" json:"avatarUrl"`
	HashedPassword string     `db:"hashed_password" json:"-"`
	Status         UserStatus `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// DisplayName returns the full name, or the username when no full name is set.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Username
}

// Conversation represents a chat conversation (direct or group).
type Conversation struct {
	ID           int64     `db:"id"`
	IsGroup      bool      `db:"is_group"`
	CreatedAt    time.Time `db:"created_at"`
	Participants []*User
}

// HasParticipant reports whether userID is a member of the conversation.
func (c *Conversation) HasParticipant(userID int64) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// MediaType is the coarse type tag of an attachment.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MessageMedia is an attachment owned by exactly one message.
type MessageMedia struct {
	ID        int64     `db:"id"`
	MessageID int64     `db:"message_id"`
	URL       string    `db:"url"`
	Type      MediaType `db:"type"`
}

// Message represents a single chat message. Content is nil for media-only messages.
type Message struct {
	ID             int64     `db:"id"`
	ConversationID int64     `db:"conversation_id"`
	SenderID       int64     `db:"sender_id"`
	Content        *string   `db:"content"` // encrypted at rest
	CreatedAt      time.Time `db:"created_at"`

	Sender    *User
	Media     []*MessageMedia
	Reactions []*Reaction
}

// ReactionType enumerates the reaction kinds a user can put on a message.
type ReactionType string

const (
	ReactionLike  ReactionType = "LIKE"
	ReactionLove  ReactionType = "LOVE"
	ReactionHaha  ReactionType = "HAHA"
	ReactionWow   ReactionType = "WOW"
	ReactionSad   ReactionType = "SAD"
	ReactionAngry ReactionType = "ANGRY"
)

var reactionTypes = map[ReactionType]struct{}{
	ReactionLike:  {},
	ReactionLove:  {},
	ReactionHaha:  {},
	ReactionWow:   {},
	ReactionSad:   {},
	ReactionAngry: {},
}

// ParseReactionType validates a reaction kind, case-insensitively.
func ParseReactionType(s string) (ReactionType, error) {
	t := ReactionType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := reactionTypes[t]; !ok {
		return "", fmt.Errorf("unknown reaction type %q: %w", s, ErrInvalidArgument)
	}
	return t, nil
}

// Reaction is one user's reaction on a target (a message or a post).
// Post reactions carry an empty Type.
type Reaction struct {
	ID        int64        `db:"id"`
	TargetID  int64        `db:"target_id"`
	UserID    int64        `db:"user_id"`
	Type      ReactionType `db:"type"`
	CreatedAt time.Time    `db:"created_at"`

	Username string
}

// Notification is created once per non-sender participant when a message is sent.
type Notification struct {
	ID             int64     `db:"id"`
	Message        string    `db:"message"`
	IsRead         bool      `db:"is_read"`
	CreatedAt      time.Time `db:"created_at"`
	SenderID       int64     `db:"sender_id"`
	ReceiverID     int64     `db:"receiver_id"`
	ConversationID int64     `db:"conversation_id"`
}

// Post is the minimal view of the feed graph needed to react to posts.
type Post struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Caption   string    `db:"caption"`
	CreatedAt time.Time `db:"created_at"`
}
