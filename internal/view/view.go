// Package view shapes domain records into the response payloads clients see.
package view

import (
	"time"

	"chatcore/internal/domain"
)

type UserSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

type Reaction struct {
	ID       int64               `json:"id"`
	UserID   int64               `json:"userId"`
	Username string              `json:"username"`
	Type     domain.ReactionType `json:"type,omitempty"`
}

type Message struct {
	ID             int64       `json:"id"`
	ConversationID int64       `json:"conversationId"`
	Sender         UserSummary `json:"sender"`
	Content        *string     `json:"content"`
	MediaURLs      []string    `json:"mediaUrls"`
	Reactions      []Reaction  `json:"reactions"`
	CreatedAt      time.Time   `json:"createdAt"`
}

type Conversation struct {
	ID           int64         `json:"id"`
	CreatedAt    time.Time     `json:"createdAt"`
	Participants []UserSummary `json:"participants"`
	Messages     []Message     `json:"messages"`
	IsGroup      bool          `json:"isGroup"`
}

type Notification struct {
	ID             int64       `json:"id"`
	Message        string      `json:"message"`
	IsRead         bool        `json:"isRead"`
	CreatedAt      time.Time   `json:"createdAt"`
	Sender         UserSummary `json:"sender"`
	ConversationID int64       `json:"conversationId"`
}

// PostReactions is the response of a post reaction toggle.
type PostReactions struct {
	Outcome        string     `json:"outcome"`
	Reacted        bool       `json:"reacted"`
	TotalReactions int        `json:"totalReactions"`
	Reactions      []Reaction `json:"reactions"`
}

func NewUserSummary(u *domain.User) UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

func NewUserSummaries(users []*domain.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserSummary(u))
	}
	return out
}

func NewReactions(rs []*domain.Reaction) []Reaction {
	out := make([]Reaction, 0, len(rs))
	for _, r := range rs {
		out = append(out, Reaction{
			ID:       r.ID,
			UserID:   r.UserID,
			Username: r.Username,
			Type:     r.Type,
		})
	}
	return out
}

// NewMessage shapes m. content is the plaintext to expose, nil for media-only messages.
func NewMessage(m *domain.Message, content *string) Message {
	urls := make([]string, 0, len(m.Media))
	for _, media := range m.Media {
		urls = append(urls, media.URL)
	}
	return Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         NewUserSummary(m.Sender),
		Content:        content,
		MediaURLs:      urls,
		Reactions:      NewReactions(m.Reactions),
		CreatedAt:      m.CreatedAt,
	}
}

func NewConversation(c *domain.Conversation, messages []Message) Conversation {
	if messages == nil {
		messages = []Message{}
	}
	return Conversation{
		ID:           c.ID,
		CreatedAt:    c.CreatedAt,
		Participants: NewUserSummaries(c.Participants),
		Messages:     messages,
		IsGroup:      c.IsGroup,
	}
}

func NewNotification(n *domain.Notification, opponent *domain.User) Notification {
	return Notification{
		ID:             n.ID,
		Message:        n.Message,
		IsRead:         n.IsRead,
		CreatedAt:      n.CreatedAt,
		Sender:         NewUserSummary(opponent),
		ConversationID: n.ConversationID,
	}
}
