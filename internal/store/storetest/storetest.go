// Package storetest provides an in-memory SQLite store and seed helpers for tests.
package storetest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatcore/internal/domain"
	"chatcore/internal/store/sqlite"
)

// New returns a migrated in-memory store closed at test cleanup.
func New(t testing.TB) *sqlite.Store {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db))
	return sqlite.New(db)
}

// NewFile returns a migrated store on a database file in a temp dir. Unlike New it
// uses a connection pool, so concurrent transactions really contend.
func NewFile(t testing.TB) *sqlite.Store {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db))
	return sqlite.New(db)
}

func User(t testing.TB, s domain.Store, username, fullName string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:       username,
		FullName:       fullName,
		AvatarURL:      fmt.Sprintf("https://cdn.example/%s.png", username),
		HashedPassword: "x",
		Status:         domain.UserStatusActive,
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func Conversation(t testing.TB, s domain.Store, isGroup bool, members ...*domain.User) *domain.Conversation {
	t.Helper()
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	c := &domain.Conversation{IsGroup: isGroup}
	require.NoError(t, s.Conversations().Create(context.Background(), c, ids))
	return c
}

// Message appends a text message at the given time; a zero time means now.
func Message(t testing.TB, s domain.Store, conv *domain.Conversation, sender *domain.User, content string, at time.Time) *domain.Message {
	t.Helper()
	m := &domain.Message{ConversationID: conv.ID, SenderID: sender.ID, Content: &content, CreatedAt: at}
	require.NoError(t, s.Messages().Append(context.Background(), m))
	return m
}

func Post(t testing.TB, s domain.Store, author *domain.User) *domain.Post {
	t.Helper()
	p := &domain.Post{UserID: author.ID, Caption: "hello"}
	require.NoError(t, s.Posts().Create(context.Background(), p))
	return p
}
