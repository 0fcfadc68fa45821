package notification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/domain"
	"chatcore/internal/notification"
	"chatcore/internal/store/storetest"
)

func TestTemplate(t *testing.T) {
	assert.Equal(t, "Alice Smith sent you a new message", notification.Template(&domain.User{Username: "alice", FullName: "Alice Smith"}))
	assert.Equal(t, "alice sent you a new message", notification.Template(&domain.User{Username: "alice", FullName: "  "}))
}

func TestFanOutForMessage_SkipsSender(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	alice := storetest.User(t, s, "alice", "Alice")
	bob := storetest.User(t, s, "bob", "Bob")
	carol := storetest.User(t, s, "carol", "")
	conv := storetest.Conversation(t, s, true, alice, bob, carol)

	d := notification.NewDispatcher(s, nil, nil)
	ns, err := d.FanOutForMessage(ctx, s.Notifications(), conv, alice)
	require.NoError(t, err)
	require.Len(t, ns, 2)

	for _, n := range ns {
		assert.NotEqual(t, alice.ID, n.ReceiverID)
		assert.Equal(t, alice.ID, n.SenderID)
		assert.False(t, n.IsRead)
		assert.Equal(t, "Alice sent you a new message", n.Message)
		assert.NotZero(t, n.ID)
	}

	got, err := s.Notifications().ListForReceiver(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type failingRepo struct{}

func (failingRepo) CreateBatch(context.Context, []*domain.Notification) error {
	return errors.New("disk full")
}

func (failingRepo) ListForReceiver(context.Context, int64) ([]*domain.Notification, error) {
	return nil, nil
}

func TestFanOutForMessage_PropagatesFailure(t *testing.T) {
	d := notification.NewDispatcher(nil, nil, nil)
	conv := &domain.Conversation{ID: 1, Participants: []*domain.User{{ID: 1}, {ID: 2}}}

	_, err := d.FanOutForMessage(context.Background(), failingRepo{}, conv, conv.Participants[0])
	assert.ErrorContains(t, err, "disk full")
}

func TestListForUser_NewestFirstWithOpponent(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	alice := storetest.User(t, s, "alice", "Alice")
	bob := storetest.User(t, s, "bob", "Bob")
	dave := storetest.User(t, s, "dave", "Dave")
	c1 := storetest.Conversation(t, s, false, alice, bob)
	c2 := storetest.Conversation(t, s, false, dave, bob)

	d := notification.NewDispatcher(s, nil, nil)
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	d.Now = func() time.Time { return base }
	_, err := d.FanOutForMessage(ctx, s.Notifications(), c1, alice)
	require.NoError(t, err)

	d.Now = func() time.Time { return base.Add(time.Minute) }
	_, err = d.FanOutForMessage(ctx, s.Notifications(), c2, dave)
	require.NoError(t, err)

	// same timestamp as the previous one: id breaks the tie
	_, err = d.FanOutForMessage(ctx, s.Notifications(), c1, alice)
	require.NoError(t, err)

	list, err := d.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, c1.ID, list[0].ConversationID)
	assert.Equal(t, "alice", list[0].Sender.Username)
	assert.Equal(t, c2.ID, list[1].ConversationID)
	assert.Equal(t, "dave", list[1].Sender.Username)
	assert.Equal(t, c1.ID, list[2].ConversationID)
	assert.True(t, list[0].ID > list[1].ID)
}
