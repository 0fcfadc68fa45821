package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/domain"
	"chatcore/internal/media"
	"chatcore/internal/metrics"
	"chatcore/internal/notification"
	"chatcore/internal/reaction"
	"chatcore/internal/security"
	"chatcore/internal/service"
	"chatcore/internal/store/storetest"
)

type memMedia struct {
	mu      sync.Mutex
	n       int
	removed []string
	fail    bool
}

func (m *memMedia) Upload(_ context.Context, r io.Reader, name, _ string) (string, error) {
	if m.fail {
		return "", errors.New("bucket offline")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("https://cdn.example/%d-%s", m.n, name), nil
}

func (m *memMedia) Remove(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, url)
	return nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	topics []string
	events []string
	err    error
}

func (b *recordingBroadcaster) Publish(topic, event string, _ any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	b.events = append(b.events, event)
	return b.err
}

type fixture struct {
	store  domain.Store
	svc    *service.ConversationService
	media  *memMedia
	bus    *recordingBroadcaster
	rec    *metrics.Recorder
	reg    *prometheus.Registry
	alice  *domain.User
	bob    *domain.User
	carol  *domain.User
	direct *domain.Conversation
}

func newService(t *testing.T, store domain.Store, mm *memMedia, rec *metrics.Recorder) *service.ConversationService {
	t.Helper()
	enc, err := security.NewEncryptor([]byte("test-secret"), nil)
	require.NoError(t, err)
	return service.NewConversationService(
		store,
		media.NewResolver(mm, nil),
		reaction.NewEngine(0, rec, nil),
		notification.NewDispatcher(store, rec, nil),
		enc,
		rec,
		nil,
	)
}

func setup(t *testing.T) *fixture {
	t.Helper()
	s := storetest.New(t)
	reg := prometheus.NewRegistry()
	f := &fixture{
		store: s,
		media: &memMedia{},
		bus:   &recordingBroadcaster{},
		reg:   reg,
		rec:   metrics.New(reg),
		alice: storetest.User(t, s, "alice", "Alice Doe"),
		bob:   storetest.User(t, s, "bob", "Bob"),
		carol: storetest.User(t, s, "carol", "Carol"),
	}
	f.svc = newService(t, s, f.media, f.rec)
	f.svc.SetBroadcaster(f.bus)
	f.direct = storetest.Conversation(t, s, false, f.alice, f.bob)
	return f
}

func TestSendMessage_StoresEncryptedAndNotifies(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	msg, err := f.svc.SendMessage(ctx, f.alice.ID, f.direct.ID, "hello bob")
	require.NoError(t, err)
	require.NotNil(t, msg.Content)
	assert.Equal(t, "hello bob", *msg.Content)
	assert.Equal(t, "alice", msg.Sender.Username)
	assert.Empty(t, msg.MediaURLs)
	assert.Empty(t, msg.Reactions)

	stored, err := f.store.Messages().GetByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Content)
	assert.NotEqual(t, "hello bob", *stored.Content)

	notes, err := f.svc.ListNotifications(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Alice Doe sent you a new message", notes[0].Message)
	assert.Equal(t, "alice", notes[0].Sender.Username)
	assert.False(t, notes[0].IsRead)

	notes, err = f.svc.ListNotifications(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.Equal(t, []string{service.ConversationTopic(f.direct.ID)}, f.bus.topics)
	assert.Equal(t, []string{service.EventMessageCreated}, f.bus.events)
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(`
# HELP chatcore_messages_sent_total Messages persisted, by kind (text or media).
# TYPE chatcore_messages_sent_total counter
chatcore_messages_sent_total{kind="text"} 1
`), "chatcore_messages_sent_total"))
}

func TestSendMessage_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, f.alice.ID, f.direct.ID, "   \n\t")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, f.direct.ID, strings.Repeat("é", service.MaxContentRunes+1))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, f.direct.ID, strings.Repeat("é", service.MaxContentRunes))
	assert.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.alice.ID, 9999, "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.SendMessage(ctx, 9999, f.direct.ID, "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.SendMessage(ctx, f.carol.ID, f.direct.ID, "hi")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSendMessage_GroupNotifiesEveryoneButSender(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	group := storetest.Conversation(t, f.store, true, f.alice, f.bob, f.carol)

	_, err := f.svc.SendMessage(ctx, f.bob.ID, group.ID, "hey all")
	require.NoError(t, err)

	for _, u := range []*domain.User{f.alice, f.carol} {
		notes, err := f.svc.ListNotifications(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, notes, 1, u.Username)
	}
	notes, err := f.svc.ListNotifications(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(`
# HELP chatcore_notifications_created_total Notifications written by message fan-out.
# TYPE chatcore_notifications_created_total counter
chatcore_notifications_created_total 2
`), "chatcore_notifications_created_total"))
}

func TestSendMedia_ImagesAndVideo(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	msg, err := f.svc.SendMedia(ctx, f.alice.ID, f.direct.ID, []media.File{
		{Name: "a.png", ContentType: "image/png", Content: strings.NewReader("a")},
		{Name: "b.png", ContentType: "image/png", Content: strings.NewReader("b")},
	})
	require.NoError(t, err)
	assert.Nil(t, msg.Content)
	assert.Len(t, msg.MediaURLs, 2)

	msg, err = f.svc.SendMedia(ctx, f.alice.ID, f.direct.ID, []media.File{
		{Name: "a.png", ContentType: "image/png", Content: strings.NewReader("a")},
		{Name: "clip.mp4", ContentType: "video/mp4", Content: strings.NewReader("v")},
		{Name: "clip2.mp4", ContentType: "video/mp4", Content: strings.NewReader("w")},
	})
	require.NoError(t, err)
	require.Len(t, msg.MediaURLs, 1)
	assert.Contains(t, msg.MediaURLs[0], "clip.mp4")

	stored, err := f.store.Messages().GetByID(ctx, msg.ID)
	require.NoError(t, err)
	require.Len(t, stored.Media, 1)
	assert.Equal(t, domain.MediaTypeVideo, stored.Media[0].Type)

	notes, err := f.svc.ListNotifications(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestSendMedia_Errors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SendMedia(ctx, f.alice.ID, f.direct.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.SendMedia(ctx, f.carol.ID, f.direct.ID, []media.File{
		{Name: "a.png", ContentType: "image/png", Content: strings.NewReader("a")},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.media.fail = true
	_, err = f.svc.SendMedia(ctx, f.alice.ID, f.direct.ID, []media.File{
		{Name: "a.png", ContentType: "image/png", Content: strings.NewReader("a")},
	})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)

	msgs, err := f.svc.ListMessages(ctx, f.alice.ID, f.direct.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

type failingTxStore struct {
	domain.Store
}

func (failingTxStore) WithinTx(context.Context, func(domain.Store) error) error {
	return errors.New("database is locked")
}

func TestSendMedia_DiscardsUploadsWhenTransactionFails(t *testing.T) {
	f := setup(t)
	mm := &memMedia{}
	svc := newService(t, failingTxStore{f.store}, mm, nil)

	_, err := svc.SendMedia(context.Background(), f.alice.ID, f.direct.ID, []media.File{
		{Name: "a.png", ContentType: "image/png", Content: strings.NewReader("a")},
		{Name: "b.png", ContentType: "image/png", Content: strings.NewReader("b")},
	})
	require.Error(t, err)
	assert.Len(t, mm.removed, 2)
}

func TestDeleteMessage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	msg, err := f.svc.SendMessage(ctx, f.alice.ID, f.direct.ID, "oops")
	require.NoError(t, err)
	_, err = f.svc.ReactToMessage(ctx, f.bob.ID, msg.ID, domain.ReactionHaha)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteMessage(ctx, f.bob.ID, msg.ID), domain.ErrForbidden)
	require.NoError(t, f.svc.DeleteMessage(ctx, f.alice.ID, msg.ID))
	assert.ErrorIs(t, f.svc.DeleteMessage(ctx, f.alice.ID, msg.ID), domain.ErrNotFound)

	msgs, err := f.svc.ListMessages(ctx, f.bob.ID, f.direct.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// notifications stay after the message is gone
	notes, err := f.svc.ListNotifications(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	assert.Equal(t, service.EventMessageDeleted, f.bus.events[len(f.bus.events)-1])
}

func TestReactToMessage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	msg, err := f.svc.SendMessage(ctx, f.alice.ID, f.direct.ID, "react to me")
	require.NoError(t, err)

	v, err := f.svc.ReactToMessage(ctx, f.bob.ID, msg.ID, domain.ReactionLove)
	require.NoError(t, err)
	require.Len(t, v.Reactions, 1)
	assert.Equal(t, domain.ReactionLove, v.Reactions[0].Type)
	assert.Equal(t, "bob", v.Reactions[0].Username)
	require.NotNil(t, v.Content)
	assert.Equal(t, "react to me", *v.Content)

	v, err = f.svc.ReactToMessage(ctx, f.bob.ID, msg.ID, domain.ReactionWow)
	require.NoError(t, err)
	require.Len(t, v.Reactions, 1)
	assert.Equal(t, domain.ReactionWow, v.Reactions[0].Type)

	v, err = f.svc.ReactToMessage(ctx, f.bob.ID, msg.ID, domain.ReactionWow)
	require.NoError(t, err)
	assert.Empty(t, v.Reactions)

	_, err = f.svc.ReactToMessage(ctx, f.carol.ID, msg.ID, domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.ReactToMessage(ctx, f.bob.ID, msg.ID, "MEH")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.ReactToMessage(ctx, f.bob.ID, 9999, domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, service.EventMessageReaction, f.bus.events[len(f.bus.events)-1])
}

func TestListMessages_OrderedAndDecrypted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	f.svc.Now = func() time.Time { return base.Add(time.Minute) }
	second, err := f.svc.SendMessage(ctx, f.bob.ID, f.direct.ID, "second")
	require.NoError(t, err)
	f.svc.Now = func() time.Time { return base }
	first, err := f.svc.SendMessage(ctx, f.alice.ID, f.direct.ID, "first")
	require.NoError(t, err)

	// stored in plain text by an older writer
	legacy := storetest.Message(t, f.store, f.direct, f.alice, "plain", base.Add(time.Minute))

	msgs, err := f.svc.ListMessages(ctx, f.alice.ID, f.direct.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)
	assert.Equal(t, legacy.ID, msgs[2].ID)
	assert.Equal(t, "first", *msgs[0].Content)
	assert.Equal(t, "plain", *msgs[2].Content)

	_, err = f.svc.ListMessages(ctx, f.carol.ID, f.direct.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestStartConversation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	conv, err := f.svc.StartConversation(ctx, f.bob.ID, []int64{f.alice.ID}, false)
	require.NoError(t, err)
	assert.Equal(t, f.direct.ID, conv.ID)

	conv, err = f.svc.StartConversation(ctx, f.alice.ID, []int64{f.carol.ID, f.carol.ID}, false)
	require.NoError(t, err)
	assert.NotEqual(t, f.direct.ID, conv.ID)
	assert.Len(t, conv.Participants, 2)
	assert.False(t, conv.IsGroup)

	group, err := f.svc.StartConversation(ctx, f.alice.ID, []int64{f.bob.ID, f.carol.ID}, true)
	require.NoError(t, err)
	assert.True(t, group.IsGroup)
	assert.Len(t, group.Participants, 3)

	_, err = f.svc.StartConversation(ctx, f.alice.ID, []int64{f.alice.ID}, false)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.StartConversation(ctx, f.alice.ID, []int64{f.bob.ID, f.carol.ID}, false)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.StartConversation(ctx, f.alice.ID, []int64{9999}, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetConversation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.SendMessage(ctx, f.alice.ID, f.direct.ID, "hi")
	require.NoError(t, err)

	conv, err := f.svc.GetConversation(ctx, f.bob.ID, f.direct.ID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 1)
	assert.Len(t, conv.Participants, 2)

	_, err = f.svc.GetConversation(ctx, f.carol.ID, f.direct.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.GetConversation(ctx, f.bob.ID, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMyConversations_MostRecentActivityFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	withCarol := storetest.Conversation(t, f.store, false, f.alice, f.carol)
	empty := storetest.Conversation(t, f.store, true, f.alice, f.bob, f.carol)

	f.svc.Now = func() time.Time { return base }
	_, err := f.svc.SendMessage(ctx, f.alice.ID, withCarol.ID, "old")
	require.NoError(t, err)
	f.svc.Now = func() time.Time { return base.Add(time.Hour) }
	_, err = f.svc.SendMessage(ctx, f.bob.ID, f.direct.ID, "new")
	require.NoError(t, err)

	convs, err := f.svc.ListMyConversations(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 3)
	// the empty group sorts by its creation time, which is now
	assert.Equal(t, empty.ID, convs[0].ID)
	assert.Equal(t, f.direct.ID, convs[1].ID)
	assert.Equal(t, withCarol.ID, convs[2].ID)

	convs, err = f.svc.ListMyConversations(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, convs, 2)
}

func TestPublishFailureIsNotReturned(t *testing.T) {
	f := setup(t)
	f.bus.err = errors.New("hub closed")

	_, err := f.svc.SendMessage(context.Background(), f.alice.ID, f.direct.ID, "still works")
	assert.NoError(t, err)
}

func TestIsParticipant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ok, err := f.svc.IsParticipant(ctx, f.direct.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.IsParticipant(ctx, f.direct.ID, f.carol.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
