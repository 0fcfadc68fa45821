package reaction_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/domain"
	"chatcore/internal/metrics"
	"chatcore/internal/reaction"
	"chatcore/internal/store/storetest"
)

type fixture struct {
	store  domain.Store
	engine *reaction.Engine
	alice  *domain.User
	bob    *domain.User
	carol  *domain.User
	msg    *domain.Message
	post   *domain.Post
}

func setup(t *testing.T) *fixture {
	t.Helper()
	s := storetest.New(t)
	f := &fixture{
		store:  s,
		engine: reaction.NewEngine(0, metrics.New(prometheus.NewRegistry()), nil),
		alice:  storetest.User(t, s, "alice", "Alice"),
		bob:    storetest.User(t, s, "bob", "Bob"),
		carol:  storetest.User(t, s, "carol", "Carol"),
	}
	conv := storetest.Conversation(t, s, false, f.alice, f.bob)
	f.msg = storetest.Message(t, s, conv, f.alice, "hi", time.Time{})
	f.post = storetest.Post(t, s, f.carol)
	return f
}

func TestToggle_MessageSequence(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	target := reaction.MessageTarget(f.store)

	res, err := f.engine.Toggle(ctx, target, f.msg.ID, f.bob.ID, domain.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, reaction.Added, res.Outcome)
	require.NotNil(t, res.Reaction)
	assert.Equal(t, "bob", res.Reaction.Username)
	require.Len(t, res.Reactions, 1)

	res, err = f.engine.Toggle(ctx, target, f.msg.ID, f.bob.ID, "love")
	require.NoError(t, err)
	assert.Equal(t, reaction.Updated, res.Outcome)
	require.Len(t, res.Reactions, 1)
	assert.Equal(t, domain.ReactionLove, res.Reactions[0].Type)

	res, err = f.engine.Toggle(ctx, target, f.msg.ID, f.bob.ID, domain.ReactionLove)
	require.NoError(t, err)
	assert.Equal(t, reaction.Removed, res.Outcome)
	assert.Nil(t, res.Reaction)
	assert.Empty(t, res.Reactions)
}

func TestToggle_SameTypeTwiceRoundTrips(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	target := reaction.MessageTarget(f.store)

	first, err := f.engine.Toggle(ctx, target, f.msg.ID, f.alice.ID, domain.ReactionHaha)
	require.NoError(t, err)
	second, err := f.engine.Toggle(ctx, target, f.msg.ID, f.alice.ID, domain.ReactionHaha)
	require.NoError(t, err)

	assert.Equal(t, reaction.Added, first.Outcome)
	assert.Equal(t, reaction.Removed, second.Outcome)

	found, err := f.store.MessageReactions().Find(ctx, f.msg.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestToggle_MessageErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	target := reaction.MessageTarget(f.store)

	_, err := f.engine.Toggle(ctx, target, f.msg.ID, f.bob.ID, "MEH")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.engine.Toggle(ctx, target, 9999, f.bob.ID, domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.Toggle(ctx, target, f.msg.ID, f.carol.ID, domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestToggle_PostIsBinary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	target := reaction.PostTarget(f.store)

	res, err := f.engine.Toggle(ctx, target, f.post.ID, f.alice.ID, "ignored")
	require.NoError(t, err)
	assert.Equal(t, reaction.Added, res.Outcome)
	assert.Empty(t, res.Reaction.Type)

	res, err = f.engine.Toggle(ctx, target, f.post.ID, f.bob.ID, "")
	require.NoError(t, err)
	assert.Len(t, res.Reactions, 2)

	res, err = f.engine.Toggle(ctx, target, f.post.ID, f.alice.ID, domain.ReactionAngry)
	require.NoError(t, err)
	assert.Equal(t, reaction.Removed, res.Outcome)
	require.Len(t, res.Reactions, 1)
	assert.Equal(t, f.bob.ID, res.Reactions[0].UserID)
}

func TestToggle_PostBlocked(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.store.Posts().Block(ctx, f.carol.ID, f.bob.ID))

	_, err := f.engine.Toggle(ctx, reaction.PostTarget(f.store), f.post.ID, f.bob.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.Toggle(ctx, reaction.PostTarget(f.store), 4242, f.alice.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToggle_ConcurrentTogglesSerialize(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	target := reaction.MessageTarget(f.store)

	const n = 21
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Toggle(ctx, target, f.msg.ID, f.bob.ID, domain.ReactionWow)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// an odd number of same-type toggles leaves exactly one row
	rs, err := f.store.MessageReactions().ListForTarget(ctx, f.msg.ID)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, domain.ReactionWow, rs[0].Type)
}

func TestToggle_ManyUsersOnFileDatabase(t *testing.T) {
	s := storetest.NewFile(t)
	ctx := context.Background()
	engine := reaction.NewEngine(0, nil, nil)

	const n = 30
	members := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		members = append(members, storetest.User(t, s, fmt.Sprintf("user%02d", i), ""))
	}
	conv := storetest.Conversation(t, s, true, members...)
	msg := storetest.Message(t, s, conv, members[0], "vote", time.Time{})
	target := reaction.MessageTarget(s)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, u := range members {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := engine.Toggle(ctx, target, msg.ID, userID, domain.ReactionLike)
			errs <- err
		}(u.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rs, err := s.MessageReactions().ListForTarget(ctx, msg.ID)
	require.NoError(t, err)
	assert.Len(t, rs, n)
}

// uncheckedTarget skips the existence check so the store sees a vanished target.
type uncheckedTarget struct {
	reaction.Target
}

func (uncheckedTarget) Check(context.Context, int64, int64) error { return nil }

func TestToggle_TargetGoneAfterCheck(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.store.Messages().Delete(ctx, f.msg.ID))

	_, err := f.engine.Toggle(ctx, uncheckedTarget{reaction.MessageTarget(f.store)}, f.msg.ID, f.bob.ID, domain.ReactionLike)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
