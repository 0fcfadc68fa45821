package reaction

import (
	"context"
	"fmt"

	"chatcore/internal/domain"
)

// Target is what a reaction can be put on.
type Target interface {
	Kind() string
	// Typed reports whether reactions carry a type. Untyped targets toggle on presence.
	Typed() bool
	// Check fails when the target is missing or not visible to userID.
	Check(ctx context.Context, targetID, userID int64) error
	WithinTx(ctx context.Context, fn func(domain.ReactionRepository) error) error
}

type messageTarget struct {
	store domain.Store
}

// MessageTarget reacts to chat messages. Only conversation participants may react.
func MessageTarget(store domain.Store) Target {
	return &messageTarget{store: store}
}

func (t *messageTarget) Kind() string { return "message" }
func (t *messageTarget) Typed() bool  { return true }

func (t *messageTarget) Check(ctx context.Context, messageID, userID int64) error {
	msg, err := t.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	ok, err := t.store.Conversations().IsParticipant(ctx, msg.ConversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %d is not in conversation %d: %w", userID, msg.ConversationID, domain.ErrForbidden)
	}
	return nil
}

func (t *messageTarget) WithinTx(ctx context.Context, fn func(domain.ReactionRepository) error) error {
	return t.store.WithinTx(ctx, func(tx domain.Store) error {
		return fn(tx.MessageReactions())
	})
}

type postTarget struct {
	store domain.Store
}

// PostTarget reacts to feed posts. Posts hidden by a block in either
// direction are reported as missing.
func PostTarget(store domain.Store) Target {
	return &postTarget{store: store}
}

func (t *postTarget) Kind() string { return "post" }
func (t *postTarget) Typed() bool  { return false }

func (t *postTarget) Check(ctx context.Context, postID, userID int64) error {
	post, err := t.store.Posts().GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID == userID {
		return nil
	}
	blocked, err := t.store.Posts().IsBlocked(ctx, userID, post.UserID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("post %d: %w", postID, domain.ErrNotFound)
	}
	return nil
}

func (t *postTarget) WithinTx(ctx context.Context, fn func(domain.ReactionRepository) error) error {
	return t.store.WithinTx(ctx, func(tx domain.Store) error {
		return fn(tx.PostReactions())
	})
}
