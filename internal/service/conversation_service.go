package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"chatcore/internal/domain"
	"chatcore/internal/media"
	"chatcore/internal/metrics"
	"chatcore/internal/notification"
	"chatcore/internal/reaction"
	"chatcore/internal/security"
	"chatcore/internal/view"
)

// MaxContentRunes bounds the length of a text message.
const MaxContentRunes = 5000

// ConversationService orchestrates conversations, messages, reactions and
// notification fan-out. Every operation takes the acting user id explicitly.
type ConversationService struct {
	store       domain.Store
	resolver    *media.Resolver
	reactions   *reaction.Engine
	notifier    *notification.Dispatcher
	encryptor   *security.Encryptor
	metrics     *metrics.Recorder
	broadcaster Broadcaster
	log         *zap.Logger

	Now func() time.Time
}

func NewConversationService(
	store domain.Store,
	resolver *media.Resolver,
	reactions *reaction.Engine,
	notifier *notification.Dispatcher,
	encryptor *security.Encryptor,
	rec *metrics.Recorder,
	log *zap.Logger,
) *ConversationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConversationService{
		store:     store,
		resolver:  resolver,
		reactions: reactions,
		notifier:  notifier,
		encryptor: encryptor,
		metrics:   rec,
		log:       log,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// StartConversation creates a conversation between creatorID and participantIDs.
// A direct conversation between the same two users is reused.
func (s *ConversationService) StartConversation(
	ctx context.Context,
	creatorID int64,
	participantIDs []int64,
	isGroup bool,
) (*view.Conversation, error) {
	ids := make([]int64, 0, len(participantIDs)+1)
	seen := map[int64]struct{}{creatorID: {}}
	ids = append(ids, creatorID)
	for _, id := range participantIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, fmt.Errorf("a conversation needs at least two participants: %w", domain.ErrInvalidArgument)
	}
	if !isGroup && len(ids) != 2 {
		return nil, fmt.Errorf("a direct conversation has exactly two participants: %w", domain.ErrInvalidArgument)
	}
	for _, id := range ids {
		if _, err := s.store.Users().GetByID(ctx, id); err != nil {
			return nil, fmt.Errorf("participant %d: %w", id, err)
		}
	}

	if !isGroup {
		existing, err := s.store.Conversations().FindExistingDirect(ctx, ids[0], ids[1])
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.conversationView(ctx, existing)
		}
	}

	conv := &domain.Conversation{IsGroup: isGroup, CreatedAt: s.Now()}
	if err := s.store.Conversations().Create(ctx, conv, ids); err != nil {
		return nil, err
	}
	s.log.Info("conversation_created",
		zap.Int64("conversation_id", conv.ID),
		zap.Int64("creator_id", creatorID),
		zap.Bool("is_group", isGroup),
	)
	v := view.NewConversation(conv, nil)
	return &v, nil
}

func (s *ConversationService) GetConversation(ctx context.Context, callerID, conversationID int64) (*view.Conversation, error) {
	conv, err := s.participantConversation(ctx, callerID, conversationID)
	if err != nil {
		return nil, err
	}
	return s.conversationView(ctx, conv)
}

// ListMyConversations returns userID's conversations, most recent activity first.
// Messages inside each conversation are oldest first.
func (s *ConversationService) ListMyConversations(ctx context.Context, userID int64) ([]view.Conversation, error) {
	convs, err := s.store.Conversations().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	type entry struct {
		view     view.Conversation
		activity time.Time
	}
	entries := make([]entry, 0, len(convs))
	for _, c := range convs {
		v, err := s.conversationView(ctx, c)
		if err != nil {
			return nil, err
		}
		activity := c.CreatedAt
		if n := len(v.Messages); n > 0 {
			activity = v.Messages[n-1].CreatedAt
		}
		entries = append(entries, entry{view: *v, activity: activity})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].activity.Equal(entries[j].activity) {
			return entries[i].activity.After(entries[j].activity)
		}
		return entries[i].view.ID > entries[j].view.ID
	})

	out := make([]view.Conversation, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.view)
	}
	return out, nil
}

func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	return s.store.Conversations().IsParticipant(ctx, conversationID, userID)
}

func (s *ConversationService) ListNotifications(ctx context.Context, userID int64) ([]view.Notification, error) {
	return s.notifier.ListForUser(ctx, userID)
}

// participantConversation loads a conversation and checks callerID belongs to it.
func (s *ConversationService) participantConversation(ctx context.Context, callerID, conversationID int64) (*domain.Conversation, error) {
	conv, err := s.store.Conversations().GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, fmt.Errorf("user %d is not in conversation %d: %w", callerID, conversationID, domain.ErrForbidden)
	}
	return conv, nil
}

func (s *ConversationService) conversationView(ctx context.Context, conv *domain.Conversation) (*view.Conversation, error) {
	msgs, err := s.store.Messages().ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	v := view.NewConversation(conv, s.messageViews(msgs))
	return &v, nil
}
