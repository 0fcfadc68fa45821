package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"chatcore/internal/domain"
	"chatcore/internal/media"
	"chatcore/internal/reaction"
	"chatcore/internal/view"
)

// SendMessage stores a text message and notifies the other participants.
func (s *ConversationService) SendMessage(ctx context.Context, senderID, conversationID int64, content string) (*view.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("message content cannot be empty: %w", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return nil, fmt.Errorf("message content exceeds %d characters: %w", MaxContentRunes, domain.ErrInvalidArgument)
	}

	sender, conv, err := s.senderAndConversation(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.encryptor.Encrypt(content)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}
	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Content:        &encrypted,
		CreatedAt:      s.Now(),
	}
	if err := s.appendAndNotify(ctx, msg, conv, sender); err != nil {
		return nil, err
	}

	s.metrics.MessageSent("text")
	v := view.NewMessage(msg, &content)
	s.publish(conv.ID, EventMessageCreated, v)
	return &v, nil
}

// SendMedia uploads files and stores them as one media message without text.
func (s *ConversationService) SendMedia(ctx context.Context, senderID, conversationID int64, files []media.File) (*view.Message, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one media file is required: %w", domain.ErrInvalidArgument)
	}

	sender, conv, err := s.senderAndConversation(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}

	attachments, err := s.resolver.Resolve(ctx, files)
	if err != nil {
		return nil, err
	}
	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Media:          attachments,
		CreatedAt:      s.Now(),
	}
	if err := s.appendAndNotify(ctx, msg, conv, sender); err != nil {
		s.resolver.Discard(ctx, attachments)
		return nil, err
	}

	s.metrics.MessageSent("media")
	v := view.NewMessage(msg, nil)
	s.publish(conv.ID, EventMessageCreated, v)
	return &v, nil
}

// DeleteMessage removes a message with its media and reactions. Only the author may delete.
// Notifications already sent for the message are kept.
func (s *ConversationService) DeleteMessage(ctx context.Context, callerID, messageID int64) error {
	msg, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != callerID {
		return fmt.Errorf("only the sender can delete message %d: %w", messageID, domain.ErrForbidden)
	}
	if err := s.store.Messages().Delete(ctx, messageID); err != nil {
		return err
	}

	s.log.Info("message_deleted", zap.Int64("message_id", messageID), zap.Int64("conversation_id", msg.ConversationID))
	s.publish(msg.ConversationID, EventMessageDeleted, MessageDeleted{ID: messageID, ConversationID: msg.ConversationID})
	return nil
}

// ReactToMessage toggles userID's reaction and returns the message with its reactions.
func (s *ConversationService) ReactToMessage(ctx context.Context, userID, messageID int64, typ domain.ReactionType) (*view.Message, error) {
	res, err := s.reactions.Toggle(ctx, reaction.MessageTarget(s.store), messageID, userID, typ)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	v := s.messageView(msg)

	s.log.Debug("message_reaction_toggled",
		zap.Int64("message_id", messageID),
		zap.Int64("user_id", userID),
		zap.String("outcome", string(res.Outcome)),
	)
	s.publish(msg.ConversationID, EventMessageReaction, v)
	return &v, nil
}

// ListMessages returns a conversation's messages, oldest first.
func (s *ConversationService) ListMessages(ctx context.Context, callerID, conversationID int64) ([]view.Message, error) {
	if _, err := s.participantConversation(ctx, callerID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.store.Messages().ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return s.messageViews(msgs), nil
}

func (s *ConversationService) senderAndConversation(ctx context.Context, senderID, conversationID int64) (*domain.User, *domain.Conversation, error) {
	sender, err := s.store.Users().GetByID(ctx, senderID)
	if err != nil {
		return nil, nil, err
	}
	conv, err := s.participantConversation(ctx, senderID, conversationID)
	if err != nil {
		return nil, nil, err
	}
	return sender, conv, nil
}

// appendAndNotify persists msg and its notifications in one transaction.
func (s *ConversationService) appendAndNotify(ctx context.Context, msg *domain.Message, conv *domain.Conversation, sender *domain.User) error {
	var created []*domain.Notification
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Messages().Append(ctx, msg); err != nil {
			return err
		}
		var err error
		created, err = s.notifier.FanOutForMessage(ctx, tx.Notifications(), conv, sender)
		return err
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	s.notifier.Committed(created)
	msg.Sender = sender
	if msg.Media == nil {
		msg.Media = []*domain.MessageMedia{}
	}
	msg.Reactions = []*domain.Reaction{}
	return nil
}

func (s *ConversationService) messageViews(msgs []*domain.Message) []view.Message {
	out := make([]view.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, s.messageView(m))
	}
	return out
}

// messageView decrypts content for display. Undecryptable content is shown as stored.
func (s *ConversationService) messageView(m *domain.Message) view.Message {
	if m.Content == nil {
		return view.NewMessage(m, nil)
	}
	plain, err := s.encryptor.Decrypt(*m.Content)
	if err != nil {
		s.log.Debug("message_decrypt_failed", zap.Int64("message_id", m.ID), zap.Error(err))
		plain = *m.Content
	}
	return view.NewMessage(m, &plain)
}
