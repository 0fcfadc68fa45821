package service

import (
	"fmt"

	"go.uber.org/zap"
)

// Realtime event names published on conversation topics.
const (
	EventMessageCreated  = "message.created"
	EventMessageDeleted  = "message.deleted"
	EventMessageReaction = "message.reaction"
)

// Broadcaster pushes events to subscribers of a topic. Delivery is best effort.
type Broadcaster interface {
	Publish(topic, event string, payload any) error
}

// ConversationTopic is the topic key for events in one conversation.
func ConversationTopic(conversationID int64) string {
	return fmt.Sprintf("conversation/%d", conversationID)
}

// MessageDeleted is the payload of EventMessageDeleted.
type MessageDeleted struct {
	ID             int64 `json:"id"`
	ConversationID int64 `json:"conversationId"`
}

// SetBroadcaster sets the realtime broadcaster (optional dependency).
func (s *ConversationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *ConversationService) publish(conversationID int64, event string, payload any) {
	if s.broadcaster == nil {
		return
	}
	topic := ConversationTopic(conversationID)
	if err := s.broadcaster.Publish(topic, event, payload); err != nil {
		s.log.Warn("realtime_publish_failed",
			zap.String("topic", topic),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
