package ws

import (
	"encoding/json"
	"time"
)

// Inbound event types.
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventMessage     = "message"
	EventPing        = "ping"
)

// Outbound event types besides the ones published on topics.
const (
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventPong         = "pong"
	EventError        = "error"
)

// Envelope is every frame the server writes.
type Envelope struct {
	Type    string    `json:"type"`
	Topic   string    `json:"topic,omitempty"`
	Payload any       `json:"payload,omitempty"`
	TS      time.Time `json:"ts"`
}

// Inbound is a frame read from a client.
type Inbound struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func encode(typ, topic string, payload any, ts time.Time) ([]byte, error) {
	return json.Marshal(Envelope{Type: typ, Topic: topic, Payload: payload, TS: ts})
}
