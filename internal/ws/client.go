package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatcore/internal/domain"
	"chatcore/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 8192
	sendBufSize    = 64
)

// Client is one authenticated websocket connection. topics is guarded by the hub lock.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	topics map[string]struct{}
	send   chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		topics: make(map[string]struct{}),
		send:   make(chan []byte, sendBufSize),
	}
}

// readPump handles inbound frames until the connection fails.
func (c *Client) readPump(ctx context.Context, convs Conversations) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("realtime_read_failed", zap.Int64("user_id", c.userID), zap.Error(err))
			}
			return
		}
		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.fail(errors.New("invalid frame"), domain.KindInvalidArgument)
			continue
		}
		c.handle(ctx, convs, in)
	}
}

func (c *Client) handle(ctx context.Context, convs Conversations, in Inbound) {
	switch in.Type {
	case EventSubscribe:
		ok, err := convs.IsParticipant(ctx, in.ConversationID, c.userID)
		if err != nil {
			c.fail(err, domain.KindOf(err))
			return
		}
		if !ok {
			c.fail(errors.New("not a participant of this conversation"), domain.KindForbidden)
			return
		}
		topic := service.ConversationTopic(in.ConversationID)
		c.hub.Subscribe(c, topic)
		c.hub.reply(c, EventSubscribed, map[string]string{"topic": topic})

	case EventUnsubscribe:
		topic := service.ConversationTopic(in.ConversationID)
		c.hub.Unsubscribe(c, topic)
		c.hub.reply(c, EventUnsubscribed, map[string]string{"topic": topic})

	case EventMessage:
		// the sender sees its own message through the topic broadcast
		if _, err := convs.SendMessage(ctx, c.userID, in.ConversationID, in.Content); err != nil {
			c.fail(err, domain.KindOf(err))
		}

	case EventPing:
		c.hub.reply(c, EventPong, nil)

	default:
		c.fail(errors.New("unknown event type: "+in.Type), domain.KindInvalidArgument)
	}
}

// fail reports err to the client. Internal errors are logged and not echoed.
func (c *Client) fail(err error, kind string) {
	msg := err.Error()
	if kind == domain.KindInternal {
		c.hub.log.Error("realtime_request_failed", zap.Int64("user_id", c.userID), zap.Error(err))
		msg = "internal server error"
	}
	c.hub.reply(c, EventError, errorPayload{Error: kind, Message: msg})
}

// writePump drains send onto the connection and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
