package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/domain"
	"chatcore/internal/view"
)

type stubAuth struct{}

func (stubAuth) CurrentUser(_ context.Context, token string) (*domain.User, error) {
	switch token {
	case "alice-token":
		return &domain.User{ID: 1, Username: "alice"}, nil
	case "bob-token":
		return &domain.User{ID: 2, Username: "bob"}, nil
	}
	return nil, domain.ErrUnauthenticated
}

// stubConversations lets users 1 and 2 into conversation 10 and publishes sent messages.
type stubConversations struct {
	hub *Hub
}

func (s stubConversations) IsParticipant(_ context.Context, conversationID, userID int64) (bool, error) {
	if conversationID == 404 {
		return false, domain.ErrNotFound
	}
	return conversationID == 10 && (userID == 1 || userID == 2), nil
}

func (s stubConversations) SendMessage(_ context.Context, senderID, conversationID int64, content string) (*view.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty message: %w", domain.ErrInvalidArgument)
	}
	if content == "explode" {
		return nil, fmt.Errorf("send message: insert message: %w", errors.New("disk I/O error"))
	}
	m := &view.Message{ID: 99, ConversationID: conversationID, Content: &content}
	_ = s.hub.Publish("conversation/10", "message.created", m)
	return m, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(nil, nil)
	srv := httptest.NewServer(MakeHandler(hub, stubAuth{}, stubConversations{hub: hub}, []string{"http://app.example"}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env map[string]any
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHandler_RejectsBadOriginAndToken(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := dial(t, srv, http.Header{
		"Origin":        {"http://evil.example"},
		"Authorization": {"Bearer alice-token"},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = dial(t, srv, http.Header{"Origin": {"http://app.example"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, srv, http.Header{
		"Origin":        {"http://app.example"},
		"Authorization": {"Bearer nope"},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_SubscribeAndReceive(t *testing.T) {
	srv, hub := newTestServer(t)

	alice, _, err := dial(t, srv, http.Header{
		"Origin":        {"http://app.example"},
		"Authorization": {"Bearer alice-token"},
	})
	require.NoError(t, err)
	bob, resp, err := dial(t, srv, http.Header{
		"Origin":                 {"http://app.example"},
		"Sec-WebSocket-Protocol": {"bearer, bob-token"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.Header.Get("Sec-WebSocket-Protocol"))

	for _, c := range []*websocket.Conn{alice, bob} {
		require.NoError(t, c.WriteJSON(Inbound{Type: EventSubscribe, ConversationID: 10}))
		env := readEnvelope(t, c)
		assert.Equal(t, EventSubscribed, env["type"])
	}
	assert.Equal(t, 2, hub.Subscribers("conversation/10"))

	require.NoError(t, alice.WriteJSON(Inbound{Type: EventMessage, ConversationID: 10, Content: "hi bob"}))
	for _, c := range []*websocket.Conn{alice, bob} {
		env := readEnvelope(t, c)
		assert.Equal(t, "message.created", env["type"])
		assert.Equal(t, "conversation/10", env["topic"])
		payload := env["payload"].(map[string]any)
		assert.Equal(t, "hi bob", payload["content"])
	}

	require.NoError(t, bob.WriteJSON(Inbound{Type: EventUnsubscribe, ConversationID: 10}))
	assert.Equal(t, EventUnsubscribed, readEnvelope(t, bob)["type"])
	assert.Equal(t, 1, hub.Subscribers("conversation/10"))
}

func TestHandler_ErrorsAndPing(t *testing.T) {
	srv, hub := newTestServer(t)
	conn, _, err := dial(t, srv, http.Header{
		"Origin":        {"http://app.example"},
		"Authorization": {"Bearer alice-token"},
	})
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(Inbound{Type: EventSubscribe, ConversationID: 11}))
	env := readEnvelope(t, conn)
	assert.Equal(t, EventError, env["type"])
	assert.Equal(t, domain.KindForbidden, env["payload"].(map[string]any)["error"])
	assert.Equal(t, 0, hub.Subscribers("conversation/11"))

	require.NoError(t, conn.WriteJSON(Inbound{Type: EventSubscribe, ConversationID: 404}))
	env = readEnvelope(t, conn)
	assert.Equal(t, domain.KindNotFound, env["payload"].(map[string]any)["error"])

	require.NoError(t, conn.WriteJSON(Inbound{Type: "dance"}))
	env = readEnvelope(t, conn)
	assert.Equal(t, domain.KindInvalidArgument, env["payload"].(map[string]any)["error"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	env = readEnvelope(t, conn)
	assert.Equal(t, EventError, env["type"])

	require.NoError(t, conn.WriteJSON(Inbound{Type: EventPing}))
	assert.Equal(t, EventPong, readEnvelope(t, conn)["type"])
}

func TestHandler_MasksInternalErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	conn, _, err := dial(t, srv, http.Header{
		"Origin":        {"http://app.example"},
		"Authorization": {"Bearer alice-token"},
	})
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(Inbound{Type: EventMessage, ConversationID: 10, Content: "explode"}))
	env := readEnvelope(t, conn)
	assert.Equal(t, EventError, env["type"])
	payload := env["payload"].(map[string]any)
	assert.Equal(t, domain.KindInternal, payload["error"])
	assert.Equal(t, "internal server error", payload["message"])

	require.NoError(t, conn.WriteJSON(Inbound{Type: EventMessage, ConversationID: 10, Content: "  "}))
	payload = readEnvelope(t, conn)["payload"].(map[string]any)
	assert.Equal(t, domain.KindInvalidArgument, payload["error"])
	assert.Contains(t, payload["message"], "empty message")
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.Empty(t, extractToken(r))

	r.Header.Set("Sec-WebSocket-Protocol", "bearer, abc")
	assert.Equal(t, "abc", extractToken(r))

	r.Header.Set("Authorization", "Bearer xyz")
	assert.Equal(t, "xyz", extractToken(r))
}

func TestCheckOrigin(t *testing.T) {
	check := makeCheckOrigin([]string{"https://App.example/"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.False(t, check(r))

	r.Header.Set("Origin", "https://app.example")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://other.example")
	assert.False(t, check(r))

	assert.True(t, makeCheckOrigin([]string{"*"})(r))
	assert.False(t, makeCheckOrigin(nil)(r))
}
