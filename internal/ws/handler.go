// Package ws serves the realtime websocket endpoint and the topic hub behind it.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatcore/internal/domain"
	"chatcore/internal/view"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

// Conversations is the part of the conversation service a socket can drive.
type Conversations interface {
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
	SendMessage(ctx context.Context, senderID, conversationID int64, content string) (*view.Message, error)
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimRight(strings.TrimSpace(strings.ToLower(origin)), "/")
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if _, wildcard := allowed["*"]; wildcard {
		return func(*http.Request) bool { return true }
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return false }
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		_, ok := allowed[fmt.Sprintf("%s://%s", u.Scheme, u.Host)]
		return ok
	}
}

// extractToken reads "Authorization: Bearer <t>" or "Sec-WebSocket-Protocol: bearer, <t>".
func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token
		}
	}

	parts := strings.Split(r.Header.Get("Sec-WebSocket-Protocol"), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// MakeHandler returns the /ws handler. Clients subscribe to conversations they
// belong to and receive every event published on those topics.
func MakeHandler(hub *Hub, auth Authenticator, convs Conversations, allowedOrigins []string) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin:  checkOrigin,
		Subprotocols: []string{"bearer"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		token := extractToken(r)
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		user, err := auth.CurrentUser(r.Context(), token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Debug("realtime_upgrade_failed", zap.Error(err))
			return
		}

		client := NewClient(hub, conn, user.ID)
		hub.Register(client)
		hub.log.Debug("realtime_client_connected", zap.Int64("user_id", user.ID))

		go client.writePump()
		client.readPump(context.WithoutCancel(r.Context()), convs)
		hub.log.Debug("realtime_client_disconnected", zap.Int64("user_id", user.ID))
	}
}
