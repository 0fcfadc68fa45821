package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chatcore/internal/service"
)

type conversationCreateRequest struct {
	ParticipantIDs []int64 `json:"participantIds"`
	IsGroup        bool    `json:"isGroup"`
}

// pathID parses a positive int64 URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// @Summary      Start a conversation
// @Description  Creates a conversation, or returns the existing direct one between the same two users
// @Tags         chat
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body conversationCreateRequest true "Participants"
// @Success      201  {object}  view.Conversation
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chat/conversations [post]
func handleStartConversation(svc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req conversationCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		conv, err := svc.StartConversation(r.Context(), CurrentUser(r).ID, req.ParticipantIDs, req.IsGroup)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

// @Summary      Get a conversation
// @Tags         chat
// @Security     BearerAuth
// @Produce      json
// @Param        conversationID path int true "Conversation ID"
// @Success      200  {object}  view.Conversation
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chat/conversations/{conversationID} [get]
func handleGetConversation(svc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "conversationID")
		if !ok {
			badRequest(w, "invalid conversation id")
			return
		}
		conv, err := svc.GetConversation(r.Context(), CurrentUser(r).ID, id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

// @Summary      List messages of a conversation
// @Description  Oldest first
// @Tags         chat
// @Security     BearerAuth
// @Produce      json
// @Param        conversationID path int true "Conversation ID"
// @Success      200  {array}   view.Message
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chat/conversation/{conversationID} [get]
func handleListMessages(svc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "conversationID")
		if !ok {
			badRequest(w, "invalid conversation id")
			return
		}
		msgs, err := svc.ListMessages(r.Context(), CurrentUser(r).ID, id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

// @Summary      List my conversations
// @Description  Most recent activity first
// @Tags         chat
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  view.Conversation
// @Router       /chat/me [get]
func handleMyConversations(svc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := svc.ListMyConversations(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

// @Summary      List my notifications
// @Description  Newest first
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  view.Notification
// @Router       /notifications [get]
func handleListNotifications(svc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notes, err := svc.ListNotifications(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, notes)
	}
}
