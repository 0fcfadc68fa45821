package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"chatcore/internal/domain"
	"chatcore/internal/media"
	"chatcore/internal/service"
)

type sendMessageRequest struct {
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
}

// @Summary      Send a text message
// @Tags         chat
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body sendMessageRequest true "Message"
// @Success      201  {object}  view.Message
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chat/send [post]
func handleSendMessage(svc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		msg, err := svc.SendMessage(r.Context(), CurrentUser(r).ID, req.ConversationID, req.Content)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

// @Summary      Send media
// @Description  Images are sent together; if any file is a video only the first video is kept
// @Tags         chat
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        conversationId formData int  true "Conversation ID"
// @Param        mediaFiles     formData file true "Files"
// @Success      201  {object}  view.Message
// @Failure      400  {object}  errorResponse
// @Failure      413  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /chat/send-media [post]
func handleSendMedia(svc *service.ConversationService, maxUploadBytes int64, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			badRequest(w, "failed to parse multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		convID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("conversationId")), 10, 64)
		if err != nil {
			badRequest(w, "invalid conversationId")
			return
		}

		headers := r.MultipartForm.File["mediaFiles"]
		files := make([]media.File, 0, len(headers))
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				badRequest(w, "could not read "+fh.Filename)
				return
			}
			defer f.Close()
			files = append(files, media.File{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Content:     f,
			})
		}

		msg, err := svc.SendMedia(r.Context(), CurrentUser(r).ID, convID, files)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

// @Summary      Toggle a reaction on a message
// @Description  Same type twice removes it, a different type replaces it
// @Tags         chat
// @Security     BearerAuth
// @Produce      json
// @Param        messageId query int    true "Message ID"
// @Param        type      query string true "LIKE, LOVE, HAHA, WOW, SAD or ANGRY"
// @Success      200  {object}  view.Message
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chat/react [post]
func handleReact(svc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		msgID, err := strconv.ParseInt(q.Get("messageId"), 10, 64)
		if err != nil {
			badRequest(w, "invalid messageId")
			return
		}
		msg, err := svc.ReactToMessage(r.Context(), CurrentUser(r).ID, msgID, domain.ReactionType(q.Get("type")))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

// @Summary      Delete a message
// @Description  Only the sender may delete; media and reactions go with it
// @Tags         chat
// @Security     BearerAuth
// @Param        messageID path int true "Message ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chat/{messageID} [delete]
func handleDeleteMessage(svc *service.ConversationService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "messageID")
		if !ok {
			badRequest(w, "invalid message id")
			return
		}
		if err := svc.DeleteMessage(r.Context(), CurrentUser(r).ID, id); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
