package httpserver

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"chatcore/internal/domain"
	"chatcore/internal/media"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var kindStatus = map[string]int{
	domain.KindNotFound:        http.StatusNotFound,
	domain.KindInvalidArgument: http.StatusBadRequest,
	domain.KindUploadFailed:    http.StatusBadGateway,
	domain.KindUnauthenticated: http.StatusUnauthorized,
	domain.KindForbidden:       http.StatusForbidden,
	domain.KindConflict:        http.StatusConflict,
	domain.KindInternal:        http.StatusInternalServerError,
}

// writeError maps err to a status by kind. Internal errors are logged and not echoed.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := domain.KindOf(err)
	status := kindStatus[kind]
	msg := err.Error()

	switch {
	case errors.Is(err, media.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case kind == domain.KindInternal:
		log.Error("request_failed", zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: kind, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: domain.KindInvalidArgument, Message: msg})
}
