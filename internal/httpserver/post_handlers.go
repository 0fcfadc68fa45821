package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"chatcore/internal/service"
)

// @Summary      Toggle a like on a post
// @Tags         posts
// @Security     BearerAuth
// @Produce      json
// @Param        postID path int true "Post ID"
// @Success      200  {object}  view.PostReactions
// @Failure      404  {object}  errorResponse
// @Router       /posts/{postID}/react [post]
func handleReactToPost(svc *service.PostService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "postID")
		if !ok {
			badRequest(w, "invalid post id")
			return
		}
		res, err := svc.ToggleReaction(r.Context(), CurrentUser(r).ID, id)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
