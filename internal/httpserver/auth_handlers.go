package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chatcore/internal/identity"
	"chatcore/internal/view"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string           `json:"accessToken"`
	TokenType   string           `json:"tokenType"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	User        view.UserSummary `json:"user"`
}

// @Summary      Login
// @Description  Exchange username and password for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body loginRequest true "Credentials"
// @Success      200  {object}  tokenResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/login [post]
func handleLogin(idp *identity.Provider, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}

		session, err := idp.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: session.AccessToken,
			TokenType:   session.TokenType,
			ExpiresAt:   session.ExpiresAt,
			User:        view.NewUserSummary(session.User),
		})
	}
}

// @Summary      Get Current User
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  view.UserSummary
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, view.NewUserSummary(CurrentUser(r)))
	}
}
