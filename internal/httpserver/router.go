package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "chatcore/docs"
	"chatcore/internal/config"
	"chatcore/internal/identity"
	"chatcore/internal/logging"
	"chatcore/internal/media"
	"chatcore/internal/service"
	"chatcore/internal/ws"
)

// Deps are the collaborators the HTTP layer routes to.
type Deps struct {
	Config        *config.Config
	Log           *zap.Logger
	Identity      *identity.Provider
	Conversations *service.ConversationService
	Posts         *service.PostService
	Uploads       *media.LocalStore
	Hub           *ws.Hub
	// Metrics serves /metrics; promhttp.Handler() when nil.
	Metrics http.Handler
}

// NewRouter constructs the main HTTP router and wires routes and middleware.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	metricsHandler := d.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": d.Config.AppName + " API",
			"version": "1.0.0",
			"docs":    "/docs/index.html",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Handle("/metrics", metricsHandler)

	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// sockets live longer than the request timeout
	r.Get("/ws", ws.MakeHandler(d.Hub, d.Identity, d.Conversations, d.Config.CORSOrigins))

	r.Mount("/api/uploads", uploadRoutes(d.Uploads))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Post("/auth/login", handleLogin(d.Identity, log))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Identity, log))

			r.Get("/auth/me", handleMe())

			r.Route("/chat", func(r chi.Router) {
				r.Post("/conversations", handleStartConversation(d.Conversations, log))
				r.Get("/conversations/{conversationID}", handleGetConversation(d.Conversations, log))
				r.Get("/conversation/{conversationID}", handleListMessages(d.Conversations, log))
				r.Get("/me", handleMyConversations(d.Conversations, log))
				r.Post("/send", handleSendMessage(d.Conversations, log))
				r.Post("/send-media", handleSendMedia(d.Conversations, d.Config.MaxUploadBytes(), log))
				r.Post("/react", handleReact(d.Conversations, log))
				r.Delete("/{messageID}", handleDeleteMessage(d.Conversations, log))
			})

			r.Get("/notifications", handleListNotifications(d.Conversations, log))
			r.Post("/posts/{postID}/react", handleReactToPost(d.Posts, log))
		})
	})

	return r
}

// requestLogger writes one access log line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http_request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("headers", logging.SafeHeaders(r.Header)),
			)
		})
	}
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
