package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatcore/internal/media"
)

// uploadRoutes serves stored media back under /api/uploads/{filename}.
func uploadRoutes(store *media.LocalStore) chi.Router {
	r := chi.NewRouter()

	r.Get("/{filename}", func(w http.ResponseWriter, r *http.Request) {
		path, err := store.Path(chi.URLParam(r, "filename"))
		if err != nil {
			http.Error(w, "invalid filename", http.StatusBadRequest)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeFile(w, r, path)
	})

	return r
}
