// internal/app/features/chat/routes.go
package chat

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /clubs/{id}/chat.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeChat)
	r.Get("/stream", h.ServeStream)
	r.Post("/messages", h.HandleSend)
	r.Post("/messages/{messageID}/delete", h.HandleDelete)
	return r
}
