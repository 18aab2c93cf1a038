// internal/app/features/joinrequests/routes.go
package joinrequests

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// JoinRoutes mounts at /clubs/{id}/join.
func JoinRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/", h.HandleJoin)
	return r
}

// Routes mounts at /clubs/{id}/requests. Leader or admin, checked per request.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/{userID}/accept", h.HandleAccept)
	r.Post("/{userID}/reject", h.HandleReject)
	return r
}
