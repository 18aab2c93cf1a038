// internal/app/features/clubs/routes.go
package clubs

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /clubs. Club-scoped features (chat, join requests,
// members, events) are mounted under /{id}/... on the returned router.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeClub)

		// leader of this club or admin; checked per request
		pr.Post("/{id}/edit", h.HandleEdit)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireSignedIn)
		ar.Use(sm.RequireRole(models.RoleAdmin))

		ar.Post("/", h.HandleCreate)
		ar.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}
