// internal/app/features/events/routes.go
package events

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at /clubs/{id}/events.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeEvents)
	r.Post("/{eventID}/delete", h.HandleDeleteEvent)
	return r
}

// ProposalRoutes mounts at /clubs/{id}/proposals.
func ProposalRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeClubProposals)
		pr.Post("/", h.HandlePropose)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireSignedIn)
		ar.Use(sm.RequireRole(models.RoleAdmin))
		ar.Post("/{pid}/approve", h.HandleApprove)
		ar.Post("/{pid}/reject", h.HandleReject)
	})

	return r
}

// QueueRoutes mounts at /proposals: the admin review queue.
func QueueRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeQueue)
	return r
}
