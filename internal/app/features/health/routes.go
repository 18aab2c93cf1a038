package health

import "github.com/go-chi/chi/v5"

// Routes mounts at /health. HEAD is answered like GET for load balancers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Head("/", h.Serve)
	return r
}
