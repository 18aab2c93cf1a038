// internal/app/features/csrftoken/routes.go
package csrftoken

import "github.com/go-chi/chi/v5"

// Routes mounts at /csrf. The router must run behind Protect.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeToken)
	return r
}
