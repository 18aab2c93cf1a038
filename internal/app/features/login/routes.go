package login

import "github.com/go-chi/chi/v5"

// Routes mounts at /login. Sign-up lives here too since it signs the new
// account in.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Post("/", h.HandleLoginPost)
	r.Post("/signup", h.HandleSignUp)
	return r
}
