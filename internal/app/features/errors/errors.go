// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/authz"
)

// pageData is the body of the /forbidden and /unauthorized endpoints.
type pageData struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	IsLoggedIn bool   `json:"is_logged_in"`
	Role       string `json:"role,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	BackURL    string `json:"back_url"`
}

// Handler is the errors feature handler.
// No DB needed; browsers land here after an auth redirect.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden explains an access denial.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	role, name, _, signedIn := authz.UserCtx(r)
	if !signedIn {
		role = ""
	}
	WriteJSON(w, http.StatusForbidden, pageData{
		Error:      CodeForbidden,
		Message:    "You don't have permission to view this page.",
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		BackURL:    "/",
	})
}

// Unauthorized asks the caller to sign in.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusUnauthorized, pageData{
		Error:   CodeUnauthenticated,
		Message: "Please sign in to continue.",
		BackURL: "/login",
	})
}
