// internal/app/features/csrftoken/handler.go
package csrftoken

import (
	"crypto/sha256"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// HeaderName carries the token on state-changing requests.
const HeaderName = "X-CSRF-Token"

// Handler issues CSRF tokens and rejects requests that lack a valid one.
type Handler struct {
	Log    *zap.Logger
	key    []byte
	secure bool
}

// NewHandler derives the 32-byte CSRF key from secret. secure marks the
// cookie Secure and turns on the Origin/Referer checks for TLS requests.
func NewHandler(secret string, secure bool, logger *zap.Logger) *Handler {
	sum := sha256.Sum256([]byte("csrf:" + secret))
	return &Handler{Log: logger, key: sum[:], secure: secure}
}

// Protect is the router middleware. GET, HEAD, OPTIONS and TRACE pass;
// everything else needs the token in HeaderName and the matching cookie.
func (h *Handler) Protect(next http.Handler) http.Handler {
	protect := csrf.Protect(h.key,
		csrf.Secure(h.secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.RequestHeader(HeaderName),
		csrf.ErrorHandler(http.HandlerFunc(h.fail)),
	)(next)

	if h.secure {
		return protect
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protect.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request) {
	h.Log.Info("csrf check failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(csrf.FailureReason(r)))
	uierrors.Forbidden(w, "Missing or invalid CSRF token. Reload and try again.")
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /csrf                                                                    |
| Returns a fresh masked token; the cookie is set alongside it.                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{
		"csrf_token": csrf.Token(r),
		"header":     HeaderName,
	})
}
