// internal/app/features/chat/handler.go
package chat

import (
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/chatview"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the club chat surface. Every request opens its own
// chatview.View and closes it before returning.
type Handler struct {
	Views    *chatview.Controller
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	// PostLimiter caps sends per user. nil disables the cap.
	PostLimiter *ratelimit.Limiter
}

func NewHandler(views *chatview.Controller, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, postLimiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{
		Views:       views,
		Log:         logger,
		ErrLog:      errLog,
		AuditLog:    audit,
		PostLimiter: postLimiter,
	}
}

func clubIDParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// statusFor maps a settled view state to an HTTP status.
func statusFor(state chatview.State) int {
	switch state {
	case chatview.StateReady:
		return http.StatusOK
	case chatview.StateUnauthenticated:
		return http.StatusUnauthorized
	case chatview.StateForbidden:
		return http.StatusForbidden
	default:
		return http.StatusServiceUnavailable
	}
}

// writeGated answers a request whose view never reached ready.
func writeGated(w http.ResponseWriter, vm chatview.ViewModel) {
	switch vm.State {
	case chatview.StateUnauthenticated:
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthenticated, vm.Error)
	case chatview.StateForbidden:
		uierrors.Forbidden(w, vm.Error)
	default:
		uierrors.WriteJSON(w, http.StatusServiceUnavailable, uierrors.ErrorResponse{
			Error:   uierrors.CodeUnavailable,
			Message: vm.Error,
			Retry:   true,
		})
	}
}
