// internal/app/features/joinrequests/handler.go
package joinrequests

import (
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves join requests: visitors apply, leaders and admins decide.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Resolver *clubpolicy.Resolver
}

func NewHandler(db *mongo.Database, resolver *clubpolicy.Resolver, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Resolver: resolver,
	}
}

func objectIDParam(w http.ResponseWriter, r *http.Request, key, notFound string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		uierrors.NotFound(w, notFound)
		return primitive.NilObjectID, false
	}
	return id, true
}

// manager resolves the caller and writes the refusal when they may not
// decide requests for the club.
func (h *Handler) manager(w http.ResponseWriter, r *http.Request, clubID primitive.ObjectID) (clubpolicy.Resolution, primitive.ObjectID, bool) {
	res, actorID := h.Resolver.ForRequest(r, clubID)
	if res.Err != nil {
		h.ErrLog.LogUnavailable(w, r, "resolve club role failed", res.Err, "Could not check your access. Try again.")
		return res, actorID, false
	}
	if !clubpolicy.CanManage(r, res) {
		uierrors.Forbidden(w, "Only the club leader or an admin can manage join requests.")
		return res, actorID, false
	}
	return res, actorID, true
}
