// internal/app/features/members/handler.go
package members

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

// Handler is the feature-level handler for a club's member roster.
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

// access parses the club id and checks that the caller leads the club or
// is an admin. It writes the response itself when it returns false.
func (h *Handler) access(w http.ResponseWriter, r *http.Request) (clubID, actorID primitive.ObjectID, res clubpolicy.Resolution, ok bool) {
	clubID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.NotFound(w, "Club not found.")
		return
	}
	res, actorID = h.Resolver.ForRequest(r, clubID)
	if res.Err != nil {
		h.ErrLog.LogUnavailable(w, r, "resolve club role failed", res.Err, "Could not check your access. Try again.")
		return
	}
	if !clubpolicy.CanManage(r, res) {
		uierrors.Forbidden(w, "Only the club leader or an admin can manage members.")
		return
	}
	return clubID, actorID, res, true
}
