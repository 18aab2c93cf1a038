// internal/app/features/events/handler.go
package events

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

// Handler serves club events and the proposal workflow: leaders propose,
// admins approve or reject.
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

func idParam(w http.ResponseWriter, r *http.Request, key, notFound string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		uierrors.NotFound(w, notFound)
		return primitive.NilObjectID, false
	}
	return id, true
}
