// internal/app/features/joinrequests/join.go
package joinrequests

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	joinrequeststore "github.com/dalemusser/clubhub/internal/app/store/joinrequests"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/join                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleJoin records a pending request from the caller. Leaders and
// members of the club are refused; so is a second pending request.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	clubID, ok := objectIDParam(w, r, "id", "Club not found.")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := clubstore.New(h.DB).GetByID(ctx, clubID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.NotFound(w, "Club not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load club failed", err, "Failed to send join request.")
		return
	}

	res, userID := h.Resolver.ForRequest(r, clubID)
	if res.Err != nil {
		h.ErrLog.LogUnavailable(w, r, "resolve club role failed", res.Err, "Could not check your access. Try again.")
		return
	}
	if res.Role == models.RoleLeader || res.Role == models.RoleMember {
		uierrors.Conflict(w, "You are already a member of this club.")
		return
	}

	u, err := userstore.New(h.DB).GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user failed", err, "Failed to send join request.")
		return
	}

	jr, err := joinrequeststore.New(h.DB).Create(ctx, clubID, *u)
	if errors.Is(err, joinrequeststore.ErrAlreadyRequested) {
		uierrors.Conflict(w, "Your request to join is already pending.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create join request failed", err, "Failed to send join request.")
		return
	}

	h.AuditLog.JoinRequested(ctx, r, userID, clubID)
	h.Log.Info("join requested",
		zap.String("club_id", clubID.Hex()),
		zap.String("user_id", userID.Hex()))
	uierrors.WriteJSON(w, http.StatusCreated, jr)
}
