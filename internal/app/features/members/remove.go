// internal/app/features/members/remove.go
package members

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	memberstore "github.com/dalemusser/clubhub/internal/app/store/members"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/txn"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/members/{userID}/remove                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleRemove deletes the member record and clears users.club_id when it
// pointed at this club. The leader's own record cannot be removed here.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	clubID, actorID, res, ok := h.access(w, r)
	if !ok {
		return
	}
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		uierrors.NotFound(w, "Member not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members := memberstore.New(h.DB)
	m, err := members.Get(ctx, clubID, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member failed", err, "Failed to remove member.")
		return
	}
	if m == nil {
		uierrors.NotFound(w, "Member not found.")
		return
	}
	if m.EffectiveRole() == models.RoleLeader {
		uierrors.Conflict(w, "The club leader cannot be removed. Assign a new leader first.")
		return
	}

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := members.Remove(ctx, clubID, userID); err != nil {
			return err
		}
		return userstore.New(h.DB).ClearClub(ctx, userID, clubID)
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "remove member failed", err, "Failed to remove member.")
		return
	}

	h.AuditLog.MemberRemoved(ctx, r, actorID, userID, clubID, res.Role)
	h.Log.Info("member removed",
		zap.String("club_id", clubID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("actor_id", actorID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
