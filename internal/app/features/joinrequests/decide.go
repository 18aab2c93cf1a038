// internal/app/features/joinrequests/decide.go
package joinrequests

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	joinrequeststore "github.com/dalemusser/clubhub/internal/app/store/joinrequests"
	memberstore "github.com/dalemusser/clubhub/internal/app/store/members"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/txn"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type listData struct {
	Requests []models.JoinRequest `json:"requests"`
}

// ServeList handles GET /clubs/{id}/requests: pending requests, oldest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	clubID, ok := objectIDParam(w, r, "id", "Club not found.")
	if !ok {
		return
	}
	if _, _, ok := h.manager(w, r, clubID); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	reqs, err := joinrequeststore.New(h.DB).ListPending(ctx, clubID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list join requests failed", err, "Failed to load join requests.")
		return
	}
	if reqs == nil {
		reqs = []models.JoinRequest{}
	}
	uierrors.WriteJSON(w, http.StatusOK, listData{Requests: reqs})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/requests/{userID}/accept                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAccept turns a pending request into a member record copied from
// the user, points the user's club_id at the club (a visitor becomes a
// member), and deletes the request.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	clubID, ok := objectIDParam(w, r, "id", "Club not found.")
	if !ok {
		return
	}
	userID, ok := objectIDParam(w, r, "userID", "Join request not found.")
	if !ok {
		return
	}
	res, actorID, ok := h.manager(w, r, clubID)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accept join request")
	defer cancel()

	requests := joinrequeststore.New(h.DB)
	jr, err := requests.Get(ctx, clubID, userID)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && jr.Status != models.JoinRequestPending) {
		uierrors.NotFound(w, "Join request not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load join request failed", err, "Failed to accept request.")
		return
	}

	users := userstore.New(h.DB)
	u, err := users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// the account is gone; drop the stale request
		if _, derr := requests.Delete(ctx, clubID, userID); derr != nil {
			h.Log.Warn("delete stale join request failed",
				zap.String("club_id", clubID.Hex()),
				zap.String("user_id", userID.Hex()),
				zap.Error(derr))
		}
		uierrors.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user failed", err, "Failed to accept request.")
		return
	}

	members := memberstore.New(h.DB)
	existing, err := members.Get(ctx, clubID, u.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member failed", err, "Failed to accept request.")
		return
	}

	var member models.Member
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if existing != nil {
			member = *existing
		} else {
			m, err := members.Add(ctx, models.Member{
				ClubID: clubID,
				UserID: u.ID,
				Name:   u.DisplayName,
				Email:  u.Email,
				Role:   models.RoleMember,
				Stream: u.Stream,
				Course: u.Course,
			})
			if err != nil {
				return err
			}
			member = m
		}
		if err := users.PromoteToMember(ctx, u.ID, clubID); err != nil {
			return err
		}
		_, err := requests.Delete(ctx, clubID, u.ID)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "accept join request failed", err, "Failed to accept request.")
		return
	}

	h.AuditLog.JoinAccepted(ctx, r, actorID, u.ID, clubID, res.Role)
	uierrors.WriteJSON(w, http.StatusOK, member)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/requests/{userID}/reject                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleReject deletes the request. The user may apply again.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	clubID, ok := objectIDParam(w, r, "id", "Club not found.")
	if !ok {
		return
	}
	userID, ok := objectIDParam(w, r, "userID", "Join request not found.")
	if !ok {
		return
	}
	res, actorID, ok := h.manager(w, r, clubID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := joinrequeststore.New(h.DB).Delete(ctx, clubID, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reject join request failed", err, "Failed to reject request.")
		return
	}
	if n == 0 {
		uierrors.NotFound(w, "Join request not found.")
		return
	}

	h.AuditLog.JoinRejected(ctx, r, actorID, userID, clubID, res.Role)
	w.WriteHeader(http.StatusNoContent)
}
