// internal/app/features/clubs/manage.go
package clubs

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	memberstore "github.com/dalemusser/clubhub/internal/app/store/members"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/formutil"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/limits"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/txn"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxNameLen = 200

// cleanInput trims the name and sanitizes the description. It returns a
// user-facing message when the input is out of bounds.
func cleanInput(in *clubInput, requireName bool) string {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(htmlsanitize.Sanitize(in.Description))
	switch {
	case requireName && in.Name == "":
		return "Club name is required."
	case len(in.Name) > maxNameLen:
		return "Club name is too long."
	case len(in.Description) > limits.MaxDescriptionLen:
		return "Description is too long."
	}
	return ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs (admin)                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate creates a club. When leader_id is given the user becomes
// its leader: the club records it, a leader member record is added and
// the user's role and club_id are updated.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)

	var in clubInput
	if err := formutil.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode club body failed", err, err.Error())
		return
	}
	if msg := cleanInput(&in, true); msg != "" {
		uierrors.BadRequest(w, msg)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create club")
	defer cancel()

	users := userstore.New(h.DB)
	var leader *models.User
	if s := strings.TrimSpace(in.LeaderID); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			uierrors.BadRequest(w, "Leader not found.")
			return
		}
		leader, err = users.GetByID(ctx, oid)
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.BadRequest(w, "Leader not found.")
			return
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load leader failed", err, "Failed to create club.")
			return
		}
	}

	var club models.Club
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		c := models.Club{Name: in.Name, Description: in.Description}
		if leader != nil {
			lid := leader.ID
			c.LeaderID = &lid
		}
		created, err := clubstore.New(h.DB).Create(ctx, c)
		if err != nil {
			return err
		}
		club = created
		if leader == nil {
			return nil
		}
		if _, err := memberstore.New(h.DB).Add(ctx, models.Member{
			ClubID: club.ID,
			UserID: leader.ID,
			Name:   leader.DisplayName,
			Email:  leader.Email,
			Role:   models.RoleLeader,
			Stream: leader.Stream,
			Course: leader.Course,
		}); err != nil {
			return err
		}
		return users.AssignLeader(ctx, leader.ID, club.ID)
	})
	if errors.Is(err, clubstore.ErrDuplicateClubName) {
		uierrors.Conflict(w, "A club with this name already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create club failed", err, "Failed to create club.")
		return
	}

	h.AuditLog.ClubCreated(ctx, r, actorID, club.ID, club.Name)
	uierrors.WriteJSON(w, http.StatusCreated, toRow(club, boolCount(leader != nil)))
}

func boolCount(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/edit (leader or admin)                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleEdit updates name and description. An empty name keeps the
// current one.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(w, r)
	if !ok {
		return
	}

	res, actorID := h.Resolver.ForRequest(r, clubID)
	if res.Err != nil {
		h.ErrLog.LogUnavailable(w, r, "resolve club role failed", res.Err, "Could not check your access. Try again.")
		return
	}
	if !clubpolicy.CanManage(r, res) {
		uierrors.Forbidden(w, "Only the club leader or an admin can edit this club.")
		return
	}

	var in clubInput
	if err := formutil.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode club body failed", err, err.Error())
		return
	}
	if msg := cleanInput(&in, false); msg != "" {
		uierrors.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := clubstore.New(h.DB)
	err := store.UpdateInfo(ctx, clubID, in.Name, in.Description)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.NotFound(w, "Club not found.")
		return
	case errors.Is(err, clubstore.ErrDuplicateClubName):
		uierrors.Conflict(w, "A club with this name already exists.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update club failed", err, "Failed to update club.")
		return
	}

	club, err := store.GetByID(ctx, clubID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload club failed", err, "Failed to update club.")
		return
	}
	n, err := memberstore.New(h.DB).CountByClub(ctx, clubID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count club members failed", err, "Failed to update club.")
		return
	}

	h.AuditLog.ClubUpdated(ctx, r, actorID, clubID, res.Role)
	uierrors.WriteJSON(w, http.StatusOK, toRow(club, n))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/delete (admin)                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDelete removes the club document only. Members, requests, events
// and messages stay behind, keyed by the old club id.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(w, r)
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := clubstore.New(h.DB)
	club, err := store.GetByID(ctx, clubID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.NotFound(w, "Club not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load club failed", err, "Failed to delete club.")
		return
	}

	n, err := store.Delete(ctx, clubID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete club failed", err, "Failed to delete club.")
		return
	}
	if n == 0 {
		h.Log.Info("club delete: already gone", zap.String("club_id", clubID.Hex()))
	}

	h.AuditLog.ClubDeleted(ctx, r, actorID, clubID, club.Name)
	w.WriteHeader(http.StatusNoContent)
}
