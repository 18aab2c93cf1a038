// internal/app/features/clubs/list.go
package clubs

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	joinrequeststore "github.com/dalemusser/clubhub/internal/app/store/joinrequests"
	memberstore "github.com/dalemusser/clubhub/internal/app/store/members"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList handles GET /clubs.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	clubs, err := clubstore.New(h.DB).List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list clubs failed", err, "Failed to load clubs.")
		return
	}

	members := memberstore.New(h.DB)
	out := listData{Clubs: make([]clubRow, 0, len(clubs))}
	for _, c := range clubs {
		n, err := members.CountByClub(ctx, c.ID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "count club members failed", err, "Failed to load clubs.")
			return
		}
		out.Clubs = append(out.Clubs, toRow(c, n))
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}

// ServeClub handles GET /clubs/{id}: the club plus the caller's
// resolved role in it.
func (h *Handler) ServeClub(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	club, err := clubstore.New(h.DB).GetByID(ctx, clubID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.NotFound(w, "Club not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load club failed", err, "Failed to load club.")
		return
	}

	res, userID := h.Resolver.ForRequest(r, clubID)
	if res.Err != nil {
		h.ErrLog.LogUnavailable(w, r, "resolve club role failed", res.Err, "Could not check your access. Try again.")
		return
	}

	n, err := memberstore.New(h.DB).CountByClub(ctx, clubID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count club members failed", err, "Failed to load club.")
		return
	}

	pending := false
	if res.Role == models.RoleVisitor {
		jr, err := joinrequeststore.New(h.DB).Get(ctx, clubID, userID)
		switch {
		case err == nil:
			pending = jr.Status == models.JoinRequestPending
		case !errors.Is(err, mongo.ErrNoDocuments):
			h.ErrLog.LogServerError(w, r, "load join request failed", err, "Failed to load club.")
			return
		}
	}

	uierrors.WriteJSON(w, http.StatusOK, clubData{
		Club:   toRow(club, n),
		Viewer: newViewer(res, clubpolicy.CanManage(r, res), pending),
	})
}
