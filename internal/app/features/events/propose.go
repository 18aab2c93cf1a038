// internal/app/features/events/propose.go
package events

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/system/formutil"
	"github.com/dalemusser/clubhub/internal/app/system/limits"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/proposals                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// HandlePropose submits an event proposal. Only the club's leader may
// propose; an admin decides.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	clubID, ok := idParam(w, r, "id", "Club not found.")
	if !ok {
		return
	}
	res, actorID := h.Resolver.ForRequest(r, clubID)
	if res.Err != nil {
		h.ErrLog.LogUnavailable(w, r, "resolve club role failed", res.Err, "Could not check your access. Try again.")
		return
	}
	if res.Role != models.RoleLeader {
		uierrors.Forbidden(w, "Only the club leader can propose events.")
		return
	}

	var in proposalInput
	if err := formutil.DecodeJSON(w, r, &in, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode proposal body failed", err, err.Error())
		return
	}
	date, msg := in.clean(time.Now())
	if msg != "" {
		uierrors.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := eventstore.New(h.DB).Propose(ctx, clubID, actorID, eventstore.NewProposal{
		Title:       in.Title,
		Description: in.Description,
		Date:        date,
		Location:    in.Location,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "propose event failed", err, "Failed to submit proposal.")
		return
	}

	h.AuditLog.ProposalSubmitted(ctx, r, actorID, clubID, p.ID, p.Title)
	h.Log.Info("event proposed",
		zap.String("club_id", clubID.Hex()),
		zap.String("proposal_id", p.ID.Hex()))
	uierrors.WriteJSON(w, http.StatusCreated, p)
}
