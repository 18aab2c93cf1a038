// internal/app/features/events/list.go
package events

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /clubs/{id}/events                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeEvents lists a club's approved events by date. Any signed-in user
// may read them.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	clubID, ok := idParam(w, r, "id", "Club not found.")
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
		h.ErrLog.LogServerError(w, r, "load club failed", err, "Failed to load events.")
		return
	}

	list, err := eventstore.New(h.DB).ListEvents(ctx, clubID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list events failed", err, "Failed to load events.")
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	uierrors.WriteJSON(w, http.StatusOK, eventsData{Events: list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /clubs/{id}/proposals                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeClubProposals lists the club's pending and rejected proposals for
// its leader or an admin. Approved proposals have become events.
func (h *Handler) ServeClubProposals(w http.ResponseWriter, r *http.Request) {
	clubID, ok := idParam(w, r, "id", "Club not found.")
	if !ok {
		return
	}
	res, _ := h.Resolver.ForRequest(r, clubID)
	if res.Err != nil {
		h.ErrLog.LogUnavailable(w, r, "resolve club role failed", res.Err, "Could not check your access. Try again.")
		return
	}
	if !clubpolicy.CanManage(r, res) {
		uierrors.Forbidden(w, "Only the club leader or an admin can view proposals.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := eventstore.New(h.DB).ListProposals(ctx, &clubID, "")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list proposals failed", err, "Failed to load proposals.")
		return
	}
	writeProposals(w, list)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /proposals (admin)                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeQueue lists proposals across all clubs, oldest first. ?status=
// selects pending (default) or rejected.
func (h *Handler) ServeQueue(w http.ResponseWriter, r *http.Request) {
	status := query.Get(r, "status")
	switch status {
	case "":
		status = models.ProposalPending
	case models.ProposalPending, models.ProposalRejected:
	default:
		uierrors.BadRequest(w, "status must be pending or rejected.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := eventstore.New(h.DB).ListProposals(ctx, nil, status)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list proposals failed", err, "Failed to load proposals.")
		return
	}
	writeProposals(w, list)
}

func writeProposals(w http.ResponseWriter, list []models.EventProposal) {
	if list == nil {
		list = []models.EventProposal{}
	}
	uierrors.WriteJSON(w, http.StatusOK, proposalsData{Proposals: list})
}
