// internal/app/features/events/decide.go
package events

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/proposals/{pid}/approve (admin)                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleApprove copies the proposal into events and deletes it. A repeat
// or concurrent approval returns the event created the first time.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	clubID, ok := idParam(w, r, "id", "Club not found.")
	if !ok {
		return
	}
	pid, ok := idParam(w, r, "pid", "Proposal not found.")
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := eventstore.New(h.DB).Approve(ctx, clubID, pid)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.NotFound(w, "Proposal not found.")
		return
	case errors.Is(err, eventstore.ErrNotPending):
		uierrors.Conflict(w, "This proposal was already decided.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "approve proposal failed", err, "Failed to approve proposal.")
		return
	}

	h.AuditLog.ProposalApproved(ctx, r, actorID, clubID, pid, ev.ID)
	h.Log.Info("proposal approved",
		zap.String("club_id", clubID.Hex()),
		zap.String("proposal_id", pid.Hex()),
		zap.String("event_id", ev.ID.Hex()))
	uierrors.WriteJSON(w, http.StatusOK, approvedData{Event: ev})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/proposals/{pid}/reject (admin)                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	clubID, ok := idParam(w, r, "id", "Club not found.")
	if !ok {
		return
	}
	pid, ok := idParam(w, r, "pid", "Proposal not found.")
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := eventstore.New(h.DB).Reject(ctx, clubID, pid, actorID)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.NotFound(w, "Proposal not found.")
		return
	case errors.Is(err, eventstore.ErrNotPending):
		uierrors.Conflict(w, "This proposal was already decided.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "reject proposal failed", err, "Failed to reject proposal.")
		return
	}

	h.AuditLog.ProposalRejected(ctx, r, actorID, clubID, pid)
	w.WriteHeader(http.StatusNoContent)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/events/{eventID}/delete                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDeleteEvent removes an event for the club's leader or an admin.
// Deleting an event that is already gone succeeds.
func (h *Handler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	clubID, ok := idParam(w, r, "id", "Club not found.")
	if !ok {
		return
	}
	eventID, ok := idParam(w, r, "eventID", "Event not found.")
	if !ok {
		return
	}
	res, actorID := h.Resolver.ForRequest(r, clubID)
	if res.Err != nil {
		h.ErrLog.LogUnavailable(w, r, "resolve club role failed", res.Err, "Could not check your access. Try again.")
		return
	}
	if !clubpolicy.CanManage(r, res) {
		uierrors.Forbidden(w, "Only the club leader or an admin can delete events.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := eventstore.New(h.DB).DeleteEvent(ctx, clubID, eventID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete event failed", err, "Failed to delete event.")
		return
	}
	h.AuditLog.EventDeleted(ctx, r, actorID, clubID, eventID, res.Role)
	w.WriteHeader(http.StatusNoContent)
}
