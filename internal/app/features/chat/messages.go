// internal/app/features/chat/messages.go
package chat

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/chatview"
	"github.com/dalemusser/clubhub/internal/app/system/formutil"
	"github.com/dalemusser/clubhub/internal/app/system/limits"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type sendInput struct {
	Text     string `json:"text"`
	ClientID string `json:"client_id"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/chat/messages                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSend appends a message as the signed-in user. A failed write
// answers 503 with retry=true; the client keeps its draft and may resend
// with the same client_id.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(r)
	if !ok {
		uierrors.NotFound(w, "Club not found.")
		return
	}
	user, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthenticated(w)
		return
	}

	var in sendInput
	if err := formutil.DecodeJSON(w, r, &in, limits.MaxChatBody); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode chat message failed", err, err.Error())
		return
	}
	if strings.TrimSpace(in.Text) == "" {
		uierrors.BadRequest(w, "Message cannot be empty.")
		return
	}
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" || len(clientID) > 64 {
		clientID = uuid.NewString()
	}

	if h.PostLimiter != nil && !h.PostLimiter.Allow(user.ID) {
		uierrors.RateLimited(w, "You are sending messages too quickly. Please wait a moment.")
		return
	}

	view := h.Views.Writer(r.Context(), user, clubID)
	defer view.Close()

	m, err := view.Send(r.Context(), in.Text, clientID)
	switch {
	case err == nil:
	case errors.Is(err, messagestore.ErrEmptyMessage):
		uierrors.BadRequest(w, "Message cannot be empty.")
		return
	case errors.Is(err, messagestore.ErrTooLong):
		uierrors.BadRequest(w, "Message is too long.")
		return
	case errors.Is(err, chatview.ErrNotReady):
		writeGated(w, view.Render())
		return
	default:
		h.ErrLog.LogUnavailable(w, r, "chat append failed", err, "Message not sent. Try again.")
		return
	}

	uierrors.WriteJSON(w, http.StatusCreated, chatview.NewMessageView(m, m.SenderID, view.Resolution().Role))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /clubs/{id}/chat/messages/{messageID}/delete                            |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDelete removes a message. The author may always delete; leaders
// and admins may delete any message in the club. Deleting a message that
// is already gone succeeds.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(r)
	if !ok {
		uierrors.NotFound(w, "Club not found.")
		return
	}
	messageID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "messageID"))
	if err != nil {
		uierrors.NotFound(w, "Message not found.")
		return
	}
	user, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthenticated(w)
		return
	}

	view := h.Views.Writer(r.Context(), user, clubID)
	defer view.Close()

	msg, err := view.Delete(r.Context(), messageID)
	switch {
	case err == nil:
	case errors.Is(err, chatview.ErrNotAllowed):
		uierrors.Forbidden(w, "You can only delete your own messages.")
		return
	case errors.Is(err, chatview.ErrNotReady):
		writeGated(w, view.Render())
		return
	default:
		h.ErrLog.LogUnavailable(w, r, "chat delete failed", err, "Message not deleted. Try again.")
		return
	}

	if msg != nil {
		actorID, _ := primitive.ObjectIDFromHex(user.ID)
		role := view.Resolution().Role
		h.AuditLog.MessageDeleted(r.Context(), r, actorID, msg.SenderID, clubID, msg.ID, role)
		h.Log.Info("chat message deleted",
			zap.String("club_id", clubID.Hex()),
			zap.String("message_id", msg.ID.Hex()),
			zap.String("actor_id", user.ID),
			zap.String("actor_role", role))
	}
	w.WriteHeader(http.StatusNoContent)
}
