// internal/app/features/members/list.go
package members

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	memberstore "github.com/dalemusser/clubhub/internal/app/store/members"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
)

type memberRow struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Stream   string    `json:"stream,omitempty"`
	Course   string    `json:"course,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

type listData struct {
	Members []memberRow `json:"members"`
	Total   int         `json:"total"`
}

// ServeList handles GET /clubs/{id}/members, sorted by name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	clubID, _, _, ok := h.access(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := memberstore.New(h.DB).List(ctx, clubID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members failed", err, "Failed to load members.")
		return
	}

	rows := make([]memberRow, 0, len(list))
	for _, m := range list {
		rows = append(rows, memberRow{
			UserID:   m.UserID.Hex(),
			Name:     m.Name,
			Email:    m.Email,
			Role:     m.EffectiveRole(),
			Stream:   m.Stream,
			Course:   m.Course,
			JoinedAt: m.JoinedAt,
		})
	}
	uierrors.WriteJSON(w, http.StatusOK, listData{Members: rows, Total: len(rows)})
}
