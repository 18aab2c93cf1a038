// internal/app/features/chat/view.go
package chat

import (
	"net/http"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
)

// ServeChat handles GET /clubs/{id}/chat.
//
// The body is always the view model; the status tells the client which
// state it landed in.
func (h *Handler) ServeChat(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(r)
	if !ok {
		uierrors.NotFound(w, "Club not found.")
		return
	}
	user, _ := auth.CurrentUser(r)

	view := h.Views.Open(r.Context(), user, clubID)
	defer view.Close()

	vm := view.Render()
	uierrors.WriteJSON(w, statusFor(vm.State), vm)
}
