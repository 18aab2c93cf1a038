// internal/app/features/chat/stream.go
package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/chatview"
	"go.uber.org/zap"
)

const heartbeatEvery = 25 * time.Second

// ServeStream handles GET /clubs/{id}/chat/stream as server-sent events.
//
//	event: snapshot   the full ordered message list, after every change
//	event: state      the view left ready (or never got there); the stream ends
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	clubID, ok := clubIDParam(r)
	if !ok {
		uierrors.NotFound(w, "Club not found.")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.ErrLog.LogServerError(w, r, "chat stream", fmt.Errorf("response writer does not flush"), "Streaming not supported.")
		return
	}

	user, _ := auth.CurrentUser(r)
	ctx := r.Context()

	view := h.Views.Open(ctx, user, clubID)
	defer view.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Open already signalled; the first event goes out below.
	select {
	case <-view.Changes():
	default:
	}
	if !h.emit(w, flusher, view.Render()) {
		return
	}

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-view.Changes():
			if !h.emit(w, flusher, view.Render()) {
				return
			}
		}
	}
}

// emit writes vm as one event and reports whether the stream stays open.
func (h *Handler) emit(w http.ResponseWriter, flusher http.Flusher, vm chatview.ViewModel) bool {
	event := "snapshot"
	if vm.State != chatview.StateReady {
		event = "state"
	}
	payload, err := json.Marshal(vm)
	if err != nil {
		h.Log.Error("encode chat event", zap.Error(err))
		return false
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
	return event == "snapshot"
}
